package bootstrap

import (
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/config"
	sharedConfig "github.com/nat-prohmpiriya/llm-application-framework/internal/shared/config"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

func TestMapEnvToGinMode(t *testing.T) {
	tests := map[string]string{
		"production":  "release",
		"prod":        "release",
		"test":        "test",
		"development": "debug",
		"":            "debug",
	}
	for env, want := range tests {
		assert.Equal(t, want, MapEnvToGinMode(env), env)
	}
}

func TestOpenRedis(t *testing.T) {
	log := logger.NewNopLogger()

	t.Run("not configured", func(t *testing.T) {
		assert.Nil(t, OpenRedis(&config.Config{}, log))
	})

	t.Run("reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{Redis: sharedConfig.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)}}

		client := OpenRedis(cfg, log)
		require.NotNil(t, client)
		defer client.Close()
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{Redis: sharedConfig.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)}}
		mr.Close()

		assert.Nil(t, OpenRedis(cfg, log))
	})
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	var port int
	_, err := fmt.Sscanf(mr.Port(), "%d", &port)
	require.NoError(t, err)
	return port
}
