// Package bootstrap loads configuration and opens shared connections for CLI commands.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/config"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/database"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// MapEnvToGinMode converts an environment name into a gin mode.
func MapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}

// LoadConfig reads configuration and initializes the global logger.
func LoadConfig(env string) (*config.Config, error) {
	cfg, err := config.Load(MapEnvToGinMode(env))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

// LoadWithDatabase is LoadConfig plus the process-wide database handle.
// Callers close it with database.Close.
func LoadWithDatabase(env string) (*config.Config, error) {
	cfg, err := LoadConfig(env)
	if err != nil {
		return nil, err
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, nil
}

// OpenRedis returns nil when redis is not configured or not reachable.
func OpenRedis(cfg *config.Config, log logger.Interface) *redis.Client {
	if !cfg.Redis.Enabled() {
		log.Infow("redis not configured, using in-process plan cache")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnw("redis unreachable, using in-process plan cache", "addr", cfg.Redis.GetAddr(), "error", err)
		_ = client.Close()
		return nil
	}

	return client
}
