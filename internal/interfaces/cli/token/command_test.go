package token

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/auth"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("LLMAPP_AUTH_JWT_SECRET", "test-secret")
	t.Setenv("LLMAPP_AUTH_ISSUER", "llmapp-test")

	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env", "test", "--user", "ops-1", "--ttl", "10m"})

	require.NoError(t, cmd.Execute())

	claims, err := auth.NewJWTService("test-secret", "llmapp-test", time.Hour).Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.UserID)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCommand_RequiresUser(t *testing.T) {
	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env", "test"})

	assert.Error(t, cmd.Execute())
}
