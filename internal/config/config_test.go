package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PHISHBOX_ENV_FILE",
	"PHISHBOX_CONFIG_PATH",
	"PHISHBOX_SERVER_HOST",
	"PHISHBOX_SERVER_PORT",
	"PHISHBOX_DB_PATH",
	"PHISHBOX_LOG_LEVEL",
	"PHISHBOX_LOG_PATH",
	"PHISHBOX_AUTH_ENABLED",
	"PHISHBOX_JWT_SECRET",
	"PHISHBOX_TOKEN_TTL",
	"PHISHBOX_ADMIN_EMAIL",
	"PHISHBOX_ADMIN_PASSWORD",
	"PHISHBOX_TRANSPORT",
}

// clearEnv unsets every config variable for the test and restores them after.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("PHISHBOX_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PHISHBOX_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "phishbox.db", cfg.DB.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
server:
  port: 9000
db:
  path: /var/lib/phishbox/data.db
auth:
  jwt_secret: from-file
  token_ttl: 2h
  admin_email: admin@corp.example
`)
	t.Setenv("PHISHBOX_CONFIG_PATH", path)
	t.Setenv("PHISHBOX_SERVER_PORT", "9100")
	t.Setenv("PHISHBOX_AUTH_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "/var/lib/phishbox/data.db", cfg.DB.Path)
	require.Equal(t, "from-file", cfg.Auth.JWTSecret)
	require.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, "admin@corp.example", cfg.Auth.AdminEmail)
	require.False(t, cfg.Auth.Enabled)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PHISHBOX_ENV_FILE", writeFile(t, "test.env", "PHISHBOX_JWT_SECRET=from-dotenv\nPHISHBOX_LOG_LEVEL=debug\n"))
	t.Setenv("PHISHBOX_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.Auth.JWTSecret)
	require.Equal(t, "warn", cfg.Log.Level, "process env wins over the env file")
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("PHISHBOX_SERVER_PORT", "eighty")
	_, err := Load()
	require.ErrorContains(t, err, "PHISHBOX_SERVER_PORT")

	clearEnv(t)
	_, err = Load()
	require.ErrorContains(t, err, "jwt_secret")

	clearEnv(t)
	t.Setenv("PHISHBOX_TRANSPORT", "stdio")
	_, err = Load()
	require.NoError(t, err, "stdio mode needs no secret")

	clearEnv(t)
	t.Setenv("PHISHBOX_TRANSPORT", "carrier-pigeon")
	t.Setenv("PHISHBOX_JWT_SECRET", "secret")
	_, err = Load()
	require.ErrorContains(t, err, "transport mode")
}
