package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: "9090"
jwt:
  secret: from-file
attendance:
  timezone: Europe/Istanbul
redis:
  enabled: false
`)

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_CHECKIN_MAX_ATTEMPTS", "3")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 3, cfg.Redis.CheckInMaxAttempts)
	assert.Equal(t, "Europe/Istanbul", cfg.Location().String())
	// untouched defaults survive
	assert.Equal(t, "mentorhub", cfg.Database.DBName)
	assert.Equal(t, 256, cfg.Attendance.QRSize)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: \"8080\"\n")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret is required")
}

func TestLoadConfig_InvalidTimezone(t *testing.T) {
	path := writeConfigFile(t, "jwt:\n  secret: s\nattendance:\n  timezone: Mars/Olympus\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")
}

func TestLoadConfig_BadEnvInteger(t *testing.T) {
	path := writeConfigFile(t, "jwt:\n  secret: s\n")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MAX_OPEN_CONNS")
}

func TestSetFieldFromEnv_Duration(t *testing.T) {
	var target struct {
		Wait time.Duration `env:"TEST_WAIT"`
	}
	t.Setenv("TEST_WAIT", "90s")

	require.NoError(t, processStructFields(&target))
	assert.Equal(t, 90*time.Second, target.Wait)
}
