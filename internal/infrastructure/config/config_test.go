package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load("../../../config.example.yaml")
	if os.IsNotExist(err) {
		t.Skip("config.example.yaml not found")
	}

	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultDateToleranceDays, cfg.Reconciliation.DateToleranceDays)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  allowed_origins:
    - https://app.example.com
storage:
  database_path: /var/lib/reconcile/data.db
reconciliation:
  date_tolerance_days: 5
observability:
  logging:
    level: debug
    format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/var/lib/reconcile/data.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 5, cfg.Reconciliation.DateToleranceDays)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: partial.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "partial.db", cfg.Storage.DatabasePath)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultDateToleranceDays, cfg.Reconciliation.DateToleranceDays)
	assert.Equal(t, "text", cfg.Observability.Logging.Format)
	assert.NotEmpty(t, cfg.Server.AllowedOrigins)
}

func TestLoad_ZeroToleranceIsKept(t *testing.T) {
	path := writeConfig(t, `
reconciliation:
  date_tolerance_days: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Reconciliation.DateToleranceDays)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative tolerance", "reconciliation:\n  date_tolerance_days: -1\n"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"unknown log format", "observability:\n  logging:\n    format: xml\n"},
		{"malformed yaml", "server: [port\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RECON_DB_PATH", "test.db")
	t.Setenv("RECON_PORT", "9191")
	t.Setenv("RECON_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("RECON_DATE_TOLERANCE_DAYS", "2")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := LoadFromEnv()
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2, cfg.Reconciliation.DateToleranceDays)
	assert.Equal(t, "warn", cfg.Observability.Logging.Level)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("RECON_DB_PATH", "")
	t.Setenv("RECON_PORT", "not-a-number")
	t.Setenv("RECON_ALLOWED_ORIGINS", " , ")

	cfg := LoadFromEnv()
	assert.Equal(t, DefaultDatabasePath, cfg.Storage.DatabasePath)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, defaultAllowedOrigins, cfg.Server.AllowedOrigins)
	assert.Equal(t, DefaultDateToleranceDays, cfg.Reconciliation.DateToleranceDays)
}

func TestLoadOrEnvWithPath_FallbackToEnv(t *testing.T) {
	t.Setenv("RECON_DB_PATH", "fallback.db")

	cfg := LoadOrEnvWithPath("nonexistent.yaml")
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "expanded.db")
	path := writeConfig(t, `
storage:
  database_path: "${TEST_DB_PATH}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
}
