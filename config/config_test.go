package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, "0 0 1 * *", cfg.Server.Rollover)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Files(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	first := filepath.Join(dir, "first.toml")
	require.NoError(t, os.WriteFile(first, []byte(`
currency = "eur"
plan = "household"

[store]
driver = "postgres"
dsn = "postgres://localhost/plans"

[server]
port = 9000
`), 0o644))

	second := filepath.Join(dir, "second.toml")
	require.NoError(t, os.WriteFile(second, []byte(`
[server]
port = 9001
`), 0o644))

	cfg, err := Load(first, filepath.Join(dir, "missing.toml"), second)
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, "household", cfg.Plan)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/plans", cfg.Store.DSN)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "unset values keep their default")
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("currency = "), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvStoreDriver, "Mongo")
	t.Setenv(EnvMongoURI, "mongodb://db:27017")
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "mongodb://db:27017", cfg.Store.URI)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("FORECAST_PLAN=from-dotenv\nFORECAST_CURRENCY=usd\n"), 0o644))
	t.Setenv(EnvCurrency, "GBP") // the environment wins over .env
	t.Cleanup(func() { os.Unsetenv(EnvPlan) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Plan)
	assert.Equal(t, "GBP", cfg.Currency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		want   string
	}{
		{"currency", func(c *Config) { c.Currency = "RUPEE" }, `invalid currency "RUPEE"`},
		{"plan", func(c *Config) { c.Plan = "" }, "plan name is required"},
		{"driver", func(c *Config) { c.Store.Driver = "redis" }, `unknown store driver "redis"`},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "invalid port 70000"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "not a valid logrus Level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestLoggingConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	log := LoggingConfig{Level: "warn", Format: "json"}.Logger(&buf)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())

	log.Info("hidden")
	log.WithField("plan", "default").Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"plan":"default"`)

	log = LoggingConfig{Level: "nonsense"}.Logger(&buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
