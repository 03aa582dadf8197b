// Package config loads the forecast configuration.
//
// Values are read, in order of precedence from lowest to highest, from the
// defaults, the TOML configuration files, a .env file and FORECAST_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config holds all configuration for forecast.
type Config struct {
	Currency  string          `toml:"currency"` // currency of new plans
	Plan      string          `toml:"plan"`     // name of the plan in the store
	Store     StoreConfig     `toml:"store"`
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Assistant AssistantConfig `toml:"assistant"`
}

// StoreConfig selects and configures the plan store.
type StoreConfig struct {
	Driver     string `toml:"driver"`     // file, mongo or postgres
	Path       string `toml:"path"`       // folder of the file store
	URI        string `toml:"uri"`        // mongo connection URI
	Database   string `toml:"database"`   // mongo database
	Collection string `toml:"collection"` // mongo collection
	DSN        string `toml:"dsn"`        // postgres connection string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// Rollover is the cron spec of the periodic recompute that keeps month
	// labels in sync with the calendar. Empty disables it.
	Rollover string `toml:"rollover"`
}

// Addr returns the host:port address to listen on.
func (c ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// AssistantConfig configures the AI advisor.
type AssistantConfig struct {
	Model string `toml:"model"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Currency: "INR",
		Plan:     "default",
		Store: StoreConfig{
			Driver:     DriverFile,
			Path:       ".forecast",
			URI:        "mongodb://localhost:27017",
			Database:   "forecast",
			Collection: "plans",
			DSN:        "host=localhost port=5432 user=forecast dbname=forecast sslmode=disable",
		},
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8080,
			Rollover: "0 0 1 * *",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Assistant: AssistantConfig{
			Model: "gemini-2.5-flash",
		},
	}
}

// DefaultPaths returns the configuration files read when none is given: the
// user's config file then forecast.toml in the working directory.
func DefaultPaths() []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "forecast", "config.toml"))
	}
	return append(paths, "forecast.toml")
}

// Load loads configuration from files with environment overrides. Missing
// files are skipped, so is a missing .env file.
func Load(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// .env never overrides a variable already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	applyEnvOverrides(config)
	return config, config.Validate()
}

// Environment variables overriding the configuration.
const (
	EnvCurrency      = "FORECAST_CURRENCY"
	EnvPlan          = "FORECAST_PLAN"
	EnvStoreDriver   = "FORECAST_STORE"
	EnvStorePath     = "FORECAST_STORE_PATH"
	EnvMongoURI      = "FORECAST_MONGO_URI"
	EnvMongoDatabase = "FORECAST_MONGO_DB"
	EnvPostgresDSN   = "FORECAST_PG_DSN"
	EnvHost          = "FORECAST_HOST"
	EnvPort          = "FORECAST_PORT"
	EnvRollover      = "FORECAST_ROLLOVER"
	EnvLogLevel      = "FORECAST_LOG_LEVEL"
	EnvLogFormat     = "FORECAST_LOG_FORMAT"
	EnvModel         = "FORECAST_MODEL"
)

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str(EnvCurrency, &config.Currency)
	str(EnvPlan, &config.Plan)
	str(EnvStoreDriver, &config.Store.Driver)
	str(EnvStorePath, &config.Store.Path)
	str(EnvMongoURI, &config.Store.URI)
	str(EnvMongoDatabase, &config.Store.Database)
	str(EnvPostgresDSN, &config.Store.DSN)
	str(EnvHost, &config.Server.Host)
	str(EnvRollover, &config.Server.Rollover)
	str(EnvLogLevel, &config.Logging.Level)
	str(EnvLogFormat, &config.Logging.Format)
	str(EnvModel, &config.Assistant.Model)

	if port := os.Getenv(EnvPort); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	config.Currency = strings.ToUpper(config.Currency)
	config.Store.Driver = strings.ToLower(config.Store.Driver)
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("invalid currency %q", c.Currency))
	}
	if c.Plan == "" {
		errs = append(errs, errors.New("plan name is required"))
	}
	switch c.Store.Driver {
	case DriverFile, DriverMongo, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Logger returns a logger configured by the logging section, writing to w.
func (c LoggingConfig) Logger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	if strings.EqualFold(c.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
