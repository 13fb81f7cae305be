// Package config loads server settings from defaults, an optional YAML file,
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DevSecret is used when no JWT secret is configured. Never use it in production.
const DevSecret = "dinevote-dev-secret-change-me"

// FileEnv names the environment variable holding the YAML config path.
const FileEnv = "DINEVOTE_CONFIG"

type Config struct {
	Port     int            `yaml:"port"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Planning PlanningConfig `yaml:"planning"`
	Log      LogConfig      `yaml:"log"`
}

type StorageConfig struct {
	// Driver is one of sqlite, postgres or memory.
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite and a connection URL for postgres.
	DSN string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type PlanningConfig struct {
	MaxMutateAttempts int           `yaml:"max_mutate_attempts"`
	RetryBaseDelay    time.Duration `yaml:"retry_base_delay"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port: 8080,
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "./data/dinevote.db",
		},
		Auth: AuthConfig{
			JWTSecret: DevSecret,
			TokenTTL:  24 * time.Hour,
		},
		Planning: PlanningConfig{
			MaxMutateAttempts: 5,
			RetryBaseDelay:    2 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads .env (if present), then the YAML file named by DINEVOTE_CONFIG,
// then environment overrides, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if cfg.Auth.JWTSecret == DevSecret {
		slog.Warn("JWT_SECRET not set, using development secret")
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error

	if c.Port, err = getEnvInt("PORT", c.Port); err != nil {
		return err
	}
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.DSN = getEnv("DB_PATH", c.Storage.DSN)
	c.Storage.DSN = getEnv("DATABASE_URL", c.Storage.DSN)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	if c.Auth.TokenTTL, err = getEnvDuration("TOKEN_TTL", c.Auth.TokenTTL); err != nil {
		return err
	}
	if c.Planning.MaxMutateAttempts, err = getEnvInt("MAX_MUTATE_ATTEMPTS", c.Planning.MaxMutateAttempts); err != nil {
		return err
	}
	if c.Planning.RetryBaseDelay, err = getEnvDuration("RETRY_BASE_DELAY", c.Planning.RetryBaseDelay); err != nil {
		return err
	}
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage dsn is required for driver %s", c.Storage.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Planning.MaxMutateAttempts < 1 {
		return fmt.Errorf("max mutate attempts must be positive, got %d", c.Planning.MaxMutateAttempts)
	}
	if c.Planning.RetryBaseDelay < 0 {
		return fmt.Errorf("retry base delay must not be negative, got %s", c.Planning.RetryBaseDelay)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	return nil
}

// Addr is the listen address for the configured port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
