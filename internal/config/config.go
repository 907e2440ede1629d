package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Local persistence
	StoreBackend string
	DatabasePath string
	DatabaseURL  string
	PebblePath   string

	// Catalog and progress accounting
	CatalogPath string
	TimeUnit    time.Duration

	// Remote sync
	Remote RemoteConfig

	// Sign-in
	IDToken IDTokenConfig

	// Badge e-mail notifications
	Email EmailConfig

	// Logging
	Log LogConfig
}

// RemoteConfig selects and configures the remote per-user document store
type RemoteConfig struct {
	Backend           string
	RedisURL          string
	DatabaseType      string
	DatabaseURL       string
	BaseURL           string
	Timeout           time.Duration
	OAuthClientID     string
	OAuthClientSecret string
	OAuthTokenURL     string
}

// IDTokenConfig configures verification of sign-in ID tokens
type IDTokenConfig struct {
	Secret   string
	JWKSURL  string
	Issuer   string
	Audience string
}

// EmailConfig configures the SES badge notifier
type EmailConfig struct {
	Region    string
	FromEmail string
	FromName  string
	To        string
	Debug     bool
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level      string
	Output     string
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// Load reads configuration from an optional .env file and environment variables with sensible defaults
func Load() (*Config, error) {
	// A missing .env file is fine, the environment still applies.
	_ = godotenv.Load()

	cfg := &Config{
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "sqlite")),
		DatabasePath: getEnv("DB_PATH", "./pagetrail.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		PebblePath:   getEnv("PEBBLE_PATH", "./pagetrail.pebble"),
		CatalogPath:  getEnv("CATALOG_PATH", ""),
		TimeUnit:     getEnvDuration("TIME_UNIT", time.Second),
		Remote: RemoteConfig{
			Backend:           strings.ToLower(getEnv("REMOTE_BACKEND", "none")),
			RedisURL:          getEnv("REDIS_URL", ""),
			DatabaseType:      strings.ToLower(getEnv("REMOTE_DATABASE_TYPE", "postgres")),
			DatabaseURL:       getEnv("REMOTE_DATABASE_URL", ""),
			BaseURL:           getEnv("REMOTE_BASE_URL", ""),
			Timeout:           getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),
			OAuthClientID:     getEnv("OAUTH_CLIENT_ID", ""),
			OAuthClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
			OAuthTokenURL:     getEnv("OAUTH_TOKEN_URL", ""),
		},
		IDToken: IDTokenConfig{
			Secret:   getEnv("ID_TOKEN_SECRET", ""),
			JWKSURL:  getEnv("ID_TOKEN_JWKS_URL", ""),
			Issuer:   getEnv("ID_TOKEN_ISSUER", ""),
			Audience: getEnv("ID_TOKEN_AUDIENCE", ""),
		},
		Email: EmailConfig{
			Region:    getEnv("SES_REGION", "us-east-1"),
			FromEmail: getEnv("SES_FROM_EMAIL", ""),
			FromName:  getEnv("SES_FROM_NAME", "PageTrail"),
			To:        getEnv("NOTIFY_EMAIL", ""),
			Debug:     getEnvBool("EMAIL_DEBUG", false),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Output:     getEnv("LOG_OUTPUT", "stderr"),
			FilePath:   getEnv("LOG_FILE_PATH", "logs/pagetrail.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 28),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistent values
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "sqlite", "sqlite3":
		if c.DatabasePath == "" {
			return fmt.Errorf("DB_PATH is required for store backend %q", c.StoreBackend)
		}
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store backend %q", c.StoreBackend)
		}
	case "pebble":
		if c.PebblePath == "" {
			return fmt.Errorf("PEBBLE_PATH is required for store backend %q", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unsupported store backend: %s", c.StoreBackend)
	}

	if c.TimeUnit <= 0 {
		return fmt.Errorf("TIME_UNIT must be positive, got %s", c.TimeUnit)
	}

	switch c.Remote.Backend {
	case "", "none":
	case "redis":
		if c.Remote.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for remote backend redis")
		}
	case "sql":
		if c.Remote.DatabaseURL == "" {
			return fmt.Errorf("REMOTE_DATABASE_URL is required for remote backend sql")
		}
	case "http":
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("REMOTE_BASE_URL is required for remote backend http")
		}
	default:
		return fmt.Errorf("unsupported remote backend: %s", c.Remote.Backend)
	}

	if c.Remote.Timeout <= 0 {
		c.Remote.Timeout = 10 * time.Second
	}

	switch c.Log.Output {
	case "stderr", "stdout", "file", "both":
	default:
		return fmt.Errorf("invalid log output %q", c.Log.Output)
	}

	return nil
}

// RemoteEnabled reports whether a remote sync backend is configured
func (c *Config) RemoteEnabled() bool {
	return c.Remote.Backend != "" && c.Remote.Backend != "none"
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
