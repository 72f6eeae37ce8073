// Package config handles application configuration loading from environment
// variables, optionally layered over a YAML file. It provides a centralized
// Config struct used across the application.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends selectable with STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// defaultDBPassword is refused in production.
const defaultDBPassword = "changeme"

// maxValkeyDB is the highest logical database of a default Valkey server.
const maxValkeyDB = 15

// Config holds all application configuration values. Values come from,
// in increasing priority: built-in defaults, the YAML file named by
// STOREFRONT_CONFIG, and environment variables.
type Config struct {
	// Server settings
	Host string `yaml:"app_host"`
	Port string `yaml:"app_port"`
	Env  string `yaml:"app_env"` // "development", "production", "testing"

	// StoreBackend selects where categories and accounts live.
	StoreBackend string `yaml:"store_backend"`

	// PostgreSQL connection
	DBHost     string `yaml:"postgres_host"`
	DBPort     string `yaml:"postgres_port"`
	DBUser     string `yaml:"postgres_user"`
	DBPassword string `yaml:"postgres_password"`
	DBName     string `yaml:"postgres_db"`

	// MongoDB connection
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`

	// Valkey (Redis-compatible cache)
	ValkeyHost     string `yaml:"valkey_host"`
	ValkeyPort     string `yaml:"valkey_port"`
	ValkeyPassword string `yaml:"valkey_password"`
	// ValkeyDB selects the logical database, so several deployments can
	// share one Valkey server.
	ValkeyDB int `yaml:"valkey_db"`

	// SnapshotTTL is how long a shop's category snapshot stays cached.
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
	// LoginRateLimit is the number of login attempts allowed per client
	// IP per minute.
	LoginRateLimit int    `yaml:"login_rate_limit"`
	LogLevel       string `yaml:"log_level"`
}

// defaults returns the development configuration.
func defaults() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           "8080",
		Env:            "development",
		StoreBackend:   BackendPostgres,
		DBHost:         "localhost",
		DBPort:         "5432",
		DBUser:         "storefront",
		DBPassword:     defaultDBPassword,
		DBName:         "storefront",
		MongoURI:       "mongodb://localhost:27017",
		MongoDB:        "storefront",
		ValkeyHost:     "localhost",
		ValkeyPort:     "6379",
		SnapshotTTL:    5 * time.Minute,
		LoginRateLimit: 10,
		LogLevel:       "info",
	}
}

// Load reads configuration from the optional YAML file and environment
// variables, applying defaults for development where appropriate. Returns
// an error if a value is malformed or unsafe for production.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Host = envOrDefault("APP_HOST", cfg.Host)
	cfg.Port = envOrDefault("APP_PORT", cfg.Port)
	cfg.Env = envOrDefault("APP_ENV", cfg.Env)
	cfg.StoreBackend = envOrDefault("STORE_BACKEND", cfg.StoreBackend)

	cfg.DBHost = envOrDefault("POSTGRES_HOST", cfg.DBHost)
	cfg.DBPort = envOrDefault("POSTGRES_PORT", cfg.DBPort)
	cfg.DBUser = envOrDefault("POSTGRES_USER", cfg.DBUser)
	cfg.DBPassword = envOrDefault("POSTGRES_PASSWORD", cfg.DBPassword)
	cfg.DBName = envOrDefault("POSTGRES_DB", cfg.DBName)

	cfg.MongoURI = envOrDefault("MONGO_URI", cfg.MongoURI)
	cfg.MongoDB = envOrDefault("MONGO_DB", cfg.MongoDB)

	cfg.ValkeyHost = envOrDefault("VALKEY_HOST", cfg.ValkeyHost)
	cfg.ValkeyPort = envOrDefault("VALKEY_PORT", cfg.ValkeyPort)
	cfg.ValkeyPassword = envOrDefault("VALKEY_PASSWORD", cfg.ValkeyPassword)

	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("SNAPSHOT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SNAPSHOT_TTL: %w", err)
		}
		cfg.SnapshotTTL = d
	}
	if v := os.Getenv("VALKEY_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("VALKEY_DB: %w", err)
		}
		cfg.ValkeyDB = n
	}
	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("LOGIN_RATE_LIMIT: %w", err)
		}
		cfg.LoginRateLimit = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path onto c. Keys missing from the
// file keep their current value.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendPostgres, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be postgres, mongo or memory, got %q", c.StoreBackend)
	}
	if c.SnapshotTTL < 0 {
		return fmt.Errorf("SNAPSHOT_TTL must not be negative")
	}
	if c.ValkeyDB < 0 || c.ValkeyDB > maxValkeyDB {
		return fmt.Errorf("VALKEY_DB must be between 0 and %d, got %d", maxValkeyDB, c.ValkeyDB)
	}
	if c.LoginRateLimit < 1 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be at least 1")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	if c.Env == "production" {
		if c.StoreBackend == BackendPostgres && c.DBPassword == defaultDBPassword {
			return fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if c.StoreBackend == BackendMemory {
			return fmt.Errorf("STORE_BACKEND=memory is not allowed in production")
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SecureCookies reports whether session cookies need the Secure flag.
func (c *Config) SecureCookies() bool {
	return c.Env == "production"
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
