package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Seed     SeedConfig
	Order    OrderConfig
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type ServerConfig struct {
	Port            string `envconfig:"PORT" default:"8080"`
	Host            string `envconfig:"HOST" default:"0.0.0.0"`
	ReadTimeout     int    `envconfig:"READ_TIMEOUT" default:"15"`
	WriteTimeout    int    `envconfig:"WRITE_TIMEOUT" default:"15"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"`
}

type AuthConfig struct {
	APIKeys []string `envconfig:"API_KEYS" default:"apitest"` // Valid API keys for admin endpoints
}

// StorageConfig selects where carts and coupons are persisted
type StorageConfig struct {
	Backend string `envconfig:"STORAGE_BACKEND" default:"memory"` // memory or redis
}

type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	KeyPrefix    string        `envconfig:"REDIS_KEY_PREFIX" default:"cart-engine"`
	CartTTL      time.Duration `envconfig:"REDIS_CART_TTL" default:"168h"`
	ReadTimeout  int           `envconfig:"REDIS_READ_TIMEOUT" default:"3"`
	WriteTimeout int           `envconfig:"REDIS_WRITE_TIMEOUT" default:"3"`
	DialTimeout  int           `envconfig:"REDIS_DIAL_TIMEOUT" default:"5"`
}

// SeedConfig points at optional YAML files (plain or gzip) for the initial catalog and coupons
type SeedConfig struct {
	ProductsFile string `envconfig:"SEED_PRODUCTS_FILE"`
	CouponsFile  string `envconfig:"SEED_COUPONS_FILE"`
}

type OrderConfig struct {
	DebitStock bool `envconfig:"ORDER_DEBIT_STOCK" default:"false"`
}

// Load reads configuration from environment variables, after applying a .env file when present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("at least one API key must be configured")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	switch c.Storage.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when STORAGE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be memory or redis)", c.Storage.Backend)
	}

	return nil
}
