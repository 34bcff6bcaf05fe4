// Package config loads dues service configuration from environment
// variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/membertools/dues/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Notifier NotifierConfig
	Billing  BillingConfig

	LogLevel observability.LogLevel
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds the optional redis connection backing the distributed
// pass lock. Leave URL empty to use the in-process lock.
type RedisConfig struct {
	URL     string
	LockKey string
	LockTTL time.Duration
}

// NotifierConfig holds delivery provider configuration
type NotifierConfig struct {
	APIKey  string
	BaseURL string
}

// BillingConfig holds billing amounts and reconciliation tuning
type BillingConfig struct {
	AnnualFeeCents  int64
	MonthlyFeeCents int64
	ReminderLead    int // days before due date
	Schedule        string
	Workers         int
	ItemTimeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("DUES_HOST", "0.0.0.0"),
			Port:            getEnv("DUES_PORT", "8080"),
			ReadTimeout:     getEnvDuration("DUES_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("DUES_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("DUES_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("DUES_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("DUES_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:         getEnv("DUES_DATABASE_URL", "postgres://localhost/dues?sslmode=disable"),
			MaxConns:    getEnvInt("DUES_DB_MAX_CONNS", 10),
			MinConns:    getEnvInt("DUES_DB_MIN_CONNS", 2),
			Timeout:     getEnvDuration("DUES_DB_TIMEOUT", 5*time.Second),
			MaxLifetime: getEnvDuration("DUES_DB_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:     getEnv("DUES_REDIS_URL", ""),
			LockKey: getEnv("DUES_REDIS_LOCK_KEY", "dues:reconciler:lock"),
			LockTTL: getEnvDuration("DUES_REDIS_LOCK_TTL", 10*time.Minute),
		},
		Notifier: NotifierConfig{
			APIKey:  getEnv("DUES_NOTIFIER_API_KEY", ""),
			BaseURL: getEnv("DUES_NOTIFIER_URL", "https://api.novu.co"),
		},
		Billing: BillingConfig{
			AnnualFeeCents:  getEnvInt64("DUES_ANNUAL_FEE_CENTS", 50000),
			MonthlyFeeCents: getEnvInt64("DUES_MONTHLY_FEE_CENTS", 30000),
			ReminderLead:    getEnvInt("DUES_REMINDER_LEAD_DAYS", 7),
			Schedule:        getEnv("DUES_RECONCILE_SCHEDULE", "0 6 * * *"),
			Workers:         getEnvInt("DUES_RECONCILE_WORKERS", 4),
			ItemTimeout:     getEnvDuration("DUES_RECONCILE_ITEM_TIMEOUT", 30*time.Second),
		},
		LogLevel: observability.ParseLogLevel(getEnv("DUES_LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if c.Billing.AnnualFeeCents <= 0 || c.Billing.MonthlyFeeCents <= 0 {
		return fmt.Errorf("billing fees must be positive")
	}
	if c.Billing.ReminderLead <= 0 {
		return fmt.Errorf("reminder lead days must be positive")
	}
	if c.Billing.Workers <= 0 {
		return fmt.Errorf("reconcile workers must be positive")
	}
	return nil
}

// getEnv returns an environment variable or a default
func getEnv(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, def int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, def int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, def time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return def
}
