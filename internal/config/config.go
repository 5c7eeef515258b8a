package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port     string
	LogLevel string

	StorageDriver string
	DatabaseURL   string
	QueryTimeout  time.Duration

	// Circuit breaker guarding the store
	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration

	ShutdownTimeout time.Duration
}

// Load reads the configuration from the environment. It panics when
// DATABASE_URL is unset and the postgres driver is selected.
func Load() Config {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		StorageDriver:       strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		QueryTimeout:        getEnvDuration("QUERY_TIMEOUT", 5*time.Second),
		BreakerMaxFailures:  getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerResetTimeout: getEnvDuration("BREAKER_RESET_TIMEOUT", 30*time.Second),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	switch cfg.StorageDriver {
	case DriverMemory:
	case DriverPostgres:
		cfg.DatabaseURL = getEnvRequired("DATABASE_URL")
	default:
		panic("unsupported STORAGE_DRIVER " + strconv.Quote(cfg.StorageDriver))
	}
	return cfg
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic("required environment variable " + key + " is not set")
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return n
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return d
	}
	return fallback
}
