package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Backend selection
	DataBackend string

	// Backend specific
	DataDir      string
	SQLiteDBPath string
	DatabaseURL  string
	RedisURL     string

	// Ledger
	LedgerKey        string
	LedgerStrictLoad bool

	// View
	ClockInterval  time.Duration
	ViewConfigFile string

	// Logging
	LogLevel string
}

// ValidBackends lists the accepted DATA_BACKEND values
var ValidBackends = []string{"memory", "file", "sqlite", "postgres", "redis"}

var ledgerKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		DataBackend: getEnv("DATA_BACKEND", "file"),

		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/gastos.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		RedisURL:     getEnv("REDIS_URL", ""),

		LedgerKey:        getEnv("LEDGER_KEY", "gastosCasa"),
		LedgerStrictLoad: getEnvBool("LEDGER_STRICT_LOAD", true),

		ClockInterval:  getEnvDuration("CLOCK_INTERVAL", time.Second),
		ViewConfigFile: getEnv("VIEW_CONFIG_FILE", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	isValidBackend := false
	for _, backend := range ValidBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, ValidBackends))
	}

	switch c.DataBackend {
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	case "redis":
		if c.RedisURL == "" {
			errors = append(errors, "REDIS_URL is required when using redis backend")
		}
	}

	if !ledgerKeyPattern.MatchString(c.LedgerKey) {
		errors = append(errors, fmt.Sprintf("invalid ledger key '%s': only letters, digits, '.', '_' and '-' are allowed", c.LedgerKey))
	}

	if c.ClockInterval < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid clock interval %v: must be at least 100ms", c.ClockInterval))
	} else if c.ClockInterval > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid clock interval %v: must be at most 1 minute", c.ClockInterval))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if c.ViewConfigFile != "" {
		if _, err := os.Stat(c.ViewConfigFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("view config file does not exist: %s", c.ViewConfigFile))
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
