package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"rumclub/internal/core"
	"rumclub/internal/log"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port               string
	LoginRatePerMinute int

	// Storage
	DataBackend  string
	LedgerPath   string
	SQLiteDBPath string

	// Access gate
	PasswordHashFile string
	SessionSecret    string
	SessionTTL       time.Duration

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (optional)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	MirrorInterval           time.Duration

	// Club rules
	LifetimeFreeSurnames []string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 10),

		DataBackend:  getEnv("DATA_BACKEND", BackendFile),
		LedgerPath:   getEnv("LEDGER_PATH", "./data/ledger.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/rumclub.db"),

		PasswordHashFile: getEnv("PASSWORD_HASH_FILE", "./data/password.hash"),
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		SessionTTL:       getEnvDuration("SESSION_TTL", 12*time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "rumclub"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changed"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Trésorerie"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		MirrorInterval:           getEnvDuration("MIRROR_INTERVAL", 5*time.Minute),

		LifetimeFreeSurnames: getEnvList("LIFETIME_FREE_SURNAMES", core.DefaultLifetimeFree),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", log.FormatText),
	}

	return cfg
}

// Policy returns the club rules configured for this process.
func (c *Config) Policy() core.Policy {
	return core.Policy{LifetimeFree: append([]string{}, c.LifetimeFreeSurnames...)}
}

// SheetsEnabled reports whether the Google Sheets mirror is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
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
	validBackends := []string{BackendFile, BackendSQLite, BackendMemory}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendFile:
		if c.LedgerPath == "" {
			errors = append(errors, "ledger path cannot be empty when using file backend")
		} else if msg := ensureDir(c.LedgerPath, "ledger"); msg != "" {
			errors = append(errors, msg)
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if msg := ensureDir(c.SQLiteDBPath, "SQLite database"); msg != "" {
			errors = append(errors, msg)
		}
	}

	if c.PasswordHashFile == "" {
		errors = append(errors, "password hash file cannot be empty")
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < 32 {
		errors = append(errors, "session secret must be at least 32 characters")
	}
	if c.SessionTTL < time.Minute || c.SessionTTL > 30*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be between 1 minute and 30 days", c.SessionTTL))
	}
	if c.LoginRatePerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid login rate %d: must be at least 1 per minute", c.LoginRatePerMinute))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets configuration if the mirror is enabled
	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets mirror")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.MirrorInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 second", c.MirrorInterval))
	} else if c.MirrorInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at most 24 hours", c.MirrorInterval))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	switch c.LogFormat {
	case log.FormatText, log.FormatJSON, log.FormatTint:
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text, json or tint", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ensureDir creates the parent directory of path when missing.
func ensureDir(path, what string) string {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Sprintf("cannot create %s directory '%s': %v", what, dir, err)
		}
	}
	return ""
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string{}, defaultValue...)
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
