package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"finanzbuch/internal/datafile"
)

// FileEnv names the variable holding the document path.
const FileEnv = "FINANZBUCH_FILE"

type Config struct {
	// Document
	DataFile string

	// HTTP Server
	Port               string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration

	// Logging
	LogLevel string

	// SQL mirror; an empty driver disables it
	MirrorDriver string
	MirrorDSN    string

	// AMQP; an empty URL disables events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets ledger export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Worker
	ExportSchedule string
}

func Load() *Config {
	cfg := &Config{
		DataFile: getEnv(FileEnv, defaultDataFile()),

		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		MirrorDriver: strings.ToLower(getEnv("MIRROR_DRIVER", "")),
		MirrorDSN:    getEnv("MIRROR_DSN", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finanzbuch"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "depot_changes"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Ledger"),

		ExportSchedule: getEnv("EXPORT_SCHEDULE", "@monthly"),
	}

	if cfg.MirrorDriver == "sqlite" && cfg.MirrorDSN == "" {
		cfg.MirrorDSN = "./data/finanzbuch.db"
	}

	return cfg
}

// MirrorEnabled reports whether a SQL mirror is configured.
func (c *Config) MirrorEnabled() bool { return c.MirrorDriver != "" }

// AMQPEnabled reports whether depot events are published and consumed.
func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

// SheetsEnabled reports whether the ledger is exported to a spreadsheet.
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.DataFile) == "" {
		errors = append(errors, "data file path cannot be empty (set FINANZBUCH_FILE or HOME)")
	}

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	// Validate mirror
	switch c.MirrorDriver {
	case "":
	case "sqlite":
		if c.MirrorDSN == "" {
			errors = append(errors, "mirror DSN cannot be empty when using the sqlite mirror")
		} else {
			dir := filepath.Dir(c.MirrorDSN)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create mirror database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.MirrorDSN == "" {
			errors = append(errors, "mirror DSN cannot be empty when using the postgres mirror")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid mirror driver '%s': must be one of [sqlite postgres] or empty", c.MirrorDriver))
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

	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet is configured")
	}

	if _, err := cron.ParseStandard(c.ExportSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid export schedule '%s': %v", c.ExportSchedule, err))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func defaultDataFile() string {
	path, err := datafile.HomePath()
	if err != nil {
		return ""
	}
	return path
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
