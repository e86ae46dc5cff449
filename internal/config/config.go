package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tsdash/internal/core"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Dataset
	DataSeed      int64
	DataBackend   string
	SQLiteDBPath  string
	HistogramBins int

	// View cache
	CacheSize int
	CacheTTL  time.Duration

	// AMQP; an empty URL disables exports.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export target
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Export worker
	ExportBatchSize int
	SyncInterval    time.Duration

	LogLevel string

	// parse problems found by Load, reported by Validate
	loadErrors []string
}

func Load() *Config {
	cfg := &Config{
		Port:                getEnv("PORT", "8081"),
		DataBackend:         getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath:        getEnv("SQLITE_DB_PATH", "./data/tsdash.db"),
		AMQPURL:             os.Getenv("AMQP_URL"),
		AMQPExchange:        getEnv("AMQP_EXCHANGE", "tsdash"),
		AMQPQueue:           getEnv("AMQP_QUEUE", "export_requests"),
		GoogleSpreadsheetID: os.Getenv("GOOGLE_SPREADSHEET_ID"),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Export"),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	cfg.DataSeed = cfg.seedFromEnv("DATA_SEED", core.DefaultSeed)
	cfg.RateLimitPerMinute = cfg.intFromEnv("RATE_LIMIT_PER_MINUTE", 60)
	cfg.HistogramBins = cfg.intFromEnv("HISTOGRAM_BINS", 20)
	cfg.CacheSize = cfg.intFromEnv("CACHE_SIZE", 100)
	cfg.CacheTTL = cfg.durationFromEnv("CACHE_TTL", 5*time.Minute)
	cfg.ExportBatchSize = cfg.intFromEnv("EXPORT_BATCH_SIZE", 10)
	cfg.SyncInterval = cfg.durationFromEnv("SYNC_INTERVAL", 30*time.Second)

	return cfg
}

// ExportsEnabled reports whether an AMQP broker is configured.
func (c *Config) ExportsEnabled() bool {
	return c.AMQPURL != ""
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	errors := append([]string(nil), c.loadErrors...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendMemory, BackendSQLite:
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendMemory, BackendSQLite))
	}

	// Export jobs live in SQLite, so the path matters for either reason.
	if c.DataBackend == BackendSQLite || c.ExportsEnabled() {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend or exports")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.ExportsEnabled() {
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

	errors = checkRange(errors, "histogram bins", c.HistogramBins, 1, 200)
	errors = checkRange(errors, "cache size", c.CacheSize, 1, 10000)
	errors = checkRange(errors, "rate limit per minute", c.RateLimitPerMinute, 1, 10000)
	errors = checkRange(errors, "export batch size", c.ExportBatchSize, 1, 1000)

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func checkRange(errors []string, name string, v, lo, hi int) []string {
	if v < lo {
		return append(errors, fmt.Sprintf("invalid %s %d: must be at least %d", name, v, lo))
	}
	if v > hi {
		return append(errors, fmt.Sprintf("invalid %s %d: must be at most %d", name, v, hi))
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) seedFromEnv(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	seed, err := core.ParseSeed(value)
	if err != nil {
		c.loadErrors = append(c.loadErrors, fmt.Sprintf("invalid %s '%s': must be an integer", key, value))
		return defaultValue
	}
	return seed
}

func (c *Config) intFromEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		c.loadErrors = append(c.loadErrors, fmt.Sprintf("invalid %s '%s': must be a number", key, value))
		return defaultValue
	}
	return i
}

func (c *Config) durationFromEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		c.loadErrors = append(c.loadErrors, fmt.Sprintf("invalid %s '%s': must be a duration", key, value))
		return defaultValue
	}
	return d
}
