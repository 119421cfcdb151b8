package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

var validBackends = []string{BackendMemory, BackendSQLite}

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend string
	// DataDir holds the optional expenses.json seed for the memory backend.
	DataDir string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Sync worker
	SyncInterval  time.Duration
	SyncBatchSize int

	// HTTP protections and caching
	RateLimitPerMinute int
	CacheTTL           time.Duration
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend: getEnv("DATA_BACKEND", BackendMemory),
		DataDir:     getEnv("DATA_DIR", "./data"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expenses.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expenses"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_expenses"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Expenses"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 50),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CacheTTL:           getEnvDuration("CACHE_TTL", 30*time.Second),
	}
}

// problems collects validation failures so they can be reported together.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err(title string) error {
	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("%s:\n- %s", title, strings.Join(p, "\n- "))
}

// Validate checks the server configuration and reports every problem at once.
// With the sqlite backend it also creates the database directory.
func (c *Config) Validate() error {
	var p problems

	if port, err := strconv.Atoi(c.Port); err != nil {
		p.addf("invalid port '%s': must be a number", c.Port)
	} else if port < 1 || port > 65535 {
		p.addf("invalid port %d: must be between 1 and 65535", port)
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		p.addf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel)
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		p.addf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends)
	}
	if c.DataBackend == BackendSQLite {
		c.checkSQLitePath(&p)
	}

	c.checkAMQP(&p)

	if c.RateLimitPerMinute < 1 {
		p.addf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute)
	}
	if c.CacheTTL < 0 {
		p.addf("invalid cache TTL %v: must not be negative", c.CacheTTL)
	}
	return p.err("configuration validation failed")
}

func (c *Config) checkSQLitePath(p *problems) {
	if c.SQLiteDBPath == "" {
		p.addf("SQLite database path cannot be empty when using sqlite backend")
		return
	}
	dir := filepath.Dir(c.SQLiteDBPath)
	if dir == "." || dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.addf("cannot create SQLite database directory '%s': %v", dir, err)
	}
}

// ValidateWorker checks what the sync worker needs: a sqlite store to read
// from, a queue to consume and a spreadsheet to write to.
func (c *Config) ValidateWorker() error {
	var p problems

	if c.SQLiteDBPath == "" {
		p.addf("SQLITE_DB_PATH is required for the sync worker")
	}
	if c.AMQPURL == "" {
		p.addf("AMQP_URL is required for the sync worker")
	}
	c.checkAMQP(&p)

	if c.GoogleSpreadsheetID == "" {
		p.addf("GOOGLE_SPREADSHEET_ID is required for the sync worker")
	}
	if c.GoogleSheetName == "" {
		p.addf("GOOGLE_SHEET_NAME is required for the sync worker")
	}
	switch {
	case c.GoogleServiceAccountFile != "":
		if _, err := os.Stat(c.GoogleServiceAccountFile); errors.Is(err, fs.ErrNotExist) {
			p.addf("Google service account file does not exist: %s", c.GoogleServiceAccountFile)
		}
	case c.GoogleServiceAccountJSON == "":
		p.addf("either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided")
	}

	if c.SyncInterval <= 0 {
		p.addf("invalid sync interval %v: must be positive", c.SyncInterval)
	}
	if c.SyncBatchSize < 1 {
		p.addf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize)
	}
	return p.err("worker configuration validation failed")
}

// checkAMQP only applies when a broker URL is set.
func (c *Config) checkAMQP(p *problems) {
	if c.AMQPURL == "" {
		return
	}
	if u, err := url.Parse(c.AMQPURL); err != nil {
		p.addf("invalid AMQP URL '%s': %v", c.AMQPURL, err)
	} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
		p.addf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme)
	}
	if c.AMQPExchange == "" {
		p.addf("AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		p.addf("AMQP queue name cannot be empty when AMQP URL is provided")
	}
}

func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	if raw := os.Getenv(key); raw != "" {
		if v, err := parse(raw); err == nil {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	return lookup(key, def, func(s string) (string, error) { return s, nil })
}

func getEnvInt(key string, def int) int {
	return lookup(key, def, strconv.Atoi)
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	return lookup(key, def, time.ParseDuration)
}
