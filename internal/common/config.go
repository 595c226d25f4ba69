package common

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	History HistoryConfig
	Server  ServerConfig
	Browser BrowserConfig
	Inbox   InboxConfig
	Timing  TimingConfig
	// TablesPath points to an optional YAML file with label/unit equivalence classes.
	TablesPath string
}

// HistoryConfig holds fill-pass history database configuration.
// An empty DSN disables history.
type HistoryConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// BrowserConfig holds the page-integration settings.
type BrowserConfig struct {
	DebuggerURL  string
	ChromeBin    string
	Headless     bool
	PageMatch    string
	KeyboardNav  bool
	ReadyTimeout time.Duration
}

// InboxConfig holds the watched-directory trigger settings.
type InboxConfig struct {
	Dirs     []string
	Debounce time.Duration
}

// TimingConfig holds the commit protocol bounds and pacing.
type TimingConfig struct {
	ActivationTimeout time.Duration
	ConfirmTimeout    time.Duration
	PollInterval      time.Duration
	KeyDelay          time.Duration
	EntryDelay        time.Duration
	HighlightDuration time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		History: HistoryConfig{
			DSN:             getEnv("NUTRIFILL_DB_URL", ""),
			MaxConns:        getEnvAsInt32("NUTRIFILL_DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt32("NUTRIFILL_DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("NUTRIFILL_DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("NUTRIFILL_DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("NUTRIFILL_DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("NUTRIFILL_GRPC_ADDR", ":8087"),
		},
		Browser: BrowserConfig{
			DebuggerURL:  getEnv("NUTRIFILL_CDP_URL", ""),
			ChromeBin:    getEnv("NUTRIFILL_CHROME_BIN", ""),
			Headless:     getEnvAsBool("NUTRIFILL_HEADLESS", false),
			PageMatch:    getEnv("NUTRIFILL_PAGE_MATCH", "custom-foods"),
			KeyboardNav:  getEnvAsBool("NUTRIFILL_KEYBOARD_NAV", true),
			ReadyTimeout: getEnvAsDuration("NUTRIFILL_READY_TIMEOUT", 30*time.Second),
		},
		Inbox: InboxConfig{
			Dirs:     getEnvAsList("NUTRIFILL_INBOX"),
			Debounce: getEnvAsDuration("NUTRIFILL_INBOX_DEBOUNCE", 300*time.Millisecond),
		},
		Timing: TimingConfig{
			ActivationTimeout: getEnvAsDuration("NUTRIFILL_ACTIVATION_TIMEOUT", time.Second),
			ConfirmTimeout:    getEnvAsDuration("NUTRIFILL_CONFIRM_TIMEOUT", time.Second),
			PollInterval:      getEnvAsDuration("NUTRIFILL_POLL_INTERVAL", 50*time.Millisecond),
			KeyDelay:          getEnvAsDuration("NUTRIFILL_KEY_DELAY", 30*time.Millisecond),
			EntryDelay:        getEnvAsDuration("NUTRIFILL_ENTRY_DELAY", 150*time.Millisecond),
			HighlightDuration: getEnvAsDuration("NUTRIFILL_HIGHLIGHT_DURATION", time.Second),
		},
		TablesPath: getEnv("NUTRIFILL_TABLES", ""),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a path-list style variable (":" on unix, ";" on windows).
func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, p := range filepath.SplitList(value) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("NUTRIFILL_PAGE_MATCH", c.Browser.PageMatch, Required).
		Field("NUTRIFILL_ACTIVATION_TIMEOUT", c.Timing.ActivationTimeout, PositiveDuration).
		Field("NUTRIFILL_CONFIRM_TIMEOUT", c.Timing.ConfirmTimeout, PositiveDuration).
		Field("NUTRIFILL_POLL_INTERVAL", c.Timing.PollInterval, PositiveDuration).
		Field("NUTRIFILL_KEY_DELAY", c.Timing.KeyDelay, NonNegativeDuration).
		Field("NUTRIFILL_ENTRY_DELAY", c.Timing.EntryDelay, NonNegativeDuration).
		Field("NUTRIFILL_HIGHLIGHT_DURATION", c.Timing.HighlightDuration, NonNegativeDuration)
	if c.History.DSN != "" {
		v.Field("NUTRIFILL_DB_URL", c.History.DSN, DSNScheme)
	}
	if v.HasErrors() {
		return ConfigError(v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// ValidateServer checks the settings only the daemon needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.GRPCAddr == "" {
		return ConfigError("NUTRIFILL_GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
