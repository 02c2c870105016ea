package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Document under observation
	DocumentFile    string // path to the conversation HTML file watched for mutations
	ConversationURL string // URL identity of the watched conversation
	ProfileFile     string // path to the marker profile yaml (optional, empty = built-in markers)
	ReloadInterval  time.Duration // interval to reload the marker profile (default: 24h)

	// Extraction / navigation behavior
	DebounceWindow    time.Duration // mutation debounce before re-extraction (default: 500ms)
	HighlightDuration time.Duration // transient highlight lifetime (default: 3s)
	NavigationSettle  time.Duration // wait after cross-conversation navigation (default: 2s)
	RestoreAttempts   int           // bounded retries when relocating content (default: 3)
	RestoreBackoff    time.Duration // wait between relocation attempts (default: 2s)
	RelayTimeout      time.Duration // upper bound on cross-context request/response (default: 2s)

	// Recent-conversation housekeeping
	RecentRetention time.Duration // drop recent-conversation entries older than this (default: 720h)
	SweepInterval   time.Duration // interval between housekeeping passes (default: 24h)

	// Redis (optional; empty addr selects the in-memory store)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("COMPASS_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("COMPASS_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("COMPASS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("COMPASS_PRETTY_LOG", true),

		// Document
		DocumentFile:    requireEnv("COMPASS_DOCUMENT_FILE"),
		ConversationURL: requireEnv("COMPASS_CONVERSATION_URL"),
		ProfileFile:     getenv("COMPASS_PROFILE_FILE", ""), // Optional, empty = built-in markers
		ReloadInterval:  mustDuration("COMPASS_RELOAD_PROFILE_INTERVAL", 24*time.Hour),

		// Extraction / navigation
		DebounceWindow:    mustDuration("COMPASS_DEBOUNCE_WINDOW", 500*time.Millisecond),
		HighlightDuration: mustDuration("COMPASS_HIGHLIGHT_DURATION", 3*time.Second),
		NavigationSettle:  mustDuration("COMPASS_NAVIGATION_SETTLE", 2*time.Second),
		RestoreAttempts:   getenvInt("COMPASS_RESTORE_ATTEMPTS", 3),
		RestoreBackoff:    mustDuration("COMPASS_RESTORE_BACKOFF", 2*time.Second),
		RelayTimeout:      mustDuration("COMPASS_RELAY_TIMEOUT", 2*time.Second),

		// Housekeeping
		RecentRetention: mustDuration("COMPASS_RECENT_RETENTION", 30*24*time.Hour),
		SweepInterval:   mustDuration("COMPASS_SWEEP_INTERVAL", 24*time.Hour),

		// Redis settings
		RedisAddr:           getenv("COMPASS_REDIS_ADDR", ""),
		RedisUser:           getenv("COMPASS_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("COMPASS_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("COMPASS_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
	}

	if cfg.RestoreAttempts < 1 {
		cfg.RestoreAttempts = 1
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
