package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/logout"
	"github.com/aussiebroadwan/portal/internal/portal/resilience"
	"github.com/aussiebroadwan/portal/internal/portal/session"
	"github.com/aussiebroadwan/portal/pkg/httpx"
)

type Config struct {
	APIURL        string // Required: base URL of the employee API (default: http://localhost:3000/api)
	DatabaseFile  string // Optional: path to SQLite file for persisted session keys (default: ./portal.db)
	MasterKeyPath string // Optional: path to the key sealing persisted tokens
	MasterKeyEnv  string // Optional: env var holding the sealing key (default: PORTAL_MASTER_KEY)
	Embedded      bool   // Running inside a host frame (default: false)
	Referrer      string // Optional: URL of the embedding host, used for its origin
	LoginPath     string // Where a standalone logout navigates (default: /login)
	Env           string // Environment (dev, staging, prod) (default: dev)
	LogLevel      string // Log level (debug, info, warn, error) (default: info)
	LogFormat     string // Log format (json, text) (default: json)
	Port          int    // Shell HTTP port (default: 8090)

	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	Session    session.Config
	Resilience resilience.Config
	Logout     logout.Config
}

func LoadConfig() Config {
	sess := session.DefaultConfig()
	sess.InactivityBudget = getEnvDurationOrDefault("PORTAL_INACTIVITY_BUDGET", sess.InactivityBudget)
	sess.LastChanceWindow = getEnvDurationOrDefault("PORTAL_LAST_CHANCE_WINDOW", sess.LastChanceWindow)
	sess.WarningCountdown = getEnvDurationOrDefault("PORTAL_WARNING_COUNTDOWN", sess.WarningCountdown)
	sess.RefreshTimeout = getEnvDurationOrDefault("PORTAL_REFRESH_TIMEOUT", sess.RefreshTimeout)

	res := resilience.DefaultConfig()
	res.RateLimit = httpx.ParseRateLimitFromEnv("API", httpx.APILimit)
	res.Breaker.Threshold = getEnvIntOrDefault("PORTAL_BREAKER_THRESHOLD", res.Breaker.Threshold)
	res.Breaker.Timeout = getEnvDurationOrDefault("PORTAL_BREAKER_TIMEOUT", res.Breaker.Timeout)

	cfg := Config{
		APIURL:              getEnvOrDefault("PORTAL_API_URL", "http://localhost:3000/api"),
		DatabaseFile:        getEnvOrDefault("PORTAL_DATABASE_FILE", "portal.db"),
		MasterKeyPath:       os.Getenv("PORTAL_MASTER_KEY_PATH"),
		MasterKeyEnv:        getEnvOrDefault("PORTAL_MASTER_KEY_ENV", "PORTAL_MASTER_KEY"),
		Embedded:            getEnvBoolOrDefault("PORTAL_EMBEDDED", false),
		Referrer:            os.Getenv("PORTAL_REFERRER"),
		LoginPath:           getEnvOrDefault("PORTAL_LOGIN_PATH", "/login"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8090),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		Session:             sess,
		Resilience:          res,
	}

	cfg.Logout = logout.DefaultConfig()
	cfg.Logout.Embedded = cfg.Embedded
	cfg.Logout.Referrer = cfg.Referrer
	cfg.Logout.LoginPath = cfg.LoginPath

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
