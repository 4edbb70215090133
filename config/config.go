package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the dashboard service
type Config struct {
	// Server configuration
	Host string
	Port string

	// Survey backend
	NSVAPIURL      string
	BackendTimeout time.Duration

	// List view
	ListPageSize  int
	LoadMoreDelay time.Duration

	// Video polling and sync
	VideoPollInterval  time.Duration
	SyncMatchThreshold float64

	// Rate limiting (requests per minute per client IP)
	RateLimitRPM int

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		// Server defaults
		Host: getEnv("HOST", "0.0.0.0"),
		Port: getEnv("PORT", "8080"),

		// Backend defaults
		NSVAPIURL:      getEnv("NSV_API_URL", "http://localhost:8000"),
		BackendTimeout: getDurationEnv("BACKEND_TIMEOUT", 30*time.Second),

		// List defaults (50 items per page, 500ms append delay)
		ListPageSize:  getIntEnv("LIST_PAGE_SIZE", 50),
		LoadMoreDelay: getDurationEnv("LOAD_MORE_DELAY", 500*time.Millisecond),

		// Video defaults (2 second poll, 50 meter match threshold)
		VideoPollInterval:  getDurationEnv("VIDEO_POLL_INTERVAL", 2*time.Second),
		SyncMatchThreshold: getFloatEnv("SYNC_MATCH_THRESHOLD_M", 50),

		// Rate limiting defaults
		RateLimitRPM: getIntEnv("RATE_LIMIT_RPM", 300),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return config
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
