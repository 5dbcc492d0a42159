package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabaseURL    string
	DatabasePath   string
	MigrationsPath string

	// Reconciliation cadences. The fast path merges remote student records
	// and pending rewards; the review path re-checks grading decisions.
	FastSyncInterval   time.Duration
	ReviewSyncInterval time.Duration

	// Remote system of record
	RemoteBaseURL      string
	RemoteTimeout      time.Duration
	RemoteTokenURL     string
	RemoteClientID     string
	RemoteClientSecret string

	// Auth
	JWTSecret     string
	TokenDuration time.Duration

	// Guardian notifications
	SESRegion         string
	SESFromEmail      string
	SESFromName       string
	AppBaseURL        string
	LowScoreThreshold int

	Debug bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabaseURL:    getEnv("DB_URL", ""),
		DatabasePath:   getEnv("DB_PATH", "./classcoins.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		FastSyncInterval:   getEnvDuration("SYNC_INTERVAL", 3*time.Second),
		ReviewSyncInterval: getEnvDuration("REVIEW_SYNC_INTERVAL", 5*time.Second),

		RemoteBaseURL:      getEnv("REMOTE_BASE_URL", ""),
		RemoteTimeout:      getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),
		RemoteTokenURL:     getEnv("REMOTE_TOKEN_URL", ""),
		RemoteClientID:     getEnv("REMOTE_CLIENT_ID", ""),
		RemoteClientSecret: getEnv("REMOTE_CLIENT_SECRET", ""),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenDuration: getEnvDuration("TOKEN_DURATION", 24*time.Hour),

		SESRegion:         getEnv("SES_REGION", "eu-west-1"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "ClassCoins"),
		AppBaseURL:        getEnv("APP_BASE_URL", "http://localhost:8080"),
		LowScoreThreshold: getEnvInt("LOW_SCORE_THRESHOLD", 60),

		Debug: getEnv("DEBUG", "") == "true",
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration reads a duration environment variable (e.g. "3s", "1m")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
