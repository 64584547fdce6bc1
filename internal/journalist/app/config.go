package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer        string // Issuer claim for session tokens and the TOTP issuer label
	SessionSecret string // Required: HMAC secret for session tokens
	SessionTTL    time.Duration

	DatabaseFile    string // Path to SQLite database file (default: ./journalist.db)
	DataDir         string // Root directory of stored submissions (default: ./data)
	KeysDir         string // Directory of per-collection reply keypairs (default: ./keys)
	NewsroomKeyPath string // Optional: armored institutional public key
	PepperFile      string // Path to the password hashing pepper file (default: ./pepper)

	LoginThreshold int           // Failed logins before throttling (default: 5)
	LoginCooldown  time.Duration // Throttle window after repeated failures (default: 60s)

	Workers     int           // Background erasure workers (default: 2)
	QueueDepth  int           // Background task queue depth (default: 64)
	TaskTimeout time.Duration // Per-task deadline (default: 5m)

	Env                 string // Environment (dev, staging, prod) (default: dev)
	LogLevel            string // Log level (debug, info, warn, error) (default: info)
	LogFormat           string // Log format (json, text) (default: json)
	Port                int    // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:        getEnvOrDefault("JOURNALIST_ISSUER", "sourcedesk"),
		SessionSecret: os.Getenv("JOURNALIST_SESSION_SECRET"),
		SessionTTL:    getEnvDurationOrDefault("JOURNALIST_SESSION_TTL", 2*time.Hour),

		DatabaseFile:    getEnvOrDefault("JOURNALIST_DATABASE_FILE", "journalist.db"),
		DataDir:         getEnvOrDefault("JOURNALIST_DATA_DIR", "data"),
		KeysDir:         getEnvOrDefault("JOURNALIST_KEYS_DIR", "keys"),
		NewsroomKeyPath: os.Getenv("JOURNALIST_NEWSROOM_KEY"),
		PepperFile:      getEnvOrDefault("JOURNALIST_PEPPER_FILE", "pepper"),

		LoginThreshold: getEnvIntOrDefault("JOURNALIST_LOGIN_THRESHOLD", 5),
		LoginCooldown:  getEnvDurationOrDefault("JOURNALIST_LOGIN_COOLDOWN", 60*time.Second),

		Workers:     getEnvIntOrDefault("JOURNALIST_WORKERS", 2),
		QueueDepth:  getEnvIntOrDefault("JOURNALIST_QUEUE_DEPTH", 64),
		TaskTimeout: getEnvDurationOrDefault("JOURNALIST_TASK_TIMEOUT", 5*time.Minute),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are read as seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
