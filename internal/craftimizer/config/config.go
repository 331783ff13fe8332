// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Port        int
	DBPath      string
	LogLevel    string
	SyncOnStart bool
	SyncBaseURL string
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:      getEnv("DB_PATH", "data/catalog.db"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		SyncBaseURL: getEnv("SYNC_BASE_URL", ""),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	syncStr := getEnv("SYNC_ON_START", "true")
	syncOnStart, err := strconv.ParseBool(syncStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_ON_START value: %w", err)
	}
	cfg.SyncOnStart = syncOnStart

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
