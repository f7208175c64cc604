package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type envConfig struct {
	APP_PORT         string
	ZMEMORY_BASE_URL string
	ZMEMORY_TIMEOUT  time.Duration
	AUTH_REFRESH_URL string
	AUTH_API_KEY     string
	TOKEN_TTL        time.Duration
	LOG_FILE_PATH    string
	LOG_LEVEL        string
}

// DefaultEnvConfig holds the process configuration after LoadEnvConfig.
var DefaultEnvConfig envConfig

// LoadEnvConfig reads .env (when present) and the process environment into
// DefaultEnvConfig. Only ZMEMORY_BASE_URL is mandatory; everything else has a
// workable default.
func LoadEnvConfig() error {
	// .env is a development convenience; in deployment the environment is set
	// by the platform and the file is absent.
	_ = godotenv.Load()

	DefaultEnvConfig = envConfig{
		APP_PORT:         getEnv("APP_PORT", "8080"),
		ZMEMORY_BASE_URL: os.Getenv("ZMEMORY_BASE_URL"),
		ZMEMORY_TIMEOUT:  getEnvDuration("ZMEMORY_TIMEOUT", 30*time.Second),
		AUTH_REFRESH_URL: os.Getenv("AUTH_REFRESH_URL"),
		AUTH_API_KEY:     os.Getenv("AUTH_API_KEY"),
		TOKEN_TTL:        getEnvDuration("TOKEN_TTL", 55*time.Minute),
		LOG_FILE_PATH:    os.Getenv("LOG_FILE_PATH"),
		LOG_LEVEL:        getEnv("LOG_LEVEL", "info"),
	}

	if DefaultEnvConfig.ZMEMORY_BASE_URL == "" {
		return fmt.Errorf("ZMEMORY_BASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Plain integers are seconds, matching how the web app configured timeouts.
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
