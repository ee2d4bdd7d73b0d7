// Package config handles configuration loading for the chat service.
package config

import (
	"os"

	"github.com/pkg/errors"
)

// Config holds all configuration for the service. Values are read from the
// environment once at startup.
type Config struct {
	Addr           string
	DatabaseDriver string
	DatabaseURL    string
	OpenAIKey      string
	OpenAIModel    string
	CookieSecret   string
	LogLevel       string
}

// Load reads configuration from environment variables. A missing completion
// API key is a fatal startup condition, not a per-request error.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:           getEnv("ADDR", ":8080"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabaseURL:    getEnv("DATABASE_URL", "bartchat.db"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    os.Getenv("OPENAI_MODEL"),
		CookieSecret:   os.Getenv("COOKIE_SECRET"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
	if cfg.OpenAIKey == "" {
		return nil, errors.New("config: OPENAI_API_KEY is required")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
