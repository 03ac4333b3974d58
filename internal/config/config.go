// Package config loads application configuration from the environment.
// A .env file is honored when present; real environment variables win.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port               string
	AnalyzeConcurrency int
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// StorageConfig holds file storage settings
type StorageConfig struct {
	BasePath string
}

// Load reads configuration from the environment with defaults applied.
// Returns an error for anything that would fail later anyway, so startup
// dies early with a clear message.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Config] no .env file loaded: %v", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               envOr("PORT", "8080"),
			AnalyzeConcurrency: envIntOr("ANALYZE_CONCURRENCY", 4),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Storage: StorageConfig{
			BasePath: envOr("STORAGE_PATH", "uploads/merged"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Server.AnalyzeConcurrency < 1 {
		return fmt.Errorf("ANALYZE_CONCURRENCY must be at least 1")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[Config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
