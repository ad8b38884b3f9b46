// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port           int
	LogLevel       string
	DevMode        bool
	MaxUploadBytes int64         // upper bound for one uploaded export file
	CacheTTL       time.Duration // how long processed imports stay retrievable
	SweepSchedule  string        // cron spec for the cache sweep job
	CORSOrigins    []string
}

// Load reads configuration from the environment. A .env file is honored when
// present but never required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           8080,
		LogLevel:       getEnv("EDGEKIT_LOG_LEVEL", "info"),
		DevMode:        getEnvBool("EDGEKIT_DEV_MODE", false),
		MaxUploadBytes: 16 << 20, // 16 MiB
		CacheTTL:       time.Hour,
		SweepSchedule:  getEnv("EDGEKIT_CACHE_SWEEP_SCHEDULE", "@every 10m"),
		CORSOrigins:    splitList(getEnv("EDGEKIT_CORS_ORIGINS", "*")),
	}

	if port := os.Getenv("EDGEKIT_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid EDGEKIT_PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	if raw := os.Getenv("EDGEKIT_MAX_UPLOAD_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid EDGEKIT_MAX_UPLOAD_BYTES %q", raw)
		}
		cfg.MaxUploadBytes = n
	}

	if raw := os.Getenv("EDGEKIT_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("invalid EDGEKIT_CACHE_TTL %q", raw)
		}
		cfg.CacheTTL = ttl
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
