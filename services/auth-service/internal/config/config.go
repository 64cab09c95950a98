// Package config centralises configuration parsing for the auth service.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures runtime configuration values for the auth service.
type Config struct {
	HTTPAddress   string
	MongoURI      string
	MongoDatabase string
	KafkaBrokers  []string
	JWTSecret     string
	JWTIssuer     string
	TokenTTL      time.Duration
}

// Load reads environment variables into Config, applying sensible defaults
// for local dev.
func Load() Config {
	return Config{
		HTTPAddress:   getEnv("HTTP_ADDRESS", ":8000"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "auth"),
		KafkaBrokers:  splitAndTrim(getEnv("KAFKA_BROKERS", "127.0.0.1:9092")),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:     getEnv("JWT_ISSUER", "auth-service"),
		TokenTTL:      getDurationEnv("TOKEN_TTL", 15*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
