// Package config centralises configuration parsing for the cruddur backend.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures runtime configuration values for the backend binaries.
type Config struct {
	HTTPAddress     string
	MetricsAddress  string
	PostgresURL     string
	FrontendURL     string
	KafkaBrokers    []string
	ConsumerTopics  []string
	ConsumerGroupID string
	JWTSecret       string
	JWTIssuer       string
	ServiceName     string
	TracingEnabled  bool
	ShutdownTimeout time.Duration
	LogLevel        string
	LogPretty       bool
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	return load(viper.New())
}

func load(v *viper.Viper) Config {
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDRESS", ":4567")
	v.SetDefault("METRICS_ADDRESS", ":9102")
	v.SetDefault("CONNECTION_URL", "postgresql://postgres:password@db:5432/cruddur?sslmode=disable")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("KAFKA_BROKERS", "kafka:9092")
	v.SetDefault("CONSUMER_TOPICS", "activity_events")
	v.SetDefault("CONSUMER_GROUP_ID", "cruddur-activity-ingest")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("OTEL_SERVICE_NAME", "backend-go")
	v.SetDefault("OTEL_TRACING_ENABLED", false)
	v.SetDefault("SHUTDOWN_TIMEOUT", 15*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)

	return Config{
		HTTPAddress:     v.GetString("HTTP_ADDRESS"),
		MetricsAddress:  v.GetString("METRICS_ADDRESS"),
		PostgresURL:     v.GetString("CONNECTION_URL"),
		FrontendURL:     v.GetString("FRONTEND_URL"),
		KafkaBrokers:    splitAndTrim(v.GetString("KAFKA_BROKERS")),
		ConsumerTopics:  splitAndTrim(v.GetString("CONSUMER_TOPICS")),
		ConsumerGroupID: v.GetString("CONSUMER_GROUP_ID"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTIssuer:       v.GetString("JWT_ISSUER"),
		ServiceName:     v.GetString("OTEL_SERVICE_NAME"),
		TracingEnabled:  v.GetBool("OTEL_TRACING_ENABLED"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogPretty:       v.GetBool("LOG_PRETTY"),
	}
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
