package config

import (
	"log/slog"
	"os"
	"time"
)

type Config struct {
	DB_USERNAME string
	DB_PASSWORD string
	DB_HOST     string
	DB_PORT     string
	DB_NAME     string
	DISABLE_TLS string

	HTTP_ADDR       string
	ALLOWED_HEADERS string

	// Optional. Enables the distributed lock around batch jobs.
	REDIS_URL string

	// Optional YAML rename mapping consulted when task entries are read.
	RENAME_MAPPING_PATH string

	REPORT_TIMEOUT time.Duration

	// Otel
	OTEL_EXPORTER_OTLP_ENDPOINT string
	OTEL_SERVICE_NAME           string
}

func ReadConfig() *Config {
	reportTimeout := 30 * time.Second
	if raw := os.Getenv("REPORT_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			reportTimeout = d
		} else {
			slog.Warn("Ignoring invalid REPORT_TIMEOUT", slog.String("value", raw))
		}
	}

	return &Config{
		DB_USERNAME: os.Getenv("DB_USERNAME"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     os.Getenv("DB_HOST"),
		DB_PORT:     os.Getenv("DB_PORT"),
		DB_NAME:     os.Getenv("DB_NAME"),
		DISABLE_TLS: os.Getenv("DISABLE_TLS"),

		HTTP_ADDR:       GetEnvOrDefault("HTTP_ADDR", "0.0.0.0:6060"),
		ALLOWED_HEADERS: GetEnvOrDefault("ALLOWED_HEADERS", "Content-Type"),

		REDIS_URL: os.Getenv("REDIS_URL"),

		RENAME_MAPPING_PATH: os.Getenv("RENAME_MAPPING_PATH"),

		REPORT_TIMEOUT: reportTimeout,

		OTEL_EXPORTER_OTLP_ENDPOINT: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTEL_SERVICE_NAME:           GetEnvOrDefault("OTEL_SERVICE_NAME", "timesheet"),
	}
}

// DSN builds the postgres connection string shared by the pool and the LISTEN connection.
func (c *Config) DSN() string {
	str := "postgresql://" + c.DB_USERNAME + ":" + c.DB_PASSWORD + "@" + c.DB_HOST + ":" + c.DB_PORT + "/" + c.DB_NAME
	if c.DISABLE_TLS == "true" {
		str = str + "?sslmode=disable"
	}
	return str
}

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
