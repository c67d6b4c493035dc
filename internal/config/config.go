// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevCallbackHost is the sentinel hostname allowed when no whitelist is configured.
// It is a development fixture only; Load rejects an empty whitelist when APP_ENV=production.
const DevCallbackHost = "b4bf0fcd-1dd3-4650-92fe-d1f83885a447.mock.pstmn.io"

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :3009).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for the payment ledger and callback policies; empty disables both.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL is the Redis connection URL for the session cache (e.g. redis://localhost:6379/0).
	// Empty falls back to the in-memory store (single instance only).
	RedisURL string `mapstructure:"REDIS_URL"`
	// SessionSigningKey is the symmetric key used to sign session tokens. Required.
	SessionSigningKey string `mapstructure:"SESSION_SIGNING_KEY"`
	// InitialisedSessionTimeoutMS is the lifetime of an initialised session in milliseconds.
	InitialisedSessionTimeoutMS int64 `mapstructure:"INITIALISED_SESSION_TIMEOUT_MS"`
	// PayApiURL is the GOV.UK Pay API base URL (e.g. https://publicapi.payments.service.gov.uk/v1).
	PayApiURL string `mapstructure:"PAY_API_URL"`
	// CallbackWhitelist is a comma-separated list of hostnames allowed as session callbacks.
	// Required when APP_ENV=production; otherwise defaults to DevCallbackHost.
	CallbackWhitelist string `mapstructure:"CALLBACK_WHITELIST"`
	// FormsDir is the directory holding published form definition JSON files.
	FormsDir string `mapstructure:"FORMS_DIR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// OTLPEndpoint is the OTLP gRPC endpoint for traces/metrics/logs; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// Telemetry (optional). When Kafka brokers are set, the server emits session events to Kafka.
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for session events (default forms-runner-events).
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the telemetry worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3009")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SESSION_SIGNING_KEY", "")
	v.SetDefault("INITIALISED_SESSION_TIMEOUT_MS", int64(28*24*time.Hour/time.Millisecond))
	v.SetDefault("PAY_API_URL", "https://publicapi.payments.service.gov.uk/v1")
	v.SetDefault("CALLBACK_WHITELIST", "")
	v.SetDefault("FORMS_DIR", "forms")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "forms-runner-events")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "forms-runner-telemetry-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.SessionSigningKey == "" {
		return nil, errors.New("config: SESSION_SIGNING_KEY must be set")
	}
	if cfg.InitialisedSessionTimeoutMS <= 0 {
		return nil, errors.New("config: INITIALISED_SESSION_TIMEOUT_MS must be positive")
	}
	if cfg.CallbackWhitelist == "" && cfg.Env == "production" {
		return nil, errors.New("config: CALLBACK_WHITELIST must be set when APP_ENV=production")
	}

	return &cfg, nil
}

// SessionTimeout returns the initialised session lifetime as a time.Duration.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.InitialisedSessionTimeoutMS) * time.Millisecond
}

// CallbackWhitelistList returns the configured callback hostnames. When none are
// configured (non-production only), the dev sentinel host is returned so local
// integrations have a usable fixture.
func (c *Config) CallbackWhitelistList() []string {
	if c == nil || c.CallbackWhitelist == "" {
		return []string{DevCallbackHost}
	}
	parts := strings.Split(c.CallbackWhitelist, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
