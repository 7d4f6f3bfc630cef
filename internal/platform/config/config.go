// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs to start.
type Config struct {
	Addr string

	// DatabaseURL selects PostgreSQL persistence. Empty means in-memory
	// stores, which is how dev environments and unit tests run.
	DatabaseURL string

	// RedisURL enables the prediction cache. Empty disables caching.
	RedisURL string

	// KafkaBrokers enables the audit publisher. Empty disables publishing.
	KafkaBrokers []string
	AuditTopic   string

	JWTSigningKey string
	JWTIssuer     string
	AccessTokenTTL time.Duration

	// ModelDir holds the serialized model artifacts. Missing artifacts are
	// tolerated; the prediction service degrades to its heuristic.
	ModelDir string

	// MockMode makes the prediction endpoints return canned results without
	// touching models. Used in environments lacking trained artifacts.
	MockMode bool

	PredictionCacheTTL time.Duration
}

// FromEnv builds a Config from environment variables with dev-friendly
// defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:               envOr("HERDWATCH_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AuditTopic:         envOr("AUDIT_TOPIC", "herdwatch.audit"),
		JWTSigningKey:      envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:          envOr("JWT_ISSUER", "herdwatch"),
		AccessTokenTTL:     envDurationOr("ACCESS_TOKEN_TTL", 30*time.Minute),
		ModelDir:           envOr("MODEL_DIR", "ml/models"),
		MockMode:           os.Getenv("USE_MOCKS") == "true",
		PredictionCacheTTL: envDurationOr("PREDICTION_CACHE_TTL", 5*time.Minute),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Plain integers are treated as minutes to match the old deployment env.
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute
	}
	return fallback
}
