// Package config builds runtime configuration from the environment so main
// stays lean. Backends are optional: unset URLs mean in-memory stores, which
// is the development default.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr             string
	PostgresURL      string
	RedisURL         string
	KafkaBrokers     []string
	ChallengeTTL     time.Duration
	CredentialScheme string // "ed25519" (default) or "hmac" (dev only)
	ShutdownTimeout  time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:             envOr("AGORA_ADDR", ":8080"),
		PostgresURL:      os.Getenv("AGORA_POSTGRES_URL"),
		RedisURL:         os.Getenv("AGORA_REDIS_URL"),
		CredentialScheme: envOr("AGORA_CREDENTIAL_SCHEME", "ed25519"),
		ChallengeTTL:     5 * time.Minute,
		ShutdownTimeout:  10 * time.Second,
	}

	if brokers := os.Getenv("AGORA_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if ttl := os.Getenv("AGORA_CHALLENGE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Server{}, fmt.Errorf("parse AGORA_CHALLENGE_TTL: %w", err)
		}
		if d <= 0 {
			return Server{}, fmt.Errorf("AGORA_CHALLENGE_TTL must be positive, got %s", d)
		}
		cfg.ChallengeTTL = d
	}

	switch cfg.CredentialScheme {
	case "ed25519", "hmac":
	default:
		return Server{}, fmt.Errorf("unknown AGORA_CREDENTIAL_SCHEME %q", cfg.CredentialScheme)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
