package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/internal/platform/config"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.PostgresURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Minute, cfg.ChallengeTTL)
	assert.Equal(t, "ed25519", cfg.CredentialScheme)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AGORA_ADDR", ":9090")
	t.Setenv("AGORA_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("AGORA_CHALLENGE_TTL", "90s")
	t.Setenv("AGORA_CREDENTIAL_SCHEME", "hmac")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90*time.Second, cfg.ChallengeTTL)
	assert.Equal(t, "hmac", cfg.CredentialScheme)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Run("malformed ttl", func(t *testing.T) {
		t.Setenv("AGORA_CHALLENGE_TTL", "soon")
		_, err := config.FromEnv()
		require.Error(t, err)
	})

	t.Run("negative ttl", func(t *testing.T) {
		t.Setenv("AGORA_CHALLENGE_TTL", "-1m")
		_, err := config.FromEnv()
		require.Error(t, err)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		t.Setenv("AGORA_CREDENTIAL_SCHEME", "rot13")
		_, err := config.FromEnv()
		require.Error(t, err)
	})
}
