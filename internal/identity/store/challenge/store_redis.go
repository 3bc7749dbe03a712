package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agora/internal/identity/models"
	"agora/pkg/platform/sentinel"
)

const (
	challengeKeyPrefix = "challenge:"
	consumedKeySuffix  = ":used"
)

// RedisStore keeps challenges in Redis with the key TTL mirroring the
// challenge TTL, so expiry-based garbage collection is free. Consumption is
// recorded in a companion marker key rather than by deleting the payload: a
// consumed challenge must stay readable until its TTL elapses so a replay
// within the window reads as consumed, not unknown. SETNX on the marker is
// the atomic winner decision across concurrent verifiers and across
// multiple instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisChallenge struct {
	Nonce      string    `json:"nonce"`
	IssuedAt   time.Time `json:"issued_at"`
	TTLSeconds int64     `json:"ttl_seconds"`
}

func (s *RedisStore) Save(ctx context.Context, ch models.Challenge) error {
	payload, err := json.Marshal(redisChallenge{
		Nonce:      ch.Nonce,
		IssuedAt:   ch.IssuedAt,
		TTLSeconds: int64(ch.TTL / time.Second),
	})
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}

	ok, err := s.client.SetNX(ctx, challengeKeyPrefix+ch.ID, payload, ch.TTL).Result()
	if err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, id string) (models.Challenge, error) {
	payload, err := s.client.Get(ctx, challengeKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return models.Challenge{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Challenge{}, fmt.Errorf("load challenge: %w", err)
	}
	ch, err := s.decode(id, payload)
	if err != nil {
		return models.Challenge{}, err
	}
	used, err := s.client.Exists(ctx, challengeKeyPrefix+id+consumedKeySuffix).Result()
	if err != nil {
		return models.Challenge{}, fmt.Errorf("load challenge state: %w", err)
	}
	ch.Consumed = used > 0
	return ch, nil
}

// Consume claims the challenge by writing its marker key with SETNX; the
// loser of a race finds the marker already present. The marker outlives the
// payload key slightly so a consumed challenge never reads as fresh.
func (s *RedisStore) Consume(ctx context.Context, id string, _ time.Time) (models.Challenge, error) {
	usedKey := challengeKeyPrefix + id + consumedKeySuffix

	payload, err := s.client.Get(ctx, challengeKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		// The payload key only disappears through TTL expiry, but the
		// marker may still be around from an earlier consumption.
		used, uerr := s.client.Exists(ctx, usedKey).Result()
		if uerr != nil {
			return models.Challenge{}, fmt.Errorf("consume challenge: %w", uerr)
		}
		if used > 0 {
			return models.Challenge{}, sentinel.ErrAlreadyUsed
		}
		return models.Challenge{}, sentinel.ErrExpired
	}
	if err != nil {
		return models.Challenge{}, fmt.Errorf("consume challenge: %w", err)
	}
	ch, err := s.decode(id, payload)
	if err != nil {
		return models.Challenge{}, err
	}

	won, err := s.client.SetNX(ctx, usedKey, 1, ch.TTL+time.Minute).Result()
	if err != nil {
		return models.Challenge{}, fmt.Errorf("consume challenge: %w", err)
	}
	if !won {
		return models.Challenge{}, sentinel.ErrAlreadyUsed
	}
	ch.Consumed = true
	return ch, nil
}

// PurgeExpired is a no-op: Redis key TTLs already reap expired challenges.
func (s *RedisStore) PurgeExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) decode(id, payload string) (models.Challenge, error) {
	var rc redisChallenge
	if err := json.Unmarshal([]byte(payload), &rc); err != nil {
		return models.Challenge{}, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return models.Challenge{
		ID:       id,
		Nonce:    rc.Nonce,
		IssuedAt: rc.IssuedAt,
		TTL:      time.Duration(rc.TTLSeconds) * time.Second,
	}, nil
}
