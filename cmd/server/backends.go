package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/lib/pq"

	"agora/internal/identity/registry"
	"agora/internal/identity/service"
	challengestore "agora/internal/identity/store/challenge"
	"agora/internal/participation/store/submission"
	"agora/internal/participation/store/topic"
	"agora/internal/platform/config"
	platformredis "agora/internal/platform/redis"
	"agora/pkg/platform/audit/publisher"
	kafkapublisher "agora/pkg/platform/audit/publishers/kafka"
	auditmem "agora/pkg/platform/audit/store/memory"
)

// backends bundles the storage and messaging implementations selected by
// configuration. Unconfigured backends fall back to in-memory stores.
type backends struct {
	registry    registry.Store
	challenges  service.ChallengeStore
	topics      topic.Store
	submissions submission.Store
	audit       service.AuditPublisher

	db      *sql.DB
	redis   *platformredis.Client
	closers []func()
}

func buildBackends(ctx context.Context, cfg config.Server, log *slog.Logger) (*backends, error) {
	b := &backends{}

	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		for _, schema := range []string{registry.Schema, topic.Schema, submission.Schema} {
			if _, err := db.ExecContext(ctx, schema); err != nil {
				db.Close()
				return nil, fmt.Errorf("apply schema: %w", err)
			}
		}
		b.db = db
		b.closers = append(b.closers, func() { db.Close() })
		b.registry = registry.NewPostgres(db)
		b.topics = topic.NewPostgres(db)
		b.submissions = submission.NewPostgres(db)
		log.Info("using postgres storage")
	} else {
		b.registry = registry.NewInMemory()
		b.topics = topic.NewInMemory()
		b.submissions = submission.NewInMemory()
		log.Info("using in-memory storage")
	}

	if cfg.RedisURL != "" {
		client, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			b.close()
			return nil, err
		}
		b.redis = client
		b.closers = append(b.closers, func() { client.Close() })
		b.challenges = challengestore.NewRedis(client.Client)
		log.Info("using redis challenge store")
	} else {
		b.challenges = challengestore.NewInMemory()
	}

	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafkapublisher.NewPublisher(cfg.KafkaBrokers)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		b.audit = pub
		b.closers = append(b.closers, pub.Close)
		log.Info("publishing audit events to kafka", "brokers", cfg.KafkaBrokers)
	} else {
		pub := publisher.NewPublisher(auditmem.NewInMemoryStore(), publisher.WithAsyncBuffer(256))
		b.audit = pub
		b.closers = append(b.closers, pub.Close)
	}

	return b, nil
}

// health reports backend liveness for /healthz.
func (b *backends) health(r *http.Request) error {
	ctx := r.Context()
	if b.db != nil {
		if err := b.db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if b.redis != nil {
		if err := b.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}
