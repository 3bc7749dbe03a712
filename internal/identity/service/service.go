// Package service implements the identity protocol: enrollment of anonymous
// credentials, single-use challenge issuance, and challenge-response
// verification. Storage and transport live in other layers; this package
// owns the protocol ordering and its security invariants.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"agora/internal/identity/crypto"
	"agora/internal/identity/models"
	"agora/internal/identity/registry"
	audit "agora/pkg/platform/audit"
)

// DefaultChallengeTTL bounds how long a device has to sign a nonce.
const DefaultChallengeTTL = 300 * time.Second

var tracer = otel.Tracer("agora/internal/identity")

// ChallengeStore is the transient challenge table. Consume must be atomic
// per challenge: of concurrent calls for one ID, at most one succeeds.
type ChallengeStore interface {
	Save(ctx context.Context, ch models.Challenge) error
	Find(ctx context.Context, id string) (models.Challenge, error)
	Consume(ctx context.Context, id string, now time.Time) (models.Challenge, error)
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// AuditPublisher emits audit events for identity lifecycle operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service wires the registry, the challenge table, and the credential
// scheme into the enrollment and verification protocols.
type Service struct {
	registry   registry.Store
	challenges ChallengeStore
	keys       crypto.KeyGenerator
	verifier   crypto.Verifier

	challengeTTL time.Duration
	now          func() time.Time
	logger       *slog.Logger
	publisher    AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithChallengeTTL(ttl time.Duration) Option {
	return func(s *Service) { s.challengeTTL = ttl }
}

// WithClock overrides the time source, used by expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(reg registry.Store, challenges ChallengeStore, scheme crypto.Scheme, opts ...Option) (*Service, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if challenges == nil {
		return nil, fmt.Errorf("challenge store is required")
	}
	if scheme == nil {
		return nil, fmt.Errorf("credential scheme is required")
	}

	svc := &Service{
		registry:     reg,
		challenges:   challenges,
		keys:         scheme,
		verifier:     scheme,
		challengeTTL: DefaultChallengeTTL,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// PurgeExpiredChallenges sweeps the challenge table. Called from a
// background ticker; backends with native TTLs report zero removals.
func (s *Service) PurgeExpiredChallenges(ctx context.Context) (int, error) {
	return s.challenges.PurgeExpired(ctx, s.now())
}

func (s *Service) audit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}
