// Package service implements the submission ledger: topic lifecycle and the
// one-submission-per-(topic, participant, kind) rule. Every submission is
// gated by a fresh challenge-response verification, so the ledger only ever
// sees authenticated anonymous IDs.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	identitymodels "agora/internal/identity/models"
	"agora/internal/participation/models"
	"agora/internal/participation/store/submission"
	"agora/internal/participation/store/topic"
	dErrors "agora/pkg/domain-errors"
	audit "agora/pkg/platform/audit"
)

var tracer = otel.Tracer("agora/internal/participation")

// IdentityVerifier is the challenge-response step of Submit, satisfied by
// the identity service.
type IdentityVerifier interface {
	Verify(ctx context.Context, challengeID, signature, claimedID string) (identitymodels.VerificationResult, error)
}

// EnrollmentRegistry exposes the enrollment state the ledger reads: the
// active count for Stats and the per-participant activity re-check on
// Submit.
type EnrollmentRegistry interface {
	IsActive(ctx context.Context, anonymousID string) (bool, error)
	ActiveCount(ctx context.Context) (int, error)
}

// AuditPublisher emits audit events for ledger operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service wires the topic catalogue, the submission store, and the identity
// protocol into the participation API.
type Service struct {
	topics      topic.Store
	submissions submission.Store
	identity    IdentityVerifier
	enrollments EnrollmentRegistry

	now       func() time.Time
	logger    *slog.Logger
	publisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithClock overrides the time source, used by closing-time tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(topics topic.Store, submissions submission.Store, identity IdentityVerifier, enrollments EnrollmentRegistry, opts ...Option) (*Service, error) {
	if topics == nil {
		return nil, fmt.Errorf("topic store is required")
	}
	if submissions == nil {
		return nil, fmt.Errorf("submission store is required")
	}
	if identity == nil {
		return nil, fmt.Errorf("identity verifier is required")
	}
	if enrollments == nil {
		return nil, fmt.Errorf("enrollment registry is required")
	}

	svc := &Service{
		topics:      topics,
		submissions: submissions,
		identity:    identity,
		enrollments: enrollments,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Stats aggregates the public counters. The three counts are independent
// reads, so they fan out concurrently.
func (s *Service) Stats(ctx context.Context) (models.StatsResponse, error) {
	ctx, span := startSpan(ctx, "participation.stats")
	defer span.End()

	var stats models.StatsResponse
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.enrollments.ActiveCount(ctx)
		stats.EnrolledParticipants = n
		return err
	})
	g.Go(func() error {
		n, err := s.topics.Count(ctx)
		stats.TotalTopics = n
		return err
	})
	g.Go(func() error {
		n, err := s.submissions.Count(ctx)
		stats.TotalSubmissions = n
		return err
	})
	if err := g.Wait(); err != nil {
		return models.StatsResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate stats")
	}
	return stats, nil
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
