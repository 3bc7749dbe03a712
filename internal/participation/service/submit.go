package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"agora/internal/participation/metrics"
	"agora/internal/participation/models"
	dErrors "agora/pkg/domain-errors"
	audit "agora/pkg/platform/audit"
	"agora/pkg/platform/sentinel"
)

// SubmitCommand carries one submission attempt together with its
// challenge-response proof.
type SubmitCommand struct {
	AnonymousID string
	ChallengeID string
	Signature   string
	TopicID     string
	Kind        models.SubmissionKind
	Content     string
}

// Submit authenticates the participant and records the submission. The
// checks run in a fixed order: verification, enrollment activity, topic
// existence, closing time, kind, vote choice, then the append. The challenge is consumed by the
// verification step, so a rejected submission still costs its challenge;
// callers retry with a fresh one.
//
// The duplicate check is not a separate step: the store's atomic append is
// the enforcement point, so two concurrent submissions for one (topic,
// participant, kind) key resolve to exactly one recorded row.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (models.Submission, error) {
	ctx, span := startSpan(ctx, "participation.submit")
	defer span.End()

	result, err := s.identity.Verify(ctx, cmd.ChallengeID, cmd.Signature, cmd.AnonymousID)
	if err != nil {
		return models.Submission{}, err
	}
	if !result.Verified {
		metrics.SubmissionsTotal.WithLabelValues("verification_failed").Inc()
		return models.Submission{}, dErrors.Newf(dErrors.CodeForbidden, "verification failed: %s", result.Reason)
	}

	// Verify already rejects revoked enrollments, but a revocation can land
	// after the challenge check; re-read the registry right before writing.
	active, err := s.enrollments.IsActive(ctx, cmd.AnonymousID)
	if err != nil {
		return models.Submission{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check enrollment")
	}
	if !active {
		metrics.SubmissionsTotal.WithLabelValues("verification_failed").Inc()
		return models.Submission{}, dErrors.New(dErrors.CodeForbidden, "enrollment is not active")
	}

	t, err := s.GetTopic(ctx, cmd.TopicID)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return models.Submission{}, err
	}
	if !t.Open(s.now()) {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return models.Submission{}, dErrors.New(dErrors.CodeInvalidState, "topic is closed")
	}
	if !t.Allows(cmd.Kind) {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return models.Submission{}, dErrors.Newf(dErrors.CodeInvalidInput, "topic does not accept %s submissions", cmd.Kind)
	}
	if cmd.Kind == models.KindVote && !t.AllowsVoteChoice(cmd.Content) {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return models.Submission{}, dErrors.New(dErrors.CodeInvalidInput, "invalid vote choice")
	}

	sub := models.Submission{
		ID:          uuid.NewString(),
		TopicID:     cmd.TopicID,
		AnonymousID: cmd.AnonymousID,
		Kind:        cmd.Kind,
		Content:     cmd.Content,
		SubmittedAt: s.now(),
	}
	if err := s.submissions.Record(ctx, sub); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			metrics.SubmissionsTotal.WithLabelValues("duplicate").Inc()
			return models.Submission{}, dErrors.New(dErrors.CodeConflict, "duplicate submission")
		}
		return models.Submission{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record submission")
	}

	metrics.SubmissionsTotal.WithLabelValues("recorded").Inc()
	s.logger.InfoContext(ctx, "submission recorded",
		"topic_id", sub.TopicID,
		"anonymous_id", sub.AnonymousID,
		"kind", sub.Kind,
	)
	s.audit(ctx, audit.Event{
		Category:    audit.CategoryCompliance,
		AnonymousID: sub.AnonymousID,
		Action:      string(audit.EventSubmissionRecorded),
		TopicID:     sub.TopicID,
		Kind:        string(sub.Kind),
	})
	return sub, nil
}
