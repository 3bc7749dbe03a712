package service

import (
	"context"
	"errors"

	"agora/internal/participation/metrics"
	"agora/internal/participation/models"
	dErrors "agora/pkg/domain-errors"
	audit "agora/pkg/platform/audit"
	"agora/pkg/platform/sentinel"
)

// CreateTopic registers a new topic. Topic IDs are caller-chosen and
// immutable, so a duplicate is a conflict rather than an upsert.
func (s *Service) CreateTopic(ctx context.Context, t models.Topic) error {
	ctx, span := startSpan(ctx, "participation.create_topic")
	defer span.End()

	if err := s.topics.Create(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "topic already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create topic")
	}

	metrics.TopicsCreatedTotal.Inc()
	s.logger.InfoContext(ctx, "topic created",
		"topic_id", t.ID,
		"allowed_kinds", t.AllowedKinds,
	)
	s.audit(ctx, audit.Event{
		Category: audit.CategoryOperations,
		Action:   string(audit.EventTopicCreated),
		TopicID:  t.ID,
	})
	return nil
}

func (s *Service) GetTopic(ctx context.Context, topicID string) (models.Topic, error) {
	t, err := s.topics.Get(ctx, topicID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Topic{}, dErrors.New(dErrors.CodeNotFound, "topic not found")
	}
	if err != nil {
		return models.Topic{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load topic")
	}
	return t, nil
}

// ListOpenTopics returns the topics currently accepting submissions.
func (s *Service) ListOpenTopics(ctx context.Context) ([]models.Topic, error) {
	topics, err := s.topics.ListOpen(ctx, s.now())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list topics")
	}
	return topics, nil
}

// GetSubmissions lists what was recorded against a topic, optionally
// filtered to one kind (empty kind means all). The topic must exist; an
// empty ledger for a known topic is not an error.
func (s *Service) GetSubmissions(ctx context.Context, topicID string, kind models.SubmissionKind) ([]models.Submission, error) {
	ctx, span := startSpan(ctx, "participation.get_submissions")
	defer span.End()

	if _, err := s.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	subs, err := s.submissions.ListByTopic(ctx, topicID, kind)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list submissions")
	}
	return subs, nil
}

// HasSubmitted reports whether the participant already submitted this kind
// to the topic.
func (s *Service) HasSubmitted(ctx context.Context, topicID, anonymousID string, kind models.SubmissionKind) (bool, error) {
	ok, err := s.submissions.Has(ctx, topicID, anonymousID, kind)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check submission")
	}
	return ok, nil
}
