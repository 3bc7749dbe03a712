package submission

import (
	"context"

	"agora/internal/participation/models"
)

// Store persists submissions and enforces the one-per-(topic, participant,
// kind) rule at the storage layer, so concurrent writers race on the store's
// own atomicity rather than on a check in the service.
type Store interface {
	// Record appends a submission. It returns sentinel.ErrConflict when the
	// same participant already submitted this kind to this topic.
	Record(ctx context.Context, sub models.Submission) error

	// ListByTopic returns a topic's submissions in insertion order. An
	// empty kind lists every kind; otherwise only matching submissions.
	ListByTopic(ctx context.Context, topicID string, kind models.SubmissionKind) ([]models.Submission, error)

	// Has reports whether the participant already submitted this kind to
	// the topic.
	Has(ctx context.Context, topicID, anonymousID string, kind models.SubmissionKind) (bool, error)

	// Count returns the total number of submissions across all topics.
	Count(ctx context.Context) (int, error)
}
