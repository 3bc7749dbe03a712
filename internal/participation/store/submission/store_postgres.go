package submission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"agora/internal/participation/models"
	"agora/pkg/platform/sentinel"
)

// PostgresStore delegates the one-per-(topic, participant, kind) rule to a
// unique index, so concurrent inserts are serialized by the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const Schema = `
CREATE TABLE IF NOT EXISTS submissions (
    id           TEXT PRIMARY KEY,
    topic_id     TEXT NOT NULL,
    anonymous_id TEXT NOT NULL,
    kind         TEXT NOT NULL,
    content      TEXT NOT NULL,
    submitted_at TIMESTAMPTZ NOT NULL,
    UNIQUE (topic_id, anonymous_id, kind)
);`

func (s *PostgresStore) Record(ctx context.Context, sub models.Submission) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, topic_id, anonymous_id, kind, content, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.TopicID, sub.AnonymousID, string(sub.Kind), sub.Content, sub.SubmittedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTopic(ctx context.Context, topicID string, kind models.SubmissionKind) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic_id, anonymous_id, kind, content, submitted_at
		 FROM submissions
		 WHERE topic_id = $1 AND ($2 = '' OR kind = $2)
		 ORDER BY submitted_at, id`, topicID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		var sub models.Submission
		var kind string
		if err := rows.Scan(&sub.ID, &sub.TopicID, &sub.AnonymousID, &kind, &sub.Content, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.Kind = models.SubmissionKind(kind)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *PostgresStore) Has(ctx context.Context, topicID, anonymousID string, kind models.SubmissionKind) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM submissions
		     WHERE topic_id = $1 AND anonymous_id = $2 AND kind = $3
		 )`, topicID, anonymousID, string(kind)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check submission: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}
