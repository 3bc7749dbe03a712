package topic

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"agora/internal/participation/models"
	"agora/pkg/platform/sentinel"
)

// PostgresStore backs topics with a table; ID uniqueness rides on the
// primary key.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const Schema = `
CREATE TABLE IF NOT EXISTS topics (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    closes_at     TIMESTAMPTZ,
    allowed_kinds TEXT[] NOT NULL,
    vote_options  TEXT[] NOT NULL DEFAULT '{}'
);`

func (s *PostgresStore) Create(ctx context.Context, t models.Topic) error {
	kinds := make([]string, len(t.AllowedKinds))
	for i, k := range t.AllowedKinds {
		kinds[i] = string(k)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO topics (id, title, description, closes_at, allowed_kinds, vote_options)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Title, t.Description, t.ClosesAt, pq.Array(kinds), pq.Array(t.VoteOptions),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert topic: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.Topic, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, closes_at, allowed_kinds, vote_options
		 FROM topics WHERE id = $1`, id)
	return scanTopic(row.Scan)
}

func (s *PostgresStore) IsOpen(ctx context.Context, id string, now time.Time) (bool, error) {
	var open bool
	err := s.db.QueryRowContext(ctx,
		`SELECT closes_at IS NULL OR closes_at > $2 FROM topics WHERE id = $1`,
		id, now,
	).Scan(&open)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check topic open: %w", err)
	}
	return open, nil
}

func (s *PostgresStore) ListOpen(ctx context.Context, now time.Time) ([]models.Topic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, closes_at, allowed_kinds, vote_options
		 FROM topics WHERE closes_at IS NULL OR closes_at > $1 ORDER BY id`, now)
	if err != nil {
		return nil, fmt.Errorf("list open topics: %w", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		t, err := scanTopic(rows.Scan)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM topics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count topics: %w", err)
	}
	return n, nil
}

func scanTopic(scan func(...any) error) (models.Topic, error) {
	var t models.Topic
	var kinds, options []string
	err := scan(&t.ID, &t.Title, &t.Description, &t.ClosesAt, pq.Array(&kinds), pq.Array(&options))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Topic{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Topic{}, fmt.Errorf("scan topic: %w", err)
	}
	t.AllowedKinds = make([]models.SubmissionKind, len(kinds))
	for i, k := range kinds {
		t.AllowedKinds[i] = models.SubmissionKind(k)
	}
	t.VoteOptions = options
	return t, nil
}
