// Package topic stores topic definitions. Topics are written once at
// creation and read on every submission, so stores optimize for concurrent
// reads.
package topic

import (
	"context"
	"time"

	"agora/internal/participation/models"
)

// Store is the topic lifecycle contract.
type Store interface {
	// Create registers a topic. Returns sentinel.ErrConflict if the ID
	// already exists.
	Create(ctx context.Context, t models.Topic) error

	// Get returns a topic by ID, or sentinel.ErrNotFound.
	Get(ctx context.Context, id string) (models.Topic, error)

	// IsOpen reports whether the topic exists and accepts submissions at now.
	IsOpen(ctx context.Context, id string, now time.Time) (bool, error)

	// ListOpen returns all topics accepting submissions at now.
	ListOpen(ctx context.Context, now time.Time) ([]models.Topic, error)

	// Count returns the total number of topics.
	Count(ctx context.Context) (int, error)
}
