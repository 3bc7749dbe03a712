package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"agora/internal/identity/models"
	"agora/pkg/platform/sentinel"
)

// PostgresStore backs the registry with a credentials table. Uniqueness of
// both keys is enforced by database constraints, so concurrent registrations
// race safely: the loser surfaces sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is applied by migrations in deployments and by test setup in
// integration suites.
const Schema = `
CREATE TABLE IF NOT EXISTS credentials (
    anonymous_id TEXT PRIMARY KEY,
    public_key   TEXT NOT NULL UNIQUE,
    factors      TEXT[] NOT NULL,
    enrolled_at  TIMESTAMPTZ NOT NULL,
    revoked      BOOLEAN NOT NULL DEFAULT FALSE
);`

func (s *PostgresStore) Register(ctx context.Context, cred models.Credential) error {
	factors := make([]string, len(cred.Factors))
	for i, f := range cred.Factors {
		factors[i] = string(f)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (anonymous_id, public_key, factors, enrolled_at, revoked)
		 VALUES ($1, $2, $3, $4, $5)`,
		cred.AnonymousID, cred.PublicKey, pq.Array(factors), cred.EnrolledAt, cred.Revoked,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) Lookup(ctx context.Context, anonymousID string) (models.Credential, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT anonymous_id, public_key, factors, enrolled_at, revoked
		 FROM credentials WHERE anonymous_id = $1`, anonymousID))
}

func (s *PostgresStore) LookupByPublicKey(ctx context.Context, publicKey string) (models.Credential, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT anonymous_id, public_key, factors, enrolled_at, revoked
		 FROM credentials WHERE public_key = $1`, publicKey))
}

func (s *PostgresStore) scanOne(row *sql.Row) (models.Credential, error) {
	var cred models.Credential
	var factors []string
	err := row.Scan(&cred.AnonymousID, &cred.PublicKey, pq.Array(&factors), &cred.EnrolledAt, &cred.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Credential{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Credential{}, fmt.Errorf("scan credential: %w", err)
	}
	cred.Factors = make([]models.FactorKind, len(factors))
	for i, f := range factors {
		cred.Factors[i] = models.FactorKind(f)
	}
	return cred, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, anonymousID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE credentials SET revoked = TRUE WHERE anonymous_id = $1`, anonymousID)
	if err != nil {
		return false, fmt.Errorf("revoke credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke credential: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) IsActive(ctx context.Context, anonymousID string) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx,
		`SELECT NOT revoked FROM credentials WHERE anonymous_id = $1`, anonymousID,
	).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check active: %w", err)
	}
	return active, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count credentials: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ActiveCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM credentials WHERE NOT revoked`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active credentials: %w", err)
	}
	return n, nil
}
