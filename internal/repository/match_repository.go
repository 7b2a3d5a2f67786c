package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/skillbridge-matcher/internal/models"
)

// MatchRepository persists recommended pairs.
type MatchRepository struct {
	db *sqlx.DB
}

// NewMatchRepository builds the repository.
func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BeginTxx starts a transaction for batch inserts.
func (r *MatchRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// InsertBatch stores the matches of one run. Missing ids, statuses and timestamps
// are filled in place.
func (r *MatchRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, matches []models.Match) error {
	if len(matches) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO matches (id, run_id, user_a, user_b, weight, rank, strategy, status, created_at)
VALUES (:id, :run_id, :user_a, :user_b, :weight, :rank, :strategy, :status, :created_at)`

	for i := range matches {
		m := &matches[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Status == "" {
			m.Status = models.MatchStatusPending
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, m); err != nil {
			return fmt.Errorf("insert match %s/%s: %w", m.UserA, m.UserB, err)
		}
	}
	return nil
}

// ListByUser returns the matches a user takes part in, newest first.
func (r *MatchRepository) ListByUser(ctx context.Context, userID string) ([]models.Match, error) {
	const query = `SELECT id, run_id, user_a, user_b, weight, rank, strategy, status, created_at
FROM matches WHERE user_a = $1 OR user_b = $1 ORDER BY created_at DESC, rank ASC`
	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, query, userID); err != nil {
		return nil, fmt.Errorf("list matches for %s: %w", userID, err)
	}
	return matches, nil
}
