package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/skillbridge-matcher/internal/models"
	appErrors "github.com/noah-isme/skillbridge-matcher/pkg/errors"
)

const profileColumns = `id, name, teaches, learns, rating, timezone, active, created_at, updated_at`

// UserProfileRepository reads the skill profiles fed into matching and search.
type UserProfileRepository struct {
	db *sqlx.DB
}

// NewUserProfileRepository constructs the repository.
func NewUserProfileRepository(db *sqlx.DB) *UserProfileRepository {
	return &UserProfileRepository{db: db}
}

// ListActive returns every active profile ordered by id.
func (r *UserProfileRepository) ListActive(ctx context.Context) ([]models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE active = TRUE ORDER BY id ASC`
	var profiles []models.UserProfile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("list active profiles: %w", err)
	}
	return profiles, nil
}

// FindByID returns a single profile.
func (r *UserProfileRepository) FindByID(ctx context.Context, id string) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE id = $1`
	var profile models.UserProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user profile not found")
		}
		return nil, fmt.Errorf("find profile %s: %w", id, err)
	}
	return &profile, nil
}

// Ping checks database reachability for readiness probes.
func (r *UserProfileRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
