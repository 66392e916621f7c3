package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"go.uber.org/zap"
)

// ProfileRepository implements the repositories.ProfileRepository interface
type ProfileRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB, logger *zap.Logger) repositories.ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a profile, returning nil when the user has none
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `
		SELECT id, email, role, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	profile := &models.Profile{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.Email,
		&profile.Role,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}
