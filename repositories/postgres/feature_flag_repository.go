package postgres

import (
	"context"
	"fmt"

	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"go.uber.org/zap"
)

// FeatureFlagRepository implements the repositories.FeatureFlagRepository interface
type FeatureFlagRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFeatureFlagRepository creates a new feature flag repository
func NewFeatureFlagRepository(db *DB, logger *zap.Logger) repositories.FeatureFlagRepository {
	return &FeatureFlagRepository{
		db:     db,
		logger: logger,
	}
}

// List retrieves all flag rows. Rows with unknown keys are skipped.
func (r *FeatureFlagRepository) List(ctx context.Context) ([]models.FeatureFlag, error) {
	query := `SELECT key, enabled, admin_only FROM feature_flags ORDER BY key`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list feature flags: %w", err)
	}
	defer rows.Close()

	flags := make([]models.FeatureFlag, 0)
	for rows.Next() {
		var (
			key  string
			flag models.FeatureFlag
		)
		if err := rows.Scan(&key, &flag.Enabled, &flag.AdminOnly); err != nil {
			return nil, fmt.Errorf("failed to scan feature flag: %w", err)
		}
		flag.Key = models.FeatureKey(key)
		if !flag.Key.Valid() {
			r.logger.Warn("ignoring unknown feature flag row", zap.String("key", key))
			continue
		}
		flags = append(flags, flag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feature flag rows: %w", err)
	}

	return flags, nil
}
