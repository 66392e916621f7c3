package featureflags

import (
	"context"
	"fmt"
	"os"

	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Source yields the flag table for one request
type Source interface {
	Snapshot(ctx context.Context) (models.FeatureFlags, error)
}

// StaticSource serves a table fixed at startup
type StaticSource struct {
	flags models.FeatureFlags
}

// NewStaticSource creates a static source over a copy of flags
func NewStaticSource(flags models.FeatureFlags) *StaticSource {
	return &StaticSource{flags: flags.Clone()}
}

// Snapshot returns a copy of the static table
func (s *StaticSource) Snapshot(ctx context.Context) (models.FeatureFlags, error) {
	return s.flags.Clone(), nil
}

// fileConfig is the on-disk flag table layout
type fileConfig struct {
	Flags []models.FeatureFlag `yaml:"flags"`
}

// LoadFile reads a YAML flag table and overlays it on Defaults.
// An empty path returns the defaults. Unknown keys are a configuration error.
func LoadFile(path string) (models.FeatureFlags, error) {
	flags := Defaults()
	if path == "" {
		return flags, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature flags file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse feature flags file: %w", err)
	}

	for _, flag := range cfg.Flags {
		if !flag.Key.Valid() {
			return nil, fmt.Errorf("feature flags file: unknown feature %q", flag.Key)
		}
		flags[flag.Key] = flag
	}

	return flags, nil
}

// RepositorySource reads operator-managed rows per request; rows override the base table
type RepositorySource struct {
	base   Source
	repo   repositories.FeatureFlagRepository
	logger *zap.Logger
}

// NewRepositorySource creates a database-backed source
func NewRepositorySource(base Source, repo repositories.FeatureFlagRepository, logger *zap.Logger) *RepositorySource {
	return &RepositorySource{base: base, repo: repo, logger: logger}
}

// Snapshot merges the database rows over the base table
func (s *RepositorySource) Snapshot(ctx context.Context) (models.FeatureFlags, error) {
	flags, err := s.base.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("feature flag snapshot failed", zap.Error(err))
		return nil, fmt.Errorf("failed to load feature flags: %w", err)
	}

	for _, row := range rows {
		flags[row.Key] = row
	}
	return flags, nil
}
