package featureflags

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/lifedash/models"
	"go.uber.org/zap"
)

func TestCanSeeFeature(t *testing.T) {
	flags := models.FeatureFlags{
		models.FeatureTasksModule:   {Key: models.FeatureTasksModule, Enabled: true},
		models.FeatureFinanceModule: {Key: models.FeatureFinanceModule, Enabled: false},
		models.FeatureAuditViewer:   {Key: models.FeatureAuditViewer, Enabled: true, AdminOnly: true},
	}

	tests := []struct {
		name    string
		key     models.FeatureKey
		isAdmin bool
		want    bool
	}{
		{"enabled for user", models.FeatureTasksModule, false, true},
		{"enabled for admin", models.FeatureTasksModule, true, true},
		{"disabled for user", models.FeatureFinanceModule, false, false},
		{"disabled for admin", models.FeatureFinanceModule, true, true},
		{"admin-only for user", models.FeatureAuditViewer, false, false},
		{"admin-only for admin", models.FeatureAuditViewer, true, true},
		{"unknown key for user", models.FeatureKey("beta"), false, false},
		{"unknown key for admin", models.FeatureKey("beta"), true, false},
		{"missing row", models.FeatureNotesModule, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanSeeFeature(flags, tt.key, tt.isAdmin))
		})
	}
}

func TestCanSeeFeature_Pure(t *testing.T) {
	flags := Defaults()
	before := flags.Clone()

	for i := 0; i < 3; i++ {
		assert.True(t, CanSeeFeature(flags, models.FeatureTasksModule, false))
	}
	assert.Equal(t, before, flags)
}

func TestVisibility(t *testing.T) {
	visible := Visibility(Defaults(), false)

	assert.Len(t, visible, len(models.FeatureKeys))
	assert.True(t, visible[models.FeatureTasksModule])
	assert.False(t, visible[models.FeatureAuditViewer])
	assert.True(t, Visibility(Defaults(), true)[models.FeatureAuditViewer])
}

func TestFeatureForModule(t *testing.T) {
	for _, module := range models.ModuleKeys {
		key, ok := FeatureForModule(module)
		assert.True(t, ok, module)
		assert.True(t, key.Valid(), module)
	}

	key, _ := FeatureForModule(models.ModuleDebts)
	assert.Equal(t, models.FeatureFinanceModule, key)

	_, ok := FeatureForModule(models.ModuleKey("payroll"))
	assert.False(t, ok)
}

func TestStaticSource_SnapshotIsACopy(t *testing.T) {
	source := NewStaticSource(Defaults())

	first, err := source.Snapshot(context.Background())
	require.NoError(t, err)
	first[models.FeatureTasksModule] = models.FeatureFlag{Key: models.FeatureTasksModule}

	second, err := source.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, second[models.FeatureTasksModule].Enabled)
}

func TestLoadFile(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		flags, err := LoadFile("")
		require.NoError(t, err)
		assert.Equal(t, Defaults(), flags)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flags.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
flags:
  - key: finance_module
    enabled: false
  - key: notes_module
    enabled: true
    admin_only: true
`), 0o600))

		flags, err := LoadFile(path)
		require.NoError(t, err)
		assert.False(t, flags[models.FeatureFinanceModule].Enabled)
		assert.True(t, flags[models.FeatureNotesModule].AdminOnly)
		assert.True(t, flags[models.FeatureTasksModule].Enabled)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flags.yaml")
		require.NoError(t, os.WriteFile(path, []byte("flags:\n  - key: beta_dashboard\n    enabled: true\n"), 0o600))

		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "beta_dashboard")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flags.yaml")
		require.NoError(t, os.WriteFile(path, []byte("flags: [unclosed"), 0o600))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}

type mockFlagRepository struct {
	mock.Mock
}

func (m *mockFlagRepository) List(ctx context.Context) ([]models.FeatureFlag, error) {
	args := m.Called(ctx)
	if flags := args.Get(0); flags != nil {
		return flags.([]models.FeatureFlag), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRepositorySource_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("rows override base", func(t *testing.T) {
		repo := new(mockFlagRepository)
		repo.On("List", ctx).Return([]models.FeatureFlag{
			{Key: models.FeatureFinanceModule, Enabled: false},
		}, nil)
		source := NewRepositorySource(NewStaticSource(Defaults()), repo, zap.NewNop())

		flags, err := source.Snapshot(ctx)
		require.NoError(t, err)
		assert.False(t, flags[models.FeatureFinanceModule].Enabled)
		assert.True(t, flags[models.FeatureTasksModule].Enabled)
		repo.AssertExpectations(t)
	})

	t.Run("repository failure is returned", func(t *testing.T) {
		repo := new(mockFlagRepository)
		repo.On("List", ctx).Return(nil, errors.New("connection refused"))
		source := NewRepositorySource(NewStaticSource(Defaults()), repo, zap.NewNop())

		flags, err := source.Snapshot(ctx)
		assert.Nil(t, flags)
		assert.Error(t, err)
	})

	t.Run("read on every call", func(t *testing.T) {
		repo := new(mockFlagRepository)
		repo.On("List", ctx).Return([]models.FeatureFlag{}, nil).Twice()
		source := NewRepositorySource(NewStaticSource(Defaults()), repo, zap.NewNop())

		_, _ = source.Snapshot(ctx)
		_, _ = source.Snapshot(ctx)
		repo.AssertNumberOfCalls(t, "List", 2)
	})
}
