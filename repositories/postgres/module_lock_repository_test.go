package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/lifedash/models"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewDBFromConn(conn, zap.NewNop()), mock
}

func TestModuleLockRepository_CheckLock(t *testing.T) {
	lockQuery := regexp.QuoteMeta(`SELECT locked, reason FROM module_lock_status($1, $2)`)

	t.Run("locked with reason", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewModuleLockRepository(db, zap.NewNop())

		mock.ExpectQuery(lockQuery).
			WithArgs("debts", false).
			WillReturnRows(sqlmock.NewRows([]string{"locked", "reason"}).AddRow(true, "month-end close"))

		status, err := repo.CheckLock(context.Background(), models.ModuleDebts, false)
		require.NoError(t, err)
		assert.True(t, status.Locked)
		assert.Equal(t, "month-end close", status.Reason)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bypass is forwarded to the procedure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewModuleLockRepository(db, zap.NewNop())

		mock.ExpectQuery(lockQuery).
			WithArgs("tasks", true).
			WillReturnRows(sqlmock.NewRows([]string{"locked", "reason"}).AddRow(false, nil))

		status, err := repo.CheckLock(context.Background(), models.ModuleTasks, true)
		require.NoError(t, err)
		assert.False(t, status.Locked)
		assert.Empty(t, status.Reason)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("procedure error is returned", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewModuleLockRepository(db, zap.NewNop())

		cause := errors.New("canceling statement due to statement timeout")
		mock.ExpectQuery(lockQuery).WithArgs("tasks", false).WillReturnError(cause)

		status, err := repo.CheckLock(context.Background(), models.ModuleTasks, false)
		assert.Nil(t, status)
		assert.ErrorIs(t, err, cause)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestModuleLockRepository_Get(t *testing.T) {
	query := regexp.QuoteMeta(`FROM module_locks`)
	columns := []string{"module_key", "locked", "reason", "locked_by", "updated_at"}

	t.Run("existing row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewModuleLockRepository(db, zap.NewNop())
		adminID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(query).
			WithArgs("debts").
			WillReturnRows(sqlmock.NewRows(columns).AddRow("debts", true, "month-end close", adminID.String(), now))

		lock, err := repo.Get(context.Background(), models.ModuleDebts)
		require.NoError(t, err)
		require.NotNil(t, lock)
		assert.Equal(t, models.ModuleDebts, lock.ModuleKey)
		assert.True(t, lock.Locked)
		assert.Equal(t, "month-end close", lock.ReasonText())
		require.NotNil(t, lock.LockedBy)
		assert.Equal(t, adminID, *lock.LockedBy)
	})

	t.Run("missing row is nil", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewModuleLockRepository(db, zap.NewNop())

		mock.ExpectQuery(query).WithArgs("notes").WillReturnRows(sqlmock.NewRows(columns))

		lock, err := repo.Get(context.Background(), models.ModuleNotes)
		require.NoError(t, err)
		assert.Nil(t, lock)
	})
}

func TestModuleLockRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewModuleLockRepository(db, zap.NewNop())
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY module_key`)).
		WillReturnRows(sqlmock.NewRows([]string{"module_key", "locked", "reason", "locked_by", "updated_at"}).
			AddRow("debts", true, "audit", nil, now).
			AddRow("tasks", false, nil, nil, now))

	locks, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, locks, 2)
	assert.Equal(t, models.ModuleDebts, locks[0].ModuleKey)
	assert.False(t, locks[1].Locked)
	assert.Nil(t, locks[1].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleLockRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewModuleLockRepository(db, zap.NewNop())
	adminID := uuid.New()
	lock := models.NewModuleLock(models.ModuleDebts, true, "month-end close", &adminID)
	updatedAt := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (module_key) DO UPDATE`)).
		WithArgs("debts", true, "month-end close", adminID).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updatedAt))

	require.NoError(t, repo.Upsert(context.Background(), lock))
	assert.Equal(t, updatedAt, lock.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
