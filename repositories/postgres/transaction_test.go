package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"go.uber.org/zap"
)

func TestTransactionManager_InTransactionCommits(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db, zap.NewNop())
	tasks := NewTaskRepository(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
		_, inTx := GetTransactionFromContext(ctx)
		assert.True(t, inTx)
		return tasks.Create(ctx, models.NewTask(uuid.New(), "inside tx", ""))
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_InTransactionRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db, zap.NewNop())
	cause := errors.New("mutation failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tm.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
		return cause
	})

	assert.ErrorIs(t, err, cause)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransaction_ContextCarriesTx(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := tm.Begin(context.Background())
	require.NoError(t, err)

	fromCtx, ok := GetTransactionFromContext(tx.Context())
	require.True(t, ok)
	assert.Same(t, tx, fromCtx)

	_, ok = GetTransactionFromContext(context.Background())
	assert.False(t, ok)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, tx.Rollback(), "rollback after close is a no-op")
}
