package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/lifedash/repositories/postgres"
	"github.com/upb/lifedash/services/audit"
	"go.uber.org/zap"
)

type stubAuditStats struct {
	stats audit.Stats
}

func (s stubAuditStats) GetStats() audit.Stats { return s.stats }

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response["data"].(map[string]interface{})
}

func newMockChecker(t *testing.T) (HealthChecker, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return postgres.NewDBFromConn(conn, zap.NewNop()), mock
}

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, nil, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeHealth(t, w)
	assert.Equal(t, "healthy", data["status"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()
	running := stubAuditStats{stats: audit.Stats{Started: true, WorkerCount: 2}}

	t.Run("healthy when database and audit logger are up", func(t *testing.T) {
		db, mock := newMockChecker(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		handler := NewHealthHandler(map[string]HealthChecker{"database": db}, running, logger)
		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeHealth(t, w)
		assert.Equal(t, "healthy", data["status"])
		checks := data["checks"].(map[string]interface{})
		assert.Equal(t, "healthy", checks["database"])
		assert.Equal(t, "running", checks["audit_logger"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy when database ping fails", func(t *testing.T) {
		db, mock := newMockChecker(t)
		mock.ExpectPing().WillReturnError(sql.ErrConnDone)

		handler := NewHealthHandler(map[string]HealthChecker{"database": db}, running, logger)
		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		data := decodeHealth(t, w)
		assert.Equal(t, "unhealthy", data["status"])
		assert.Equal(t, "unhealthy", data["checks"].(map[string]interface{})["database"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy when audit database query fails", func(t *testing.T) {
		db, mainMock := newMockChecker(t)
		mainMock.ExpectPing()
		mainMock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		auditDB, auditMock := newMockChecker(t)
		auditMock.ExpectPing()
		auditMock.ExpectQuery("SELECT 1").WillReturnError(sql.ErrConnDone)

		handler := NewHealthHandler(map[string]HealthChecker{"database": db, "audit_database": auditDB}, running, logger)
		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		checks := decodeHealth(t, w)["checks"].(map[string]interface{})
		assert.Equal(t, "healthy", checks["database"])
		assert.Equal(t, "unhealthy", checks["audit_database"])
	})

	t.Run("unhealthy when audit logger is stopped", func(t *testing.T) {
		handler := NewHealthHandler(nil, stubAuditStats{}, logger)
		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		data := decodeHealth(t, w)
		assert.Equal(t, "stopped", data["checks"].(map[string]interface{})["audit_logger"])
		assert.NotNil(t, data["audit"])
	})

	t.Run("healthy with nothing configured", func(t *testing.T) {
		handler := NewHealthHandler(map[string]HealthChecker{"database": nil}, nil, logger)
		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
