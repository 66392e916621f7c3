package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"github.com/upb/lifedash/services/featureflags"
	"go.uber.org/zap"
)

type MockAuditReader struct {
	mock.Mock
}

func (m *MockAuditReader) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	args := m.Called(ctx, id)
	if l := args.Get(0); l != nil {
		return l.(*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditReader) List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditLog, error) {
	args := m.Called(ctx, filter)
	if l := args.Get(0); l != nil {
		return l.([]*models.AuditLog), args.Error(1)
	}
	return nil, args.Error(1)
}

var defaultFlags = featureflags.NewStaticSource(featureflags.Defaults())

func auditRouter(h *AuditHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/audit/logs", h.HandleList)
	r.Get("/audit/logs/{id}", h.HandleGet)
	return r
}

func TestAuditHandler_List(t *testing.T) {
	actorID := uuid.New()

	t.Run("filters are passed through", func(t *testing.T) {
		reader := new(MockAuditReader)
		want := models.AuditFilter{
			EntityType:  "debts",
			Action:      "debts.update",
			ActorUserID: &actorID,
			Limit:       25,
		}
		reader.On("List", mock.Anything, want).Return([]*models.AuditLog{}, nil)
		h := NewAuditHandler(reader, defaultFlags, zap.NewNop())

		path := "/audit/logs?module=debts&action=debts.update&actor_id=" + actorID.String() + "&limit=25"
		w := httptest.NewRecorder()
		auditRouter(h).ServeHTTP(w, asPrincipal(httptest.NewRequest(http.MethodGet, path, nil), testAdmin))

		assert.Equal(t, http.StatusOK, w.Code)
		reader.AssertExpectations(t)
	})

	t.Run("invalid actor id", func(t *testing.T) {
		reader := new(MockAuditReader)
		h := NewAuditHandler(reader, defaultFlags, zap.NewNop())

		w := httptest.NewRecorder()
		auditRouter(h).ServeHTTP(w, asPrincipal(httptest.NewRequest(http.MethodGet, "/audit/logs?actor_id=bob", nil), testAdmin))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		reader.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		reader := new(MockAuditReader)
		reader.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
		h := NewAuditHandler(reader, defaultFlags, zap.NewNop())

		w := httptest.NewRecorder()
		auditRouter(h).ServeHTTP(w, asPrincipal(httptest.NewRequest(http.MethodGet, "/audit/logs", nil), testAdmin))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAuditHandler_Get(t *testing.T) {
	id := uuid.New()

	reader := new(MockAuditReader)
	reader.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound).Once()
	reader.On("GetByID", mock.Anything, id).Return(&models.AuditLog{ID: id, Action: "tasks.create"}, nil).Once()
	h := NewAuditHandler(reader, defaultFlags, zap.NewNop())

	w := httptest.NewRecorder()
	auditRouter(h).ServeHTTP(w, asPrincipal(httptest.NewRequest(http.MethodGet, "/audit/logs/"+id.String(), nil), testAdmin))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	auditRouter(h).ServeHTTP(w, asPrincipal(httptest.NewRequest(http.MethodGet, "/audit/logs/"+id.String(), nil), testAdmin))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	auditRouter(h).ServeHTTP(w, asPrincipal(httptest.NewRequest(http.MethodGet, "/audit/logs/nope", nil), testAdmin))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuditHandler_ViewerFeature(t *testing.T) {
	disabledViewer := featureflags.Defaults()
	flag := disabledViewer[models.FeatureAuditViewer]
	flag.Enabled = false
	disabledViewer[models.FeatureAuditViewer] = flag

	tests := []struct {
		name       string
		flags      FlagSource
		principal  *models.Principal
		path       string
		wantStatus int
	}{
		{"disabled viewer hides list from admin", featureflags.NewStaticSource(disabledViewer), testAdmin, "/audit/logs", http.StatusForbidden},
		{"disabled viewer hides record from admin", featureflags.NewStaticSource(disabledViewer), testAdmin, "/audit/logs/" + uuid.NewString(), http.StatusForbidden},
		{"admin-only viewer hidden from user", defaultFlags, testUser, "/audit/logs", http.StatusForbidden},
		{"flag source failure", failingFlagSource{}, testAdmin, "/audit/logs", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := new(MockAuditReader)
			h := NewAuditHandler(reader, tt.flags, zap.NewNop())

			w := httptest.NewRecorder()
			auditRouter(h).ServeHTTP(w, asPrincipal(httptest.NewRequest(http.MethodGet, tt.path, nil), tt.principal))

			assert.Equal(t, tt.wantStatus, w.Code)
			reader.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
			reader.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}
}
