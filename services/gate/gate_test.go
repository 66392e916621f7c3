package gate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/services"
	"github.com/upb/lifedash/services/access"
	"github.com/upb/lifedash/services/audit"
	"github.com/upb/lifedash/services/featureflags"
	"github.com/upb/lifedash/services/locks"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, principal *models.Principal, module models.ModuleKey) (*access.Decision, error) {
	args := m.Called(ctx, principal, module)
	if d := args.Get(0); d != nil {
		return d.(*access.Decision), args.Error(1)
	}
	return nil, args.Error(1)
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []audit.ModuleAction
}

func (r *recordingAudit) LogModuleAction(ctx context.Context, action audit.ModuleAction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

func (r *recordingAudit) Actions() []audit.ModuleAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.ModuleAction(nil), r.actions...)
}

type countingMutation struct {
	calls   int
	outcome *Outcome
	err     error
}

func (c *countingMutation) run(ctx context.Context) (*Outcome, error) {
	c.calls++
	return c.outcome, c.err
}

var (
	user  = models.NewPrincipal(uuid.New(), "user@example.com", "user")
	admin = models.NewPrincipal(uuid.New(), "admin@example.com", "admin")
)

func TestGate_Run(t *testing.T) {
	ctx := context.Background()
	mutationErr := services.ErrTaskNotFound

	tests := []struct {
		name        string
		principal   *models.Principal
		decision    *access.Decision
		mutationErr error
		wantType    services.ErrorType
		wantCalls   int
		wantAudits  int
	}{
		{
			name:      "anonymous",
			principal: nil,
			wantType:  services.ErrorTypeUnauthenticated,
		},
		{
			name:       "permitted",
			principal:  user,
			decision:   &access.Decision{Module: models.ModuleTasks, CanWrite: true},
			wantCalls:  1,
			wantAudits: 1,
		},
		{
			name:      "locked",
			principal: user,
			decision:  &access.Decision{Module: models.ModuleTasks, Denial: access.DenialModuleLocked, Reason: "maintenance"},
			wantType:  services.ErrorTypeModuleLocked,
		},
		{
			name:      "disabled",
			principal: user,
			decision:  &access.Decision{Module: models.ModuleTasks, Denial: access.DenialFeatureDisabled},
			wantType:  services.ErrorTypeFeatureDisabled,
		},
		{
			name:      "check failed",
			principal: user,
			decision:  &access.Decision{Module: models.ModuleTasks, Denial: access.DenialCheckFailed, Cause: errors.New("timeout")},
			wantType:  services.ErrorTypeCheckFailed,
		},
		{
			name:        "mutation fails",
			principal:   user,
			decision:    &access.Decision{Module: models.ModuleTasks, CanWrite: true},
			mutationErr: mutationErr,
			wantType:    services.ErrorTypeNotFound,
			wantCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(mockResolver)
			if tt.decision != nil {
				resolver.On("Resolve", ctx, tt.principal, models.ModuleTasks).Return(tt.decision, nil)
			}
			rec := &recordingAudit{}
			g := New(resolver, rec, zaptest.NewLogger(t))
			mutation := &countingMutation{outcome: &Outcome{EntityID: "t-1"}, err: tt.mutationErr}

			result, err := g.Run(ctx, tt.principal, Request{Module: models.ModuleTasks, Operation: "create"}, mutation.run)

			if tt.wantType != "" {
				require.Error(t, err)
				assert.Nil(t, result)
				assert.Equal(t, tt.wantType, services.GetErrorType(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, "tasks.create", result.Action)
			}
			assert.Equal(t, tt.wantCalls, mutation.calls)
			assert.Len(t, rec.Actions(), tt.wantAudits)
			if tt.principal == nil {
				resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestGate_Run_AuditRecord(t *testing.T) {
	ctx := context.Background()
	resolver := new(mockResolver)
	resolver.On("Resolve", ctx, user, models.ModuleDebts).
		Return(&access.Decision{Module: models.ModuleDebts, CanWrite: true}, nil)
	rec := &recordingAudit{}
	g := New(resolver, rec, zaptest.NewLogger(t))

	result, err := g.Run(ctx, user, Request{
		Module:    models.ModuleDebts,
		Operation: "update",
		EntityID:  "fallback",
		Metadata:  map[string]interface{}{"field": "balance"},
	}, func(ctx context.Context) (*Outcome, error) {
		return &Outcome{
			EntityID: "debt-42",
			Metadata: map[string]interface{}{"balance": 100},
			Value:    "updated",
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "updated", result.Value)

	actions := rec.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, user, actions[0].Actor)
	assert.Equal(t, "debts", actions[0].Module)
	assert.Equal(t, "update", actions[0].Operation)
	assert.Equal(t, "debt-42", actions[0].EntityID)
	assert.Equal(t, "balance", actions[0].Metadata["field"])
	assert.Equal(t, 100, actions[0].Metadata["balance"])
}

func TestGate_Run_NilOutcomeUsesRequestEntity(t *testing.T) {
	ctx := context.Background()
	resolver := new(mockResolver)
	resolver.On("Resolve", ctx, user, models.ModuleTasks).
		Return(&access.Decision{Module: models.ModuleTasks, CanWrite: true}, nil)
	rec := &recordingAudit{}
	g := New(resolver, rec, zaptest.NewLogger(t))

	_, err := g.Run(ctx, user, Request{Module: models.ModuleTasks, Operation: "delete", EntityID: "t-9"},
		func(ctx context.Context) (*Outcome, error) { return nil, nil })
	require.NoError(t, err)

	require.Len(t, rec.Actions(), 1)
	assert.Equal(t, "t-9", rec.Actions()[0].EntityID)
}

func TestGate_Run_RequiresOperation(t *testing.T) {
	g := New(new(mockResolver), &recordingAudit{}, zaptest.NewLogger(t))

	_, err := g.Run(context.Background(), user, Request{Module: models.ModuleTasks, Operation: " "},
		func(ctx context.Context) (*Outcome, error) { return nil, nil })
	assert.True(t, services.IsValidationError(err))
}

func TestGate_Run_UnknownModule(t *testing.T) {
	ctx := context.Background()
	resolver := new(mockResolver)
	resolver.On("Resolve", ctx, user, models.ModuleKey("payroll")).Return(nil, services.ErrUnknownModule)
	g := New(resolver, &recordingAudit{}, zaptest.NewLogger(t))
	mutation := &countingMutation{}

	_, err := g.Run(ctx, user, Request{Module: "payroll", Operation: "create"}, mutation.run)
	assert.ErrorIs(t, err, services.ErrUnknownModule)
	assert.Zero(t, mutation.calls)
}

func TestGate_Run_LogsRefusal(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.InfoLevel)
	resolver := new(mockResolver)
	resolver.On("Resolve", ctx, user, models.ModuleDebts).Return(&access.Decision{
		Module: models.ModuleDebts, Denial: access.DenialModuleLocked, Reason: "month-end close",
	}, nil)
	g := New(resolver, &recordingAudit{}, zap.New(core))

	_, err := g.Run(ctx, user, Request{Module: models.ModuleDebts, Operation: "update"}, (&countingMutation{}).run)
	require.Error(t, err)

	entries := logs.FilterMessage("write refused").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "debts.update", fields["action"])
	assert.Equal(t, "module_locked", fields["denial"])
	assert.Equal(t, "month-end close", fields["reason"])
}

func TestGate_CanWrite(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		decision *access.Decision
		want     bool
	}{
		{"allowed", &access.Decision{CanWrite: true}, true},
		{"locked", &access.Decision{Denial: access.DenialModuleLocked}, false},
		{"check failed", &access.Decision{Denial: access.DenialCheckFailed, Cause: errors.New("down")}, false},
		{"unauthenticated", &access.Decision{Denial: access.DenialUnauthenticated}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(mockResolver)
			resolver.On("Resolve", ctx, user, models.ModuleTasks).Return(tt.decision, nil)
			g := New(resolver, &recordingAudit{}, zaptest.NewLogger(t))

			wc, err := g.CanWrite(ctx, user, models.ModuleTasks)
			require.NoError(t, err)
			assert.Equal(t, tt.want, wc.CanWrite)
		})
	}
}

type stubLockChecker struct {
	state *locks.LockState
	err   error
	calls int
}

func (s *stubLockChecker) IsModuleLocked(ctx context.Context, principal *models.Principal, module models.ModuleKey) (*locks.LockState, error) {
	s.calls++
	return s.state, s.err
}

func newWiredGate(t *testing.T, flags models.FeatureFlags, checker access.LockChecker) (*Gate, *recordingAudit) {
	resolver := access.NewResolver(featureflags.NewStaticSource(flags), checker, zaptest.NewLogger(t))
	rec := &recordingAudit{}
	return New(resolver, rec, zaptest.NewLogger(t)), rec
}

func TestGate_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("debts locked for month-end close", func(t *testing.T) {
		checker := &stubLockChecker{state: &locks.LockState{Locked: true, Reason: "month-end close"}}
		g, rec := newWiredGate(t, featureflags.Defaults(), checker)
		req := Request{Module: models.ModuleDebts, Operation: "update", EntityID: "d-1"}

		userMutation := &countingMutation{}
		_, err := g.Run(ctx, user, req, userMutation.run)
		require.Error(t, err)
		assert.True(t, services.IsLockedError(err))
		assert.Equal(t, "month-end close", services.GetErrorDetails(err)["reason"])
		assert.Zero(t, userMutation.calls)
		assert.Empty(t, rec.Actions())

		adminMutation := &countingMutation{outcome: &Outcome{EntityID: "d-1"}}
		_, err = g.Run(ctx, admin, req, adminMutation.run)
		require.NoError(t, err)
		assert.Equal(t, 1, adminMutation.calls)
		actions := rec.Actions()
		require.Len(t, actions, 1)
		assert.Equal(t, "debts.update", audit.FormatAction(actions[0].Module, actions[0].Operation))
		assert.Equal(t, admin, actions[0].Actor)
	})

	t.Run("tasks lock procedure errors", func(t *testing.T) {
		checker := &stubLockChecker{err: services.WrapLockCheckFailed(errors.New("procedure raised"))}
		g, rec := newWiredGate(t, featureflags.Defaults(), checker)
		mutation := &countingMutation{}

		_, err := g.Run(ctx, user, Request{Module: models.ModuleTasks, Operation: "create"}, mutation.run)
		assert.True(t, services.IsCheckFailedError(err))
		assert.Zero(t, mutation.calls)
		assert.Empty(t, rec.Actions())

		wc, err := g.CanWrite(ctx, user, models.ModuleTasks)
		require.NoError(t, err)
		assert.False(t, wc.CanWrite)

		adminWC, err := g.CanWrite(ctx, admin, models.ModuleTasks)
		require.NoError(t, err)
		assert.True(t, adminWC.CanWrite)
	})

	t.Run("finance module disabled", func(t *testing.T) {
		flags := featureflags.Defaults()
		flags[models.FeatureFinanceModule] = models.FeatureFlag{Key: models.FeatureFinanceModule}
		checker := &stubLockChecker{state: &locks.LockState{}}
		g, _ := newWiredGate(t, flags, checker)

		assert.False(t, featureflags.CanSeeFeature(flags, models.FeatureFinanceModule, false))
		assert.True(t, featureflags.CanSeeFeature(flags, models.FeatureFinanceModule, true))

		_, err := g.Run(ctx, user, Request{Module: models.ModuleFinanceEntries, Operation: "create"}, (&countingMutation{}).run)
		assert.Equal(t, services.ErrorTypeFeatureDisabled, services.GetErrorType(err))
		assert.Zero(t, checker.calls)
	})
}
