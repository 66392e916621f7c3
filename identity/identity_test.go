package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/lifedash/models"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret-0123456789"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(sub uuid.UUID) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.String(),
			Issuer:    "https://auth.example.com",
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "user@example.com",
	}
}

func newTestValidator(t *testing.T) *Validator {
	v, err := NewValidator(Config{
		Secret:   testSecret,
		Issuer:   "https://auth.example.com",
		Audience: "authenticated",
	})
	require.NoError(t, err)
	return v
}

func TestNewValidator_RequiresSecret(t *testing.T) {
	_, err := NewValidator(Config{})
	assert.Error(t, err)
}

func TestValidator_ValidateToken(t *testing.T) {
	ctx := context.Background()
	sub := uuid.New()
	v := newTestValidator(t)

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(sub))

		claims, err := v.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, sub, claims.Sub)
		assert.Equal(t, "user@example.com", claims.Email)
		assert.False(t, claims.ExpiresAt.IsZero())
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims(sub)
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		token := signToken(t, testSecret, jwt.SigningMethodHS256, claims)

		_, err := v.ValidateToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	tests := []struct {
		name   string
		secret string
		method jwt.SigningMethod
		mutate func(*Claims)
	}{
		{"wrong secret", "other-secret", jwt.SigningMethodHS256, nil},
		{"wrong algorithm", testSecret, jwt.SigningMethodHS512, nil},
		{"wrong issuer", testSecret, jwt.SigningMethodHS256, func(c *Claims) { c.Issuer = "https://evil.example.com" }},
		{"wrong audience", testSecret, jwt.SigningMethodHS256, func(c *Claims) { c.Audience = jwt.ClaimStrings{"anon"} }},
		{"missing expiry", testSecret, jwt.SigningMethodHS256, func(c *Claims) { c.ExpiresAt = nil }},
		{"missing subject", testSecret, jwt.SigningMethodHS256, func(c *Claims) { c.Subject = "" }},
		{"non-uuid subject", testSecret, jwt.SigningMethodHS256, func(c *Claims) { c.Subject = "user-1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims(sub)
			if tt.mutate != nil {
				tt.mutate(&claims)
			}
			token := signToken(t, tt.secret, tt.method, claims)

			parsed, err := v.ValidateToken(ctx, token)
			assert.Error(t, err)
			assert.Nil(t, parsed)
		})
	}

	t.Run("garbage", func(t *testing.T) {
		_, err := v.ValidateToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

type mockProfileRepository struct {
	mock.Mock
}

func (m *mockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if profile := args.Get(0); profile != nil {
		return profile.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAuthenticator_Authenticate(t *testing.T) {
	ctx := context.Background()
	sub := uuid.New()
	token := signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(sub))

	tests := []struct {
		name     string
		profile  *models.Profile
		repoErr  error
		wantRole models.Role
		wantErr  bool
	}{
		{"admin profile", &models.Profile{ID: sub, Role: "admin"}, nil, models.RoleAdmin, false},
		{"admin with padding and case", &models.Profile{ID: sub, Role: " ADMIN "}, nil, models.RoleAdmin, false},
		{"user profile", &models.Profile{ID: sub, Role: "user"}, nil, models.RoleUser, false},
		{"unknown role", &models.Profile{ID: sub, Role: "owner"}, nil, models.RoleUser, false},
		{"missing profile", nil, nil, models.RoleUser, false},
		{"profile lookup fails", nil, errors.New("db down"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockProfileRepository)
			repo.On("GetByID", ctx, sub).Return(tt.profile, tt.repoErr)
			auth := NewAuthenticator(newTestValidator(t), repo, zaptest.NewLogger(t))

			principal, err := auth.Authenticate(ctx, token)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, principal)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sub, principal.ID)
			assert.Equal(t, tt.wantRole, principal.Role)
			assert.Equal(t, "user@example.com", principal.Email)
		})
	}

	t.Run("invalid token skips the profile lookup", func(t *testing.T) {
		repo := new(mockProfileRepository)
		auth := NewAuthenticator(newTestValidator(t), repo, zaptest.NewLogger(t))

		_, err := auth.Authenticate(ctx, "bad")
		assert.ErrorIs(t, err, ErrInvalidToken)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}
