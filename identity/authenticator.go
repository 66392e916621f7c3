package identity

import (
	"context"
	"fmt"

	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"go.uber.org/zap"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*ParsedClaims, error)
}

// Authenticator builds the request principal from a token and the user's profile
type Authenticator struct {
	validator TokenValidator
	profiles  repositories.ProfileRepository
	logger    *zap.Logger
}

// NewAuthenticator creates an authenticator
func NewAuthenticator(validator TokenValidator, profiles repositories.ProfileRepository, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		validator: validator,
		profiles:  profiles,
		logger:    logger,
	}
}

// Authenticate validates the token and resolves the role once.
// A user without a profile row is a plain user.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := a.profiles.GetByID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	email := claims.Email
	role := string(models.RoleUser)
	if profile != nil {
		role = profile.Role
		if email == "" {
			email = profile.Email
		}
	} else {
		a.logger.Debug("no profile for user, defaulting role", zap.String("user_id", claims.Sub.String()))
	}

	return models.NewPrincipal(claims.Sub, email, role), nil
}
