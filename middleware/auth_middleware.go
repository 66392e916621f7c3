package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/upb/lifedash/identity"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/services/audit"
	"github.com/upb/lifedash/utils"
	"go.uber.org/zap"
)

// Authenticator turns a bearer token into a principal
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	authenticator Authenticator
	logger        *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authenticator Authenticator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		logger:        logger,
	}
}

// authTokenCookieName and sessionCookieName are checked after the Authorization header
const authTokenCookieName = "auth_token"
const sessionCookieName = "session"

// Authenticate resolves the principal when a token is present.
// Requests without a token continue anonymously; a bad token is rejected.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := m.authenticator.Authenticate(ctx, token)
		if err != nil {
			if isTokenError(err) {
				m.logger.Warn("token validation failed",
					zap.String("request_id", requestID),
					zap.Error(err))
				_ = utils.WriteUnauthorized(w, "Invalid or expired token")
				return
			}
			m.logger.Error("principal resolution failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "Failed to resolve user")
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", principal.ID.String()),
			zap.String("role", principal.Role.String()))

		next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
	})
}

// RequireAuth rejects requests without a principal. Run it after Authenticate.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetPrincipalFromContext(r.Context()) == nil {
			m.logger.Warn("missing principal",
				zap.String("request_id", GetRequestIDFromContext(r.Context())))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from anyone but admins. Run it after Authenticate.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		principal := GetPrincipalFromContext(ctx)
		if principal == nil {
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}
		if !principal.IsAdmin() {
			m.logger.Warn("insufficient permissions",
				zap.String("request_id", requestID),
				zap.String("user_id", principal.ID.String()),
				zap.String("role", principal.Role.String()))
			_ = utils.WriteForbidden(w, "Insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestInfo copies the request id, client address and user agent into the
// context for audit records. Run it after chi's RequestID and RealIP.
func RequestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithRequestInfo(r.Context(), audit.RequestInfo{
			RequestID: GetRequestIDFromContext(r.Context()),
			ClientIP:  clientIP(r.RemoteAddr),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isTokenError(err error) bool {
	return errors.Is(err, identity.ErrInvalidToken) ||
		errors.Is(err, identity.ErrTokenExpired) ||
		errors.Is(err, identity.ErrMissingClaim)
}

// clientIP strips the port from a remote address
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// extractToken extracts the token from the Authorization header or a cookie.
// The Authorization header takes precedence when both are present.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	for _, name := range []string{authTokenCookieName, sessionCookieName} {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
