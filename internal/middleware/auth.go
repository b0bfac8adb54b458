// Package middleware provides the HTTP middleware chain for the ledger API.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stockfolio/ledger/internal/app/wire"
	"github.com/stockfolio/ledger/internal/errors"
	"github.com/stockfolio/ledger/internal/httputil"
	"github.com/stockfolio/ledger/pkg/logger"
)

// Claims are the token claims the ledger cares about. The subject is the
// identity-provider id (auth0Id) the local user row is keyed on.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// UserProvisioner resolves a token subject to a local user, creating the row
// on first sight.
type UserProvisioner interface {
	Ensure(ctx context.Context, name, auth0ID string) (wire.User, error)
}

// AuthMiddleware authenticates requests with HS256 bearer tokens.
type AuthMiddleware struct {
	secret    []byte
	users     UserProvisioner
	log       *logger.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates an authentication middleware. Paths in skipPaths
// bypass authentication entirely.
func NewAuthMiddleware(secret []byte, users UserProvisioner, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{secret: secret, users: users, log: log, skipPaths: skip}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, r, errors.Unauthorized("Missing Authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondError(w, r, errors.Unauthorized("Invalid Authorization header format"))
			return
		}

		claims, err := m.validateToken(parts[1])
		if err != nil {
			m.log.WithContext(r.Context()).WithError(err).Warn("token validation failed")
			m.respondError(w, r, err)
			return
		}

		subject := claims.Subject
		if subject == "" {
			m.respondError(w, r, errors.Unauthorized("Token carries no subject"))
			return
		}

		ctx := logger.WithSubject(r.Context(), subject)
		if m.users != nil {
			u, err := m.users.Ensure(ctx, claims.Name, subject)
			if err != nil {
				m.log.WithContext(ctx).WithError(err).Error("user provisioning failed")
				m.respondError(w, r, err)
				return
			}
			ctx = logger.WithUserID(ctx, strconv.FormatInt(u.ID, 10))
		}

		m.log.WithContext(ctx).WithField("auth0Id", subject).Debug("authentication successful")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.InvalidToken(err)
	}
	if !token.Valid {
		return nil, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.InvalidToken(nil).WithDetails("reason", "invalid claims type")
	}
	return claims, nil
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("Authentication failed", err)
	}

	httputil.WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)

	m.log.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": serviceErr.HTTPStatus,
	}).Warn("authentication failed")
}

// GetSubject extracts the token subject from the context.
func GetSubject(ctx context.Context) string {
	return logger.GetSubject(ctx)
}

// RequireSubject rejects requests whose context carries no authenticated
// subject. Used on routes mounted outside the authenticated chain.
func RequireSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logger.GetSubject(r.Context()) == "" {
			httputil.Unauthorized(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
