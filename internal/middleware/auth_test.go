package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockfolio/ledger/internal/app/wire"
	"github.com/stockfolio/ledger/pkg/logger"
)

var testSecret = []byte("test-secret")

type stubProvisioner struct {
	ensured []string
}

func (p *stubProvisioner) Ensure(_ context.Context, name, auth0ID string) (wire.User, error) {
	p.ensured = append(p.ensured, auth0ID)
	return wire.User{ID: 7, Name: name, Auth0ID: auth0ID}, nil
}

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func authHandler(users UserProvisioner, subjects *[]string) http.Handler {
	m := NewAuthMiddleware(testSecret, users, nil, []string{"/api/health/ping"})
	return m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subjects != nil {
			*subjects = append(*subjects, GetSubject(r.Context()))
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestValidTokenProvisionsUser(t *testing.T) {
	provisioner := &stubProvisioner{}
	var subjects []string
	handler := authHandler(provisioner, &subjects)

	token := signToken(t, Claims{
		Name: "Jane",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth0|abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"auth0|abc"}, provisioner.ensured)
	assert.Equal(t, []string{"auth0|abc"}, subjects)
}

func TestMissingHeaderIsUnauthorized(t *testing.T) {
	handler := authHandler(&stubProvisioner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestMalformedHeaderIsUnauthorized(t *testing.T) {
	handler := authHandler(&stubProvisioner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredTokenIsUnauthorized(t *testing.T) {
	handler := authHandler(&stubProvisioner{}, nil)

	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth0|abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenWithoutSubjectIsUnauthorized(t *testing.T) {
	provisioner := &stubProvisioner{}
	handler := authHandler(provisioner, nil)

	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, provisioner.ensured)
}

func TestSkipPathBypassesAuth(t *testing.T) {
	handler := authHandler(&stubProvisioner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health/ping", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWrongSigningMethodIsRejected(t *testing.T) {
	handler := authHandler(&stubProvisioner{}, nil)

	// Token signed with "none" must never verify.
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "auth0|abc"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTracingAddsTraceHeader(t *testing.T) {
	handler := NewTracingMiddleware(logger.NewDefault("test")).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, logger.GetTraceID(r.Context()))
			w.WriteHeader(http.StatusNoContent)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestRateLimiterThrottles(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
