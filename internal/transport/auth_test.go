package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/phishbox/internal/auth"
	"github.com/stretchr/testify/require"
)

type testVerifier struct {
	tokens map[string]string
}

func (v *testVerifier) Parse(token string) (*auth.Principal, error) {
	userID, ok := v.tokens[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Principal{UserID: userID}, nil
}

func TestAuthMiddleware(t *testing.T) {
	verifier := &testVerifier{tokens: map[string]string{"token": "u1"}}

	handler := AuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "u1", p.UserID)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Anonymous(t *testing.T) {
	verifier := &testVerifier{}

	handler := AuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := auth.PrincipalFromContext(r.Context())
		require.False(t, ok)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	verifier := &testVerifier{tokens: map[string]string{}}

	handler := AuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"Bearer nope", "Basic dXNlcjpwYXNz"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}
