package transport

import (
	"net/http"
	"strings"

	"github.com/rpggio/phishbox/internal/auth"
)

// TokenVerifier resolves a bearer token to the back-office user it was
// issued to.
type TokenVerifier interface {
	Parse(token string) (*auth.Principal, error)
}

// AuthMiddleware attaches the principal of a valid bearer token to the
// request context. Requests without a token pass through anonymously so
// participant methods keep working; a token that fails verification is
// rejected.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" || token == header {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}

			principal, err := verifier.Parse(token)
			if err != nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}
