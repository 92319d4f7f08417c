package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/phishbox/internal/auth"
)

// operator is the principal of unauthenticated local sessions.
var operator = &auth.Principal{UserID: "local", Email: "operator@localhost"}

// TokenVerifier resolves a bearer token to a back-office user.
type TokenVerifier interface {
	Parse(token string) (*auth.Principal, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(verifier TokenVerifier) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			header := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			principal, err := verifier.Parse(token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}

			return next(auth.WithPrincipal(ctx, principal), method, req)
		}
	}
}

// noAuthMiddleware runs every request as the local operator.
func noAuthMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(auth.WithPrincipal(ctx, operator), method, req)
		}
	}
}
