package mcp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const authenticatedKey contextKey = iota

// TokenVerifier checks a bearer token presented on an HTTP request.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) error
}

// StaticTokenVerifier accepts a single pre-shared token.
type StaticTokenVerifier string

func (v StaticTokenVerifier) VerifyToken(_ context.Context, token string) error {
	if subtle.ConstantTimeCompare([]byte(v), []byte(token)) != 1 {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(verifier TokenVerifier) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			if err := verifier.VerifyToken(ctx, token); err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}

			ctx = context.WithValue(ctx, authenticatedKey, true)
			return next(ctx, method, req)
		}
	}
}

// noAuthMiddleware marks every request authenticated when auth is disabled.
func noAuthMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx = context.WithValue(ctx, authenticatedKey, true)
			return next(ctx, method, req)
		}
	}
}
