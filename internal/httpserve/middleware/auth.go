// Package middleware provides the echo middleware for the registry server.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BlankParticle/preview-pkg/internal/dto"
	"github.com/BlankParticle/preview-pkg/pkg/logger"
)

// IdentityKey is the echo context key the authenticated identity is stored
// under.
const IdentityKey = "identity"

// IdentityResolver resolves a bearer token to the publisher identity it
// authenticates. Implemented against the GitHub user API; tests use fakes.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// RequireToken returns middleware that rejects requests without a valid
// bearer token and stores the resolved identity in the request context.
func RequireToken(resolver IdentityResolver, cache *TokenCache) echo.MiddlewareFunc {
	if cache == nil {
		cache = NewTokenCache(5 * time.Minute)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, dto.UploadResult{Error: "missing bearer token"})
			}
			token := strings.TrimPrefix(header, "Bearer ")

			identity, ok := cache.Get(token)
			if !ok {
				resolved, err := resolver.Resolve(c.Request().Context(), token)
				if err != nil {
					logger.Debug("token resolution failed", "error", err)
					return c.JSON(http.StatusUnauthorized, dto.UploadResult{Error: "invalid bearer token"})
				}
				identity = resolved
				cache.Set(token, identity)
			}

			c.Set(IdentityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom extracts the authenticated identity stored by RequireToken.
func IdentityFrom(c echo.Context) string {
	if identity, ok := c.Get(IdentityKey).(string); ok {
		return identity
	}
	return ""
}
