package middleware

import (
	"net/http"
	"strings"

	"auction-marketplace/internal/auth"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

const claimsKey = "claims"

// Authenticate validates the Bearer token and stores the parsed claims
// on the echo context for downstream handlers.
func Authenticate(secret string, log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request())
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing authorization token"})
			}

			claims, err := auth.ParseToken(token, secret)
			if err != nil {
				log.Warn("Rejected token", "path", c.Path(), "error", err)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid authorization token"})
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// RequireRole allows the request through only when the authenticated
// caller holds one of the given roles. Must run after Authenticate.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing authorization token"})
			}
			if !claims.HasRole(roles...) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Insufficient role"})
			}
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by Authenticate, or nil.
func ClaimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
