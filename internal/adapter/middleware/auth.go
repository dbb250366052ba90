package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"fanders-backend/internal/domain/user"
	"fanders-backend/internal/usecase/auth"
)

const actorKey = "actor"

// TokenParser turns a bearer token into claims.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// JWTAuth rejects requests without a valid bearer token and stores the caller on the context.
func JWTAuth(p TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, ok := strings.Cut(h, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			claims, err := p.Parse(strings.TrimSpace(token))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			}
			SetActor(c, claims.Actor())
			return next(c)
		}
	}
}

// Actor returns the authenticated caller. ok is false outside JWTAuth.
func Actor(c echo.Context) (user.Actor, bool) {
	a, ok := c.Get(actorKey).(user.Actor)
	return a, ok
}

// SetActor stores a onto the request context.
func SetActor(c echo.Context, a user.Actor) { c.Set(actorKey, a) }

// RequireRoles lets only the listed roles through.
func RequireRoles(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a, ok := Actor(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			}
			if !a.Role.In(roles...) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "not allowed for this role"})
			}
			return next(c)
		}
	}
}
