package middleware

import (
	"net/http"
	"strings"

	"github.com/Eursukkul/booking-settlement/pkg/auth"
	"github.com/labstack/echo/v4"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(h, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := auth.ParseValidate(strings.TrimPrefix(h, "Bearer "), secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set(ContextUserID, claims.Sub)
			c.Set(ContextRole, claims.Role)
			return next(c)
		}
	}
}

func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, role := Actor(c)
			if _, ok := allowed[role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

// Actor returns the authenticated user id and role set by JWTAuth.
func Actor(c echo.Context) (userID, role string) {
	userID, _ = c.Get(ContextUserID).(string)
	role, _ = c.Get(ContextRole).(string)
	return userID, role
}

func IsAdmin(c echo.Context) bool {
	_, role := Actor(c)
	return role == auth.RoleAdmin
}
