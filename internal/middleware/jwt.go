package middleware // middleware holds the echo middleware shared by all route groups

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/utils"
)

// Context keys written by JWTAuth and OptionalAuth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores its subject and role under CtxUserID and CtxRole (both
// strings).  Requests without a valid token get 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			cl, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxUserID, cl.UserID)
			c.Set(CtxRole, cl.Role)
			return next(c)
		}
	}
}

// OptionalAuth is JWTAuth for routes that also serve anonymous callers.
// A missing header passes through anonymously; a present but invalid
// token is still rejected so clients notice expired sessions.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	strict := JWTAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withToken := strict(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			return withToken(c)
		}
	}
}

func bearer(c echo.Context) (string, bool) {
	raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	raw = strings.TrimSpace(raw)
	return raw, ok && raw != ""
}
