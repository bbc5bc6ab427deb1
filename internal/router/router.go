package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/venue-booking/internal/config"
	"github.com/iliyamo/venue-booking/internal/handler"
	"github.com/iliyamo/venue-booking/internal/middleware"
)

// RegisterRoutes registers the routes that never require authentication:
// liveness, readiness and, when enabled, the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, m config.MetricsConfig) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	if m.Enabled {
		e.GET(m.Path, echo.WrapHandler(promhttp.Handler()))
	}
}

// RegisterAuth registers the session endpoints.  Register, login, refresh
// and logout live under /v1/auth and need no access token; /v1/me does.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}
