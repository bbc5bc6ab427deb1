package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/handler"
	"github.com/iliyamo/venue-booking/internal/middleware"
	"github.com/iliyamo/venue-booking/internal/model"
)

// RegisterBookings registers the booking endpoints for any authenticated
// role; the service scopes results to the caller.  No route sets a
// payment status: Completed is only reachable through the payment consumer
// and cancellation is DELETE.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/bookings", middleware.JWTAuth(jwtSecret))
	g.GET("", b.List)
	g.POST("", b.Create)
	g.GET("/stats", b.Stats)
	g.GET("/:id", b.Get)
	g.DELETE("/:id", b.Cancel)
}

// RegisterFavorites registers the favorites list of user accounts.
func RegisterFavorites(e *echo.Echo, f *handler.FavoriteHandler, jwtSecret string) {
	g := e.Group(
		"/v1/favorites",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser),
	)
	g.GET("", f.List)
	g.GET("/check/:venueId", f.Check)
	g.POST("/:venueId", f.Add)
	g.DELETE("/:venueId", f.Remove)
}
