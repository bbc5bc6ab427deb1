package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/handler"
	"github.com/iliyamo/venue-booking/internal/middleware"
	"github.com/iliyamo/venue-booking/internal/model"
)

// RegisterVenues registers the venue catalogue.  Reads are public; list and
// detail go through cache, availability is always read fresh.  The listing
// also accepts an optional token so owners and admins see their wider scope.
// Writes need an owner or admin token and the service re-checks ownership of
// the target venue.
func RegisterVenues(e *echo.Echo, v *handler.VenueHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/v1/venues", v.List, cache, middleware.OptionalAuth(jwtSecret))
	e.GET("/v1/venues/:id", v.Get, cache)
	e.GET("/v1/venues/:id/availability", v.Availability)

	g := e.Group(
		"/v1/venues",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner, model.RoleAdmin),
	)
	g.POST("", v.Create)
	g.PUT("/:id", v.Update)
	g.PATCH("/:id", v.Update)
	g.DELETE("/:id", v.Delete)
	g.PATCH("/:id/approve", v.Approve)
	g.PATCH("/:id/reject", v.Reject, middleware.RequireRole(model.RoleAdmin))
	g.POST("/:id/slots", v.AddSlot)
	g.DELETE("/:id/slots/:slotId", v.RemoveSlot)
}
