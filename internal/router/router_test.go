package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-booking/internal/config"
	"github.com/iliyamo/venue-booking/internal/handler"
	"github.com/iliyamo/venue-booking/internal/service"
	"github.com/iliyamo/venue-booking/internal/utils"
)

const secret = "router-secret"

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func noCache(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newServer() *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, okPinger{}, config.MetricsConfig{Enabled: true, Path: "/metrics"})
	RegisterAuth(e, &handler.AuthHandler{}, secret)
	RegisterVenues(e, &handler.VenueHandler{}, secret, noCache)
	RegisterBookings(e, &handler.BookingHandler{}, secret)
	RegisterFavorites(e, &handler.FavoriteHandler{}, secret)
	return e
}

func routeSet(e *echo.Echo) map[string]bool {
	set := map[string]bool{}
	for _, r := range e.Routes() {
		set[r.Method+" "+r.Path] = true
	}
	return set
}

func TestRouteTable(t *testing.T) {
	routes := routeSet(newServer())
	for _, want := range []string{
		"GET /healthz",
		"GET /readyz",
		"GET /metrics",
		"POST /v1/auth/register",
		"POST /v1/auth/refresh-access",
		"GET /v1/me",
		"GET /v1/venues",
		"GET /v1/venues/:id/availability",
		"POST /v1/venues",
		"PUT /v1/venues/:id",
		"PATCH /v1/venues/:id",
		"PATCH /v1/venues/:id/approve",
		"PATCH /v1/venues/:id/reject",
		"DELETE /v1/venues/:id/slots/:slotId",
		"GET /v1/bookings/stats",
		"DELETE /v1/bookings/:id",
		"GET /v1/favorites/check/:venueId",
		"POST /v1/favorites/:venueId",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
}

func TestNoRouteWritesPaymentStatus(t *testing.T) {
	routes := routeSet(newServer())
	for _, m := range []string{http.MethodPut, http.MethodPatch, http.MethodPost} {
		assert.False(t, routes[m+" /v1/bookings/:id"], "%s /v1/bookings/:id must not exist", m)
		assert.False(t, routes[m+" /v1/bookings/:id/status"])
	}
}

func TestGuards(t *testing.T) {
	e := newServer()
	userTok, err := utils.NewAccessToken(secret, "u-1", "user", 5)
	require.NoError(t, err)
	ownerTok, err := utils.NewAccessToken(secret, "o-1", "owner", 5)
	require.NoError(t, err)

	cases := []struct {
		name, method, path, token string
		code                      int
	}{
		{"bookings need a token", http.MethodGet, "/v1/bookings", "", http.StatusUnauthorized},
		{"users cannot create venues", http.MethodPost, "/v1/venues", userTok.Token, http.StatusForbidden},
		{"owners cannot reject", http.MethodPatch, "/v1/venues/v-1/reject", ownerTok.Token, http.StatusForbidden},
		{"owners have no favorites", http.MethodGet, "/v1/favorites", ownerTok.Token, http.StatusForbidden},
		{"me needs a token", http.MethodGet, "/v1/me", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

// availabilityOnly answers Availability and nothing else.
type availabilityOnly struct{ handler.VenueService }

func (availabilityOnly) Availability(context.Context, string, string) ([]service.SlotAvailability, error) {
	return []service.SlotAvailability{}, nil
}

func TestAvailabilityBypassesCache(t *testing.T) {
	cached := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error { return c.String(http.StatusOK, "from-cache") }
	}
	e := echo.New()
	RegisterVenues(e, handler.NewVenueHandler(availabilityOnly{}), secret, cached)

	for path, fromCache := range map[string]bool{
		"/v1/venues":                                  true,
		"/v1/venues/v-1":                              true,
		"/v1/venues/v-1/availability?date=2025-06-01": false,
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, fromCache, rec.Body.String() == "from-cache", path)
	}
}
