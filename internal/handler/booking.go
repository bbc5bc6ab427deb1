package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/access"
	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/service"
)

// BookingService is the booking behaviour the HTTP layer depends on.
// Payment completion is driven by the payment consumer, not by HTTP, so
// no route can move a booking to Completed.
type BookingService interface {
	Create(ctx context.Context, c access.Caller, in service.CreateBookingInput) (*model.Booking, error)
	List(ctx context.Context, c access.Caller) ([]*model.Booking, error)
	Get(ctx context.Context, c access.Caller, id string) (*model.Booking, error)
	Cancel(ctx context.Context, c access.Caller, id string) (*model.Booking, error)
	Stats(ctx context.Context, c access.Caller) (model.BookingStats, error)
}

type BookingHandler struct {
	Bookings BookingService
}

func NewBookingHandler(b BookingService) *BookingHandler { return &BookingHandler{Bookings: b} }

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	var in service.CreateBookingInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Create(ctx, caller(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// List handles GET /v1/bookings.
func (h *BookingHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Bookings.List(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// Stats handles GET /v1/bookings/stats.
func (h *BookingHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Bookings.Stats(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Get(ctx, caller(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles DELETE /v1/bookings/:id and marks the booking Failed.
func (h *BookingHandler) Cancel(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.Cancel(ctx, caller(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled", "booking": b})
}
