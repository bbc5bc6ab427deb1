package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/access"
	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/service"
)

// VenueService is the venue behaviour the HTTP layer depends on.
type VenueService interface {
	Create(ctx context.Context, c access.Caller, in service.CreateVenueInput) (*model.Venue, error)
	List(ctx context.Context, c access.Caller, q access.VenueQuery) ([]*model.Venue, error)
	Get(ctx context.Context, id string) (*model.Venue, error)
	Update(ctx context.Context, c access.Caller, id string, p model.VenuePatch) (*model.Venue, error)
	Delete(ctx context.Context, c access.Caller, id string) error
	AddSlot(ctx context.Context, c access.Caller, venueID string, in service.SlotInput) (*model.Venue, error)
	RemoveSlot(ctx context.Context, c access.Caller, venueID, slotID string) (*model.Venue, error)
	Approve(ctx context.Context, c access.Caller, id string) (*model.Venue, error)
	Reject(ctx context.Context, c access.Caller, id string) (*model.Venue, error)
	Availability(ctx context.Context, venueID, date string) ([]service.SlotAvailability, error)
}

type VenueHandler struct {
	Venues VenueService
}

func NewVenueHandler(v VenueService) *VenueHandler { return &VenueHandler{Venues: v} }

// List handles GET /v1/venues?approved=true|false&owner=me.
func (h *VenueHandler) List(c echo.Context) error {
	var q access.VenueQuery
	if raw := c.QueryParam("approved"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "approved must be true or false", "field": "approved"})
		}
		q.Approved = &b
	}
	if owner := c.QueryParam("owner"); owner != "" {
		if owner != "me" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner only supports \"me\"", "field": "owner"})
		}
		q.OwnerMe = true
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	venues, err := h.Venues.List(ctx, caller(c), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, venues)
}

// Get handles GET /v1/venues/:id.
func (h *VenueHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Venues.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Availability handles GET /v1/venues/:id/availability?date=YYYY-MM-DD.
func (h *VenueHandler) Availability(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	slots, err := h.Venues.Availability(ctx, c.Param("id"), c.QueryParam("date"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"venue_id": c.Param("id"), "date": c.QueryParam("date"), "slots": slots})
}

// Create handles POST /v1/venues.
func (h *VenueHandler) Create(c echo.Context) error {
	var in service.CreateVenueInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Venues.Create(ctx, caller(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

type venuePatchReq struct {
	Name        *string  `json:"name"`
	Location    *string  `json:"location"`
	Sport       *string  `json:"sport"`
	Description *string  `json:"description"`
	Images      []string `json:"images"`
}

// Update handles PUT and PATCH /v1/venues/:id.  Absent fields are kept.
func (h *VenueHandler) Update(c echo.Context) error {
	var req venuePatchReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	p := model.VenuePatch{Name: req.Name, Location: req.Location, Description: req.Description, Images: req.Images}
	if req.Sport != nil {
		sp := model.Sport(*req.Sport)
		p.Sport = &sp
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Venues.Update(ctx, caller(c), c.Param("id"), p)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Delete handles DELETE /v1/venues/:id.
func (h *VenueHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Venues.Delete(ctx, caller(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Approve handles PATCH /v1/venues/:id/approve.
func (h *VenueHandler) Approve(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Venues.Approve(ctx, caller(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Reject handles PATCH /v1/venues/:id/reject.
func (h *VenueHandler) Reject(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Venues.Reject(ctx, caller(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// AddSlot handles POST /v1/venues/:id/slots.
func (h *VenueHandler) AddSlot(c echo.Context) error {
	var in service.SlotInput
	if err := c.Bind(&in); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Venues.AddSlot(ctx, caller(c), c.Param("id"), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// RemoveSlot handles DELETE /v1/venues/:id/slots/:slotId.
func (h *VenueHandler) RemoveSlot(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	v, err := h.Venues.RemoveSlot(ctx, caller(c), c.Param("id"), c.Param("slotId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
