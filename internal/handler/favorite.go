package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/access"
	"github.com/iliyamo/venue-booking/internal/model"
)

type FavoriteService interface {
	Add(ctx context.Context, c access.Caller, venueID string) error
	Remove(ctx context.Context, c access.Caller, venueID string) error
	List(ctx context.Context, c access.Caller) ([]*model.Venue, error)
	IsFavorite(ctx context.Context, c access.Caller, venueID string) (bool, error)
}

type FavoriteHandler struct {
	Favorites FavoriteService
}

func NewFavoriteHandler(f FavoriteService) *FavoriteHandler { return &FavoriteHandler{Favorites: f} }

func (h *FavoriteHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	venues, err := h.Favorites.List(ctx, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, venues)
}

func (h *FavoriteHandler) Add(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Favorites.Add(ctx, caller(c), c.Param("venueId")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "added to favorites", "venue_id": c.Param("venueId")})
}

func (h *FavoriteHandler) Remove(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Favorites.Remove(ctx, caller(c), c.Param("venueId")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "removed from favorites", "venue_id": c.Param("venueId")})
}

func (h *FavoriteHandler) Check(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	ok, err := h.Favorites.IsFavorite(ctx, caller(c), c.Param("venueId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"is_favorited": ok})
}
