package service

import (
	"context"
	"errors"

	"github.com/iliyamo/venue-booking/internal/access"
	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// FavoriteService manages a user's favorite venues.
type FavoriteService struct {
	favorites FavoriteStore
	venues    VenueStore
	policy    access.Policy
}

func NewFavoriteService(favorites FavoriteStore, venues VenueStore, policy access.Policy) *FavoriteService {
	return &FavoriteService{favorites: favorites, venues: venues, policy: policy}
}

func (s *FavoriteService) Add(ctx context.Context, c access.Caller, venueID string) error {
	if err := s.policy.Check(c, access.ManageFavorites, access.Resource{}); err != nil {
		return err
	}
	if _, err := s.venues.GetByID(ctx, venueID); err != nil {
		if errors.Is(err, repository.ErrVenueNotFound) {
			return notFound("venue not found")
		}
		return err
	}
	err := s.favorites.Add(ctx, c.ID, venueID)
	if errors.Is(err, repository.ErrFavoriteExists) {
		return validation("venue_id", "venue already in favorites")
	}
	return err
}

func (s *FavoriteService) Remove(ctx context.Context, c access.Caller, venueID string) error {
	if err := s.policy.Check(c, access.ManageFavorites, access.Resource{}); err != nil {
		return err
	}
	err := s.favorites.Remove(ctx, c.ID, venueID)
	if errors.Is(err, repository.ErrFavoriteNotFound) {
		return validation("venue_id", "venue not in favorites")
	}
	return err
}

// List returns the caller's favorite venues in the order they were added.
// Venues deleted since are skipped.
func (s *FavoriteService) List(ctx context.Context, c access.Caller) ([]*model.Venue, error) {
	if err := s.policy.Check(c, access.ManageFavorites, access.Resource{}); err != nil {
		return nil, err
	}
	ids, err := s.favorites.VenueIDs(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	venues, err := s.venues.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}
	out := make([]*model.Venue, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, c access.Caller, venueID string) (bool, error) {
	if err := s.policy.Check(c, access.ManageFavorites, access.Resource{}); err != nil {
		return false, err
	}
	return s.favorites.Exists(ctx, c.ID, venueID)
}
