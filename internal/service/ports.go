package service

import (
	"context"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// VenueStore persists venues and their slots.
type VenueStore interface {
	Create(ctx context.Context, v *model.Venue) error
	GetByID(ctx context.Context, id string) (*model.Venue, error)
	List(ctx context.Context, f repository.VenueFilter) ([]*model.Venue, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Venue, error)
	IDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	Update(ctx context.Context, v *model.Venue) error
	SetApproved(ctx context.Context, id string, approved bool) error
	Delete(ctx context.Context, id string) error
	AddSlot(ctx context.Context, venueID string, s model.Slot) error
	RemoveSlot(ctx context.Context, venueID, slotID string) error
}

// BookingStore persists bookings.  Create must reject a second booking
// of the same (venue, date, start, end) tuple with
// repository.ErrDuplicateBooking.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	ExistsForSlot(ctx context.Context, venueID, date string, slot model.SlotTime) (bool, error)
	ExistsActiveForSlot(ctx context.Context, venueID string, slot model.SlotTime) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to model.PaymentStatus) error
}

// FavoriteStore persists the user/venue favorites relation.
type FavoriteStore interface {
	Add(ctx context.Context, userID, venueID string) error
	Remove(ctx context.Context, userID, venueID string) error
	VenueIDs(ctx context.Context, userID string) ([]string, error)
	Exists(ctx context.Context, userID, venueID string) (bool, error)
}

// EventPublisher sends domain events.  Failures never fail the request
// that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}
