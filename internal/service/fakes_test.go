package service

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// memVenues is an in-memory VenueStore with the same error contract as
// repository.VenueRepo.  Reads return copies.
type memVenues struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*model.Venue
}

func newMemVenues() *memVenues { return &memVenues{byID: map[string]*model.Venue{}} }

func cloneVenue(v *model.Venue) *model.Venue {
	c := *v
	c.Images = append([]string{}, v.Images...)
	c.Slots = append([]model.Slot{}, v.Slots...)
	return &c
}

func (m *memVenues) Create(_ context.Context, v *model.Venue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[v.ID] = cloneVenue(v)
	m.order = append(m.order, v.ID)
	return nil
}

func (m *memVenues) GetByID(_ context.Context, id string) (*model.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrVenueNotFound
	}
	return cloneVenue(v), nil
}

func (m *memVenues) List(_ context.Context, f repository.VenueFilter) ([]*model.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Venue{}
	for _, id := range m.order {
		v, ok := m.byID[id]
		if !ok {
			continue
		}
		if f.OwnerID != "" && v.OwnerID != f.OwnerID {
			continue
		}
		if f.Approved != nil && v.IsApproved != *f.Approved &&
			(f.OrOwnerID == "" || v.OwnerID != f.OrOwnerID) {
			continue
		}
		out = append(out, cloneVenue(v))
	}
	return out, nil
}

func (m *memVenues) ListByIDs(_ context.Context, ids []string) ([]*model.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Venue{}
	// reverse order to prove callers do not rely on store ordering
	for i := len(ids) - 1; i >= 0; i-- {
		if v, ok := m.byID[ids[i]]; ok {
			out = append(out, cloneVenue(v))
		}
	}
	return out, nil
}

func (m *memVenues) IDsByOwner(_ context.Context, ownerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	for _, id := range m.order {
		if v, ok := m.byID[id]; ok && v.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memVenues) Update(_ context.Context, v *model.Venue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[v.ID]
	if !ok {
		return repository.ErrVenueNotFound
	}
	cur.Name, cur.Location, cur.Sport = v.Name, v.Location, v.Sport
	cur.Description, cur.Images, cur.UpdatedAt = v.Description, append([]string{}, v.Images...), v.UpdatedAt
	return nil
}

func (m *memVenues) SetApproved(_ context.Context, id string, approved bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[id]
	if !ok {
		return repository.ErrVenueNotFound
	}
	v.IsApproved = approved
	return nil
}

func (m *memVenues) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrVenueNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memVenues) AddSlot(_ context.Context, venueID string, s model.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[venueID]
	if !ok {
		return repository.ErrVenueNotFound
	}
	v.Slots = append(v.Slots, s)
	return nil
}

func (m *memVenues) RemoveSlot(_ context.Context, venueID, slotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byID[venueID]
	if !ok {
		return repository.ErrVenueNotFound
	}
	for i, s := range v.Slots {
		if s.ID == slotID {
			v.Slots = append(v.Slots[:i], v.Slots[i+1:]...)
			return nil
		}
	}
	return repository.ErrSlotNotFound
}

type tuple struct {
	venue, date string
	slot        model.SlotTime
}

// memBookings is an in-memory BookingStore.  Like the unique key on the
// bookings table it refuses a second row with the same tuple.
type memBookings struct {
	mu     sync.Mutex
	byID   map[string]*model.Booking
	tuples map[tuple]string
	seq    []string
}

func newMemBookings() *memBookings {
	return &memBookings{byID: map[string]*model.Booking{}, tuples: map[tuple]string{}}
}

func (m *memBookings) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := tuple{b.VenueID, b.Date, b.Slot}
	if _, ok := m.tuples[k]; ok {
		return repository.ErrDuplicateBooking
	}
	c := *b
	m.byID[b.ID] = &c
	m.tuples[k] = b.ID
	m.seq = append(m.seq, b.ID)
	return nil
}

func (m *memBookings) ExistsForSlot(_ context.Context, venueID, date string, slot model.SlotTime) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tuples[tuple{venueID, date, slot}]
	return ok, nil
}

func (m *memBookings) ExistsActiveForSlot(_ context.Context, venueID string, slot model.SlotTime) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.byID {
		if b.VenueID == venueID && b.Slot == slot && b.PaymentStatus != model.PaymentFailed {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	c := *b
	return &c, nil
}

func (m *memBookings) List(_ context.Context, f repository.BookingFilter) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var venues map[string]bool
	if f.VenueIDs != nil {
		venues = map[string]bool{}
		for _, id := range f.VenueIDs {
			venues[id] = true
		}
	}
	out := []*model.Booking{}
	for _, id := range m.seq {
		b := m.byID[id]
		if f.UserID != "" && b.UserID != f.UserID {
			continue
		}
		if venues != nil && !venues[b.VenueID] {
			continue
		}
		if f.VenueID != "" && b.VenueID != f.VenueID {
			continue
		}
		if f.Date != "" && b.Date != f.Date {
			continue
		}
		c := *b
		out = append(out, &c)
	}
	return out, nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id string, from, to model.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok || b.PaymentStatus != from {
		return repository.ErrStaleStatus
	}
	b.PaymentStatus = to
	return nil
}

func (m *memBookings) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func bookingIDs(list []*model.Booking) []string {
	out := make([]string, len(list))
	for i, b := range list {
		out[i] = b.ID
	}
	sort.Strings(out)
	return out
}

type memFavorites struct {
	mu   sync.Mutex
	rows map[string][]string
}

func newMemFavorites() *memFavorites { return &memFavorites{rows: map[string][]string{}} }

func (m *memFavorites) Add(_ context.Context, userID, venueID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.rows[userID] {
		if id == venueID {
			return repository.ErrFavoriteExists
		}
	}
	m.rows[userID] = append(m.rows[userID], venueID)
	return nil
}

func (m *memFavorites) Remove(_ context.Context, userID, venueID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.rows[userID]
	for i, id := range ids {
		if id == venueID {
			m.rows[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return repository.ErrFavoriteNotFound
}

func (m *memFavorites) VenueIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.rows[userID]...), nil
}

func (m *memFavorites) Exists(_ context.Context, userID, venueID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.rows[userID] {
		if id == venueID {
			return true, nil
		}
	}
	return false, nil
}

type publisherMock struct{ mock.Mock }

func (m *publisherMock) Publish(ctx context.Context, key string, event any) error {
	return m.Called(ctx, key, event).Error(0)
}

// quietPublisher accepts every event.
func quietPublisher() *publisherMock {
	p := new(publisherMock)
	p.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return p
}

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}
