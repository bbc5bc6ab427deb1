package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/venue-booking/internal/access"
	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/service"
)

type bookingSvcMock struct{ mock.Mock }

func (m *bookingSvcMock) Create(ctx context.Context, c access.Caller, in service.CreateBookingInput) (*model.Booking, error) {
	args := m.Called(c, in)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *bookingSvcMock) List(ctx context.Context, c access.Caller) ([]*model.Booking, error) {
	args := m.Called(c)
	l, _ := args.Get(0).([]*model.Booking)
	return l, args.Error(1)
}

func (m *bookingSvcMock) Get(ctx context.Context, c access.Caller, id string) (*model.Booking, error) {
	args := m.Called(c, id)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *bookingSvcMock) Cancel(ctx context.Context, c access.Caller, id string) (*model.Booking, error) {
	args := m.Called(c, id)
	b, _ := args.Get(0).(*model.Booking)
	return b, args.Error(1)
}

func (m *bookingSvcMock) Stats(ctx context.Context, c access.Caller) (model.BookingStats, error) {
	args := m.Called(c)
	return args.Get(0).(model.BookingStats), args.Error(1)
}

type venueSvcMock struct{ mock.Mock }

func (m *venueSvcMock) venue(args mock.Arguments) (*model.Venue, error) {
	v, _ := args.Get(0).(*model.Venue)
	return v, args.Error(1)
}

func (m *venueSvcMock) Create(ctx context.Context, c access.Caller, in service.CreateVenueInput) (*model.Venue, error) {
	return m.venue(m.Called(c, in))
}

func (m *venueSvcMock) List(ctx context.Context, c access.Caller, q access.VenueQuery) ([]*model.Venue, error) {
	args := m.Called(c, q)
	l, _ := args.Get(0).([]*model.Venue)
	return l, args.Error(1)
}

func (m *venueSvcMock) Get(ctx context.Context, id string) (*model.Venue, error) {
	return m.venue(m.Called(id))
}

func (m *venueSvcMock) Update(ctx context.Context, c access.Caller, id string, p model.VenuePatch) (*model.Venue, error) {
	return m.venue(m.Called(c, id, p))
}

func (m *venueSvcMock) Delete(ctx context.Context, c access.Caller, id string) error {
	return m.Called(c, id).Error(0)
}

func (m *venueSvcMock) AddSlot(ctx context.Context, c access.Caller, venueID string, in service.SlotInput) (*model.Venue, error) {
	return m.venue(m.Called(c, venueID, in))
}

func (m *venueSvcMock) RemoveSlot(ctx context.Context, c access.Caller, venueID, slotID string) (*model.Venue, error) {
	return m.venue(m.Called(c, venueID, slotID))
}

func (m *venueSvcMock) Approve(ctx context.Context, c access.Caller, id string) (*model.Venue, error) {
	return m.venue(m.Called(c, id))
}

func (m *venueSvcMock) Reject(ctx context.Context, c access.Caller, id string) (*model.Venue, error) {
	return m.venue(m.Called(c, id))
}

func (m *venueSvcMock) Availability(ctx context.Context, venueID, date string) ([]service.SlotAvailability, error) {
	args := m.Called(venueID, date)
	l, _ := args.Get(0).([]service.SlotAvailability)
	return l, args.Error(1)
}

type favoriteSvcMock struct{ mock.Mock }

func (m *favoriteSvcMock) Add(ctx context.Context, c access.Caller, venueID string) error {
	return m.Called(c, venueID).Error(0)
}

func (m *favoriteSvcMock) Remove(ctx context.Context, c access.Caller, venueID string) error {
	return m.Called(c, venueID).Error(0)
}

func (m *favoriteSvcMock) List(ctx context.Context, c access.Caller) ([]*model.Venue, error) {
	args := m.Called(c)
	l, _ := args.Get(0).([]*model.Venue)
	return l, args.Error(1)
}

func (m *favoriteSvcMock) IsFavorite(ctx context.Context, c access.Caller, venueID string) (bool, error) {
	args := m.Called(c, venueID)
	return args.Bool(0), args.Error(1)
}

type userStoreMock struct{ mock.Mock }

func (m *userStoreMock) Create(ctx context.Context, name, email, password string, role model.Role, cost int) (model.User, error) {
	args := m.Called(name, email, password, role)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *userStoreMock) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *userStoreMock) GetByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(id)
	return args.Get(0).(model.User), args.Error(1)
}

type tokenStoreMock struct{ mock.Mock }

func (m *tokenStoreMock) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	return m.Called(userID, tokenHash).Error(0)
}

func (m *tokenStoreMock) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	args := m.Called(tokenHash)
	return args.String(0), args.Error(1)
}

func (m *tokenStoreMock) RevokeByHash(ctx context.Context, tokenHash string) error {
	return m.Called(tokenHash).Error(0)
}

func (m *tokenStoreMock) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.Called(userID).Error(0)
}
