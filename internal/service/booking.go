package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/venue-booking/internal/access"
	"github.com/iliyamo/venue-booking/internal/metrics"
	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/queue"
	"github.com/iliyamo/venue-booking/internal/repository"
)

const msgSlotTaken = "slot already booked for this time"

// BookingService admits, lists and transitions bookings.
type BookingService struct {
	bookings BookingStore
	venues   VenueStore
	policy   access.Policy
	events   EventPublisher
	log      *log.Logger
	now      func() time.Time
}

func NewBookingService(bookings BookingStore, venues VenueStore, policy access.Policy, events EventPublisher, logger *log.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		venues:   venues,
		policy:   policy,
		events:   events,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateBookingInput is the payload of a booking request.  TotalAmount is
// a pointer so that a missing amount can be told apart from zero.
type CreateBookingInput struct {
	VenueID     string         `json:"venue_id"`
	Date        string         `json:"date"`
	Slot        model.SlotTime `json:"slot"`
	TotalAmount *float64       `json:"total_amount"`
}

func (in *CreateBookingInput) validate() error {
	in.VenueID = strings.TrimSpace(in.VenueID)
	in.Date = strings.TrimSpace(in.Date)
	in.Slot.StartTime = strings.TrimSpace(in.Slot.StartTime)
	in.Slot.EndTime = strings.TrimSpace(in.Slot.EndTime)
	switch {
	case in.VenueID == "":
		return required("venue_id")
	case in.Date == "":
		return required("date")
	case in.Slot.StartTime == "":
		return required("slot.start_time")
	case in.Slot.EndTime == "":
		return required("slot.end_time")
	case in.TotalAmount == nil:
		return required("total_amount")
	}
	if !validDate(in.Date) {
		return validation("date", "date must be YYYY-MM-DD")
	}
	if err := validateSlotTime("slot", in.Slot.StartTime, in.Slot.EndTime); err != nil {
		return err
	}
	return validateAmount("total_amount", in.TotalAmount)
}

// Create admits a booking.  It is rejected with a conflict when a booking
// of the exact same venue, date and time range exists in any status.
// Only identical ranges conflict; overlapping ranges do not.
func (s *BookingService) Create(ctx context.Context, c access.Caller, in CreateBookingInput) (*model.Booking, error) {
	if err := s.policy.Check(c, access.CreateBooking, access.Resource{}); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	v, err := s.venues.GetByID(ctx, in.VenueID)
	if errors.Is(err, repository.ErrVenueNotFound) {
		return nil, notFound("venue not found")
	}
	if err != nil {
		return nil, err
	}

	taken, err := s.bookings.ExistsForSlot(ctx, in.VenueID, in.Date, in.Slot)
	if err != nil {
		return nil, err
	}
	if taken {
		metrics.IncBookingConflict()
		return nil, conflict(msgSlotTaken)
	}

	now := s.now()
	b := &model.Booking{
		ID:            uuid.NewString(),
		UserID:        c.ID,
		VenueID:       in.VenueID,
		Date:          in.Date,
		Slot:          in.Slot,
		TotalAmount:   *in.TotalAmount,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	// the pre-check above is advisory; the unique key decides races
	if err := s.bookings.Create(ctx, b); err != nil {
		if errors.Is(err, repository.ErrDuplicateBooking) {
			metrics.IncBookingConflict()
			return nil, conflict(msgSlotTaken)
		}
		return nil, err
	}

	metrics.IncBookingStatus(string(b.PaymentStatus))
	s.log.Infoj(log.JSON{"msg": "booking created", "booking_id": b.ID, "venue_id": b.VenueID, "user_id": b.UserID})
	s.emit(ctx, queue.BookingCreated, b, v.Name, c.ID)
	return b, nil
}

// List returns the bookings visible to the caller: their own for users,
// bookings on their venues for owners, all for admins.
func (s *BookingService) List(ctx context.Context, c access.Caller) ([]*model.Booking, error) {
	scope, err := s.policy.Bookings(c)
	if err != nil {
		return nil, err
	}
	var f repository.BookingFilter
	switch {
	case scope.All:
	case scope.UserID != "":
		f.UserID = scope.UserID
	case scope.VenueOwnerID != "":
		ids, err := s.venues.IDsByOwner(ctx, scope.VenueOwnerID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []*model.Booking{}, nil
		}
		f.VenueIDs = ids
	}
	return s.bookings.List(ctx, f)
}

// Get returns one booking if the caller booked it, owns its venue or is an
// admin.
func (s *BookingService) Get(ctx context.Context, c access.Caller, id string) (*model.Booking, error) {
	if !c.Authenticated() {
		return nil, ErrUnauthorized
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.venueOwner(ctx, b.VenueID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(c, access.ViewBooking, access.Resource{UserID: b.UserID, OwnerID: owner}); err != nil {
		return nil, err
	}
	return b, nil
}

// Cancel moves a Pending booking to Failed.  The booking user or an admin
// may cancel.
func (s *BookingService) Cancel(ctx context.Context, c access.Caller, id string) (*model.Booking, error) {
	if !c.Authenticated() {
		return nil, ErrUnauthorized
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(c, access.CancelBooking, access.Resource{UserID: b.UserID}); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, b, model.PaymentFailed); err != nil {
		return nil, err
	}
	s.log.Infoj(log.JSON{"msg": "booking cancelled", "booking_id": b.ID, "actor_id": c.ID})
	s.emit(ctx, queue.BookingCancelled, b, "", c.ID)
	return b, nil
}

// CompletePayment moves a Pending booking to Completed on behalf of the
// payment collaborator.  Completing an already Completed booking is a
// no-op so redelivered payment messages are harmless.
func (s *BookingService) CompletePayment(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus == model.PaymentCompleted {
		return b, nil
	}
	if err := s.transition(ctx, b, model.PaymentCompleted); err != nil {
		return nil, err
	}
	s.log.Infoj(log.JSON{"msg": "booking completed", "booking_id": b.ID})
	s.emit(ctx, queue.BookingCompleted, b, "", "")
	return b, nil
}

// Stats summarises the bookings visible to the caller.  Revenue counts
// Completed bookings only.
func (s *BookingService) Stats(ctx context.Context, c access.Caller) (model.BookingStats, error) {
	list, err := s.List(ctx, c)
	if err != nil {
		return model.BookingStats{}, err
	}
	var st model.BookingStats
	for _, b := range list {
		st.Total++
		switch b.PaymentStatus {
		case model.PaymentPending:
			st.Pending++
		case model.PaymentCompleted:
			st.Completed++
			st.Revenue += b.TotalAmount
		case model.PaymentFailed:
			st.Failed++
		}
	}
	return st, nil
}

// transition applies from -> to on b using a conditional update, so of
// two racing transitions exactly one wins.
func (s *BookingService) transition(ctx context.Context, b *model.Booking, to model.PaymentStatus) error {
	from := b.PaymentStatus
	if !from.CanTransitionTo(to) {
		return invalidTransition("booking is already " + strings.ToLower(string(from)))
	}
	err := s.bookings.UpdateStatus(ctx, b.ID, from, to)
	if errors.Is(err, repository.ErrStaleStatus) {
		return invalidTransition("booking status changed, reload and retry")
	}
	if err != nil {
		return err
	}
	b.PaymentStatus = to
	b.UpdatedAt = s.now()
	metrics.IncBookingStatus(string(to))
	return nil
}

func (s *BookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return nil, notFound("booking not found")
	}
	return b, err
}

// venueOwner returns the owner of venueID, or "" once the venue is gone.
func (s *BookingService) venueOwner(ctx context.Context, venueID string) (string, error) {
	v, err := s.venues.GetByID(ctx, venueID)
	if errors.Is(err, repository.ErrVenueNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v.OwnerID, nil
}

func (s *BookingService) emit(ctx context.Context, key string, b *model.Booking, venueName, actor string) {
	publish(ctx, s.log, s.events, key, queue.BookingEvent{
		Type:          key,
		BookingID:     b.ID,
		UserID:        b.UserID,
		VenueID:       b.VenueID,
		VenueName:     venueName,
		Date:          b.Date,
		StartTime:     b.Slot.StartTime,
		EndTime:       b.Slot.EndTime,
		TotalAmount:   b.TotalAmount,
		PaymentStatus: string(b.PaymentStatus),
		ActorID:       actor,
		OccurredAt:    s.now(),
	})
}
