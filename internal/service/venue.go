package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/venue-booking/internal/access"
	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/queue"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// VenueOptions are the deployment toggles of the venue rules.
type VenueOptions struct {
	// AutoApprove approves submissions from non-admin callers.
	AutoApprove bool
	// StrictSlotRemoval refuses to remove a slot whose time range is
	// referenced by a booking that is not Failed.
	StrictSlotRemoval bool
}

// VenueService implements venue CRUD, slot management and approval.
type VenueService struct {
	venues   VenueStore
	bookings BookingStore
	policy   access.Policy
	events   EventPublisher
	opts     VenueOptions
	log      *log.Logger
	now      func() time.Time
}

func NewVenueService(venues VenueStore, bookings BookingStore, policy access.Policy, events EventPublisher, opts VenueOptions, logger *log.Logger) *VenueService {
	return &VenueService{
		venues:   venues,
		bookings: bookings,
		policy:   policy,
		events:   events,
		opts:     opts,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SlotInput is a slot as submitted by a client.
type SlotInput struct {
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Price     *float64 `json:"price"`
}

// CreateVenueInput is the payload of a venue submission.
type CreateVenueInput struct {
	Name        string      `json:"name"`
	Location    string      `json:"location"`
	Sport       string      `json:"sport"`
	Description string      `json:"description"`
	Images      []string    `json:"images"`
	Slots       []SlotInput `json:"slots"`
}

func (in SlotInput) slot(field string) (model.Slot, error) {
	if err := validateSlotTime(field, in.StartTime, in.EndTime); err != nil {
		return model.Slot{}, err
	}
	if err := validateAmount(field+".price", in.Price); err != nil {
		return model.Slot{}, err
	}
	return model.Slot{
		ID:        uuid.NewString(),
		StartTime: strings.TrimSpace(in.StartTime),
		EndTime:   strings.TrimSpace(in.EndTime),
		Price:     *in.Price,
	}, nil
}

func validSport(s string) (model.Sport, error) {
	sp := model.Sport(strings.TrimSpace(s))
	if sp == "" {
		return "", required("sport")
	}
	if !sp.Valid() {
		return "", validation("sport", "sport must be one of Badminton, Football, Cricket, Gym")
	}
	return sp, nil
}

// Create stores a new venue owned by the caller.  Admin submissions are
// approved immediately; other submissions follow VenueOptions.AutoApprove.
func (s *VenueService) Create(ctx context.Context, c access.Caller, in CreateVenueInput) (*model.Venue, error) {
	if err := s.policy.Check(c, access.CreateVenue, access.Resource{}); err != nil {
		return nil, err
	}
	name, location := strings.TrimSpace(in.Name), strings.TrimSpace(in.Location)
	if name == "" {
		return nil, required("name")
	}
	if location == "" {
		return nil, required("location")
	}
	sport, err := validSport(in.Sport)
	if err != nil {
		return nil, err
	}
	slots := make([]model.Slot, 0, len(in.Slots))
	for _, si := range in.Slots {
		sl, err := si.slot("slot")
		if err != nil {
			return nil, err
		}
		slots = append(slots, sl)
	}

	now := s.now()
	v := &model.Venue{
		ID:          uuid.NewString(),
		Name:        name,
		Location:    location,
		OwnerID:     c.ID,
		Sport:       sport,
		Description: strings.TrimSpace(in.Description),
		Images:      cleanImages(in.Images),
		IsApproved:  c.IsAdmin() || s.opts.AutoApprove,
		Slots:       slots,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.venues.Create(ctx, v); err != nil {
		return nil, err
	}
	s.log.Infoj(log.JSON{"msg": "venue created", "venue_id": v.ID, "owner_id": v.OwnerID, "approved": v.IsApproved})
	return v, nil
}

// List returns the venues the caller may browse under q.
func (s *VenueService) List(ctx context.Context, c access.Caller, q access.VenueQuery) ([]*model.Venue, error) {
	scope, err := s.policy.Venues(c, q)
	if err != nil {
		return nil, err
	}
	return s.venues.List(ctx, repository.VenueFilter{
		Approved:  scope.Approved,
		OwnerID:   scope.OwnerID,
		OrOwnerID: scope.OrOwnerID,
	})
}

// Get returns one venue.
func (s *VenueService) Get(ctx context.Context, id string) (*model.Venue, error) {
	return s.load(ctx, id)
}

// Update applies p to a venue owned by the caller.  The owner is never
// changed.
func (s *VenueService) Update(ctx context.Context, c access.Caller, id string, p model.VenuePatch) (*model.Venue, error) {
	v, err := s.loadFor(ctx, c, access.UpdateVenue, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		if v.Name = strings.TrimSpace(*p.Name); v.Name == "" {
			return nil, required("name")
		}
	}
	if p.Location != nil {
		if v.Location = strings.TrimSpace(*p.Location); v.Location == "" {
			return nil, required("location")
		}
	}
	if p.Sport != nil {
		if v.Sport, err = validSport(string(*p.Sport)); err != nil {
			return nil, err
		}
	}
	if p.Description != nil {
		v.Description = strings.TrimSpace(*p.Description)
	}
	if p.Images != nil {
		v.Images = cleanImages(p.Images)
	}
	v.UpdatedAt = s.now()
	if err := s.venues.Update(ctx, v); err != nil {
		return nil, s.mapStoreErr(err)
	}
	return v, nil
}

// Delete removes a venue owned by the caller.  Existing bookings of the
// venue are kept.
func (s *VenueService) Delete(ctx context.Context, c access.Caller, id string) error {
	if _, err := s.loadFor(ctx, c, access.DeleteVenue, id); err != nil {
		return err
	}
	if err := s.venues.Delete(ctx, id); err != nil {
		return s.mapStoreErr(err)
	}
	s.log.Infoj(log.JSON{"msg": "venue deleted", "venue_id": id, "actor_id": c.ID})
	return nil
}

// AddSlot appends a slot and returns the updated venue.
func (s *VenueService) AddSlot(ctx context.Context, c access.Caller, venueID string, in SlotInput) (*model.Venue, error) {
	v, err := s.loadFor(ctx, c, access.ManageSlots, venueID)
	if err != nil {
		return nil, err
	}
	sl, err := in.slot("slot")
	if err != nil {
		return nil, err
	}
	if err := s.venues.AddSlot(ctx, venueID, sl); err != nil {
		return nil, s.mapStoreErr(err)
	}
	v.Slots = append(v.Slots, sl)
	return v, nil
}

// RemoveSlot deletes a slot and returns the updated venue.  Bookings keep
// their own copy of the slot times and are not touched.
func (s *VenueService) RemoveSlot(ctx context.Context, c access.Caller, venueID, slotID string) (*model.Venue, error) {
	v, err := s.loadFor(ctx, c, access.ManageSlots, venueID)
	if err != nil {
		return nil, err
	}
	sl, ok := v.SlotByID(slotID)
	if !ok {
		return nil, notFound("slot not found")
	}
	if s.opts.StrictSlotRemoval {
		used, err := s.bookings.ExistsActiveForSlot(ctx, venueID, model.SlotTime{StartTime: sl.StartTime, EndTime: sl.EndTime})
		if err != nil {
			return nil, err
		}
		if used {
			return nil, conflict("slot has active bookings")
		}
	}
	if err := s.venues.RemoveSlot(ctx, venueID, slotID); err != nil {
		return nil, s.mapStoreErr(err)
	}
	kept := v.Slots[:0]
	for _, x := range v.Slots {
		if x.ID != slotID {
			kept = append(kept, x)
		}
	}
	v.Slots = kept
	return v, nil
}

// Approve marks a venue approved.  The owner or an admin may approve.
func (s *VenueService) Approve(ctx context.Context, c access.Caller, id string) (*model.Venue, error) {
	return s.setApproved(ctx, c, access.ApproveVenue, id, true)
}

// Reject withdraws approval.  Only an admin may reject.
func (s *VenueService) Reject(ctx context.Context, c access.Caller, id string) (*model.Venue, error) {
	return s.setApproved(ctx, c, access.RejectVenue, id, false)
}

func (s *VenueService) setApproved(ctx context.Context, c access.Caller, a access.Action, id string, approved bool) (*model.Venue, error) {
	v, err := s.loadFor(ctx, c, a, id)
	if err != nil {
		return nil, err
	}
	if v.IsApproved == approved {
		return v, nil
	}
	if err := s.venues.SetApproved(ctx, id, approved); err != nil {
		return nil, s.mapStoreErr(err)
	}
	v.IsApproved = approved

	key := queue.VenueApproved
	if !approved {
		key = queue.VenueRejected
	}
	s.log.Infoj(log.JSON{"msg": key, "venue_id": id, "actor_id": c.ID})
	publish(ctx, s.log, s.events, key, queue.VenueEvent{
		Type:       key,
		VenueID:    v.ID,
		OwnerID:    v.OwnerID,
		ActorID:    c.ID,
		Approved:   approved,
		OccurredAt: s.now(),
	})
	return v, nil
}

// SlotAvailability is a venue slot with its booking state on one date.
type SlotAvailability struct {
	model.Slot
	Booked bool `json:"booked"`
}

// Availability lists the slots of a venue for date, marking the ones whose
// exact time range already has a booking in any status.
func (s *VenueService) Availability(ctx context.Context, venueID, date string) ([]SlotAvailability, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, required("date")
	}
	if !validDate(date) {
		return nil, validation("date", "date must be YYYY-MM-DD")
	}
	v, err := s.load(ctx, venueID)
	if err != nil {
		return nil, err
	}
	booked, err := s.bookings.List(ctx, repository.BookingFilter{VenueID: venueID, Date: date})
	if err != nil {
		return nil, err
	}
	taken := make(map[model.SlotTime]bool, len(booked))
	for _, b := range booked {
		taken[b.Slot] = true
	}
	out := make([]SlotAvailability, 0, len(v.Slots))
	for _, sl := range v.Slots {
		out = append(out, SlotAvailability{
			Slot:   sl,
			Booked: taken[model.SlotTime{StartTime: sl.StartTime, EndTime: sl.EndTime}],
		})
	}
	return out, nil
}

func (s *VenueService) load(ctx context.Context, id string) (*model.Venue, error) {
	v, err := s.venues.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return v, nil
}

// loadFor loads a venue and checks that c may perform a on it.
func (s *VenueService) loadFor(ctx context.Context, c access.Caller, a access.Action, id string) (*model.Venue, error) {
	if !c.Authenticated() {
		return nil, ErrUnauthorized
	}
	v, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(c, a, access.Resource{OwnerID: v.OwnerID}); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *VenueService) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrVenueNotFound):
		return notFound("venue not found")
	case errors.Is(err, repository.ErrSlotNotFound):
		return notFound("slot not found")
	}
	return err
}

func cleanImages(in []string) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
