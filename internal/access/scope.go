package access

import "github.com/iliyamo/venue-booking/internal/model"

// BookingScope restricts a booking listing.  Exactly one of the fields is
// meaningful: All for admins, UserID for end users, VenueOwnerID for
// owners (bookings on any venue they own).
type BookingScope struct {
	All          bool
	UserID       string
	VenueOwnerID string
}

// Bookings returns the booking scope visible to c.
func (p Policy) Bookings(c Caller) (BookingScope, error) {
	if !c.Authenticated() {
		return BookingScope{}, ErrUnauthorized
	}
	switch c.Role {
	case model.RoleAdmin:
		return BookingScope{All: true}, nil
	case model.RoleOwner:
		return BookingScope{VenueOwnerID: c.ID}, nil
	case model.RoleUser:
		return BookingScope{UserID: c.ID}, nil
	}
	return BookingScope{}, ErrForbidden
}

// VenueQuery holds the client supplied venue listing parameters.
type VenueQuery struct {
	Approved *bool // approved=true|false
	OwnerMe  bool  // owner=me
}

// VenueScope is the filter applied to the venue store.  When
// OrOwnerID is set the listing returns venues matching Approved or owned
// by OrOwnerID.
type VenueScope struct {
	Approved  *bool
	OwnerID   string
	OrOwnerID string
}

// Venues translates q into the scope c is allowed to list.
func (p Policy) Venues(c Caller, q VenueQuery) (VenueScope, error) {
	var s VenueScope
	if q.OwnerMe {
		if !c.Authenticated() {
			return VenueScope{}, ErrUnauthorized
		}
		s.OwnerID = c.ID
		s.Approved = q.Approved
		return s, nil
	}
	if p.Listing == ListAll || c.IsAdmin() {
		s.Approved = q.Approved
		return s, nil
	}
	approved := true
	if q.Approved != nil && !*q.Approved {
		// unapproved listings are only visible to their owner
		if c.Role != model.RoleOwner {
			return VenueScope{}, ErrForbidden
		}
		s.Approved = q.Approved
		s.OwnerID = c.ID
		return s, nil
	}
	s.Approved = &approved
	if q.Approved == nil && c.Role == model.RoleOwner {
		s.OrOwnerID = c.ID
	}
	return s, nil
}
