// Package access evaluates what an authenticated caller may see and do.
// Every role decision in the application goes through Policy so that
// handlers and services never branch on roles inline.
package access

import (
	"errors"

	"github.com/iliyamo/venue-booking/internal/model"
)

var (
	// ErrUnauthorized is returned when an operation needs a caller identity
	// and none was supplied.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller is known but the role or
	// ownership does not permit the operation.
	ErrForbidden = errors.New("forbidden")
)

// Caller is the opaque {id, role} pair supplied by the auth layer.  The
// zero value is an anonymous caller.
type Caller struct {
	ID   string
	Role model.Role
}

// Authenticated reports whether the caller carries an identity.
func (c Caller) Authenticated() bool { return c.ID != "" }

// IsAdmin reports whether the caller has the admin role.
func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

// Action names a mutation or read that requires an ownership decision.
type Action string

const (
	CreateVenue     Action = "venue.create"
	UpdateVenue     Action = "venue.update"
	DeleteVenue     Action = "venue.delete"
	ManageSlots     Action = "venue.slots"
	ApproveVenue    Action = "venue.approve"
	RejectVenue     Action = "venue.reject"
	CreateBooking   Action = "booking.create"
	ViewBooking     Action = "booking.view"
	CancelBooking   Action = "booking.cancel"
	ManageFavorites Action = "favorites.manage"
)

// Resource carries the ownership facts of the target of an action.
// OwnerID is the venue owner; UserID is the booking user.
type Resource struct {
	OwnerID string
	UserID  string
}

// ListingMode selects what an unfiltered venue listing returns.
type ListingMode string

const (
	// ListApprovedOnly shows anonymous and user-role callers approved
	// venues only; owners additionally see their own listings.
	ListApprovedOnly ListingMode = "approved"
	// ListAll returns every venue regardless of approval to any caller.
	ListAll ListingMode = "all"
)

// ParseListingMode maps a configuration string to a ListingMode,
// defaulting to ListApprovedOnly.
func ParseListingMode(s string) ListingMode {
	if ListingMode(s) == ListAll {
		return ListAll
	}
	return ListApprovedOnly
}

// Policy is the single authorization capability of the application.
type Policy struct {
	Listing ListingMode
}

// NewPolicy returns a Policy using the given venue listing mode.
func NewPolicy(mode ListingMode) Policy { return Policy{Listing: mode} }

// Check decides whether c may perform a on r.  Checks are evaluated
// against freshly loaded resources at the point of mutation.
func (p Policy) Check(c Caller, a Action, r Resource) error {
	if !c.Authenticated() {
		return ErrUnauthorized
	}
	switch a {
	case CreateVenue:
		if c.Role == model.RoleOwner || c.IsAdmin() {
			return nil
		}
	case UpdateVenue, DeleteVenue, ManageSlots, ApproveVenue:
		if c.IsAdmin() || (r.OwnerID != "" && r.OwnerID == c.ID) {
			return nil
		}
	case RejectVenue:
		if c.IsAdmin() {
			return nil
		}
	case CreateBooking:
		return nil
	case ViewBooking:
		if c.IsAdmin() || r.UserID == c.ID || (r.OwnerID != "" && r.OwnerID == c.ID) {
			return nil
		}
	case CancelBooking:
		if c.IsAdmin() || r.UserID == c.ID {
			return nil
		}
	case ManageFavorites:
		if c.Role == model.RoleUser {
			return nil
		}
	}
	return ErrForbidden
}
