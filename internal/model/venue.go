package model

import "time"

// Sport enumerates the kinds of facility a venue can list.
type Sport string

const (
	SportBadminton Sport = "Badminton"
	SportFootball  Sport = "Football"
	SportCricket   Sport = "Cricket"
	SportGym       Sport = "Gym"
)

// Valid reports whether s is one of the supported sports.
func (s Sport) Valid() bool {
	switch s {
	case SportBadminton, SportFootball, SportCricket, SportGym:
		return true
	}
	return false
}

// Venue is a bookable facility listed by an owner.  Slots are embedded in
// the venue and have no lifecycle of their own; they are persisted in the
// venue_slots table and always loaded together with the venue.
//
// OwnerID never changes after creation.  Images holds ordered URLs resolved
// by the upload collaborator, and IsApproved controls whether the listing
// is visible to browsing clients.
type Venue struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	OwnerID     string    `json:"owner_id"`
	Sport       Sport     `json:"sport"`
	Description string    `json:"description,omitempty"`
	Images      []string  `json:"images"`
	IsApproved  bool      `json:"is_approved"`
	Slots       []Slot    `json:"slots"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Slot is a wall-clock interval ("HH:MM") offered by a venue at a price.
// Times carry no timezone.
type Slot struct {
	ID        string  `json:"id"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Price     float64 `json:"price"`
}

// SlotByID returns the slot with the given id and whether it was found.
func (v *Venue) SlotByID(id string) (Slot, bool) {
	for _, s := range v.Slots {
		if s.ID == id {
			return s, true
		}
	}
	return Slot{}, false
}

// VenuePatch carries the optional fields of a venue update.  Nil fields
// are left untouched.  OwnerID and IsApproved are absent:
// ownership is immutable and approval moves only through approve/reject.
type VenuePatch struct {
	Name        *string
	Location    *string
	Sport       *Sport
	Description *string
	Images      []string
}
