package model

import "time"

// PaymentStatus is the lifecycle state of a booking.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
)

// Terminal reports whether no further transition is defined from s.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Only Pending bookings move, either to Completed or to Failed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentPending && (next == PaymentCompleted || next == PaymentFailed)
}

// DateLayout is the calendar-date format used for booking dates.
const DateLayout = "2006-01-02"

// SlotTime is the time range a booking claims.  It is copied from the
// venue's slot at booking time rather than referenced, so later slot
// edits never rewrite existing bookings.
type SlotTime struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Booking is a user's claim on one venue/date/slot-time tuple.
//
// UserID and VenueID are immutable.  Date uses DateLayout and TotalAmount
// is never negative.
type Booking struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	VenueID       string        `json:"venue_id"`
	Date          string        `json:"date"`
	Slot          SlotTime      `json:"slot"`
	TotalAmount   float64       `json:"total_amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// BookingStats summarises a set of bookings for dashboards.
type BookingStats struct {
	Total     int     `json:"total"`
	Pending   int     `json:"pending"`
	Completed int     `json:"completed"`
	Failed    int     `json:"failed"`
	Revenue   float64 `json:"revenue"`
}
