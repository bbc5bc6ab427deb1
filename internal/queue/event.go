// Package queue carries domain events over RabbitMQ.  Consumers here
// append booking events to the booking log and apply payment completions.
package queue

import "time"

// Routing keys on the events exchange.
const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"
	VenueApproved    = "venue.approved"
	VenueRejected    = "venue.rejected"

	// PaymentCompleted is produced by the payment collaborator.
	PaymentCompleted = "payment.completed"
)

// BookingEvent is published on every booking state change.  It contains
// enough information for downstream consumers to log or notify without
// querying the primary database.
type BookingEvent struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"booking_id"`
	UserID        string    `json:"user_id"`
	VenueID       string    `json:"venue_id"`
	VenueName     string    `json:"venue_name,omitempty"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentStatus string    `json:"payment_status"`
	ActorID       string    `json:"actor_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// VenueEvent is published when a venue's approval flag changes.
type VenueEvent struct {
	Type       string    `json:"type"`
	VenueID    string    `json:"venue_id"`
	OwnerID    string    `json:"owner_id"`
	ActorID    string    `json:"actor_id"`
	Approved   bool      `json:"approved"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentCompletedMessage is the body of a payment.completed delivery.
type PaymentCompletedMessage struct {
	BookingID string `json:"booking_id"`
}
