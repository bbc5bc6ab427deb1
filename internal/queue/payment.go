package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/venue-booking/internal/model"
)

// PaymentCompleter applies a completed payment to a booking.
type PaymentCompleter interface {
	CompletePayment(ctx context.Context, bookingID string) (*model.Booking, error)
}

// PaymentHandler turns payment.completed deliveries into booking
// transitions.  Permanent reports errors that retrying cannot fix, such
// as an unknown booking; every other error is retried with backoff.
type PaymentHandler struct {
	Bookings  PaymentCompleter
	Permanent func(error) bool
}

// Handle implements HandlerFunc.
func (h PaymentHandler) Handle(ctx context.Context, body []byte) error {
	var msg PaymentCompletedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if msg.BookingID == "" {
		return fmt.Errorf("payment message without booking_id")
	}
	if _, err := h.Bookings.CompletePayment(ctx, msg.BookingID); err != nil {
		if h.Permanent != nil && h.Permanent(err) {
			return fmt.Errorf("booking %s: %w", msg.BookingID, err)
		}
		return Retry(err)
	}
	return nil
}
