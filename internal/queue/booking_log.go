package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// BookingLog appends one line per booking event to a file.
type BookingLog struct {
	Path string
	mu   sync.Mutex
}

func NewBookingLog(path string) *BookingLog { return &BookingLog{Path: path} }

// Handle implements HandlerFunc.  Malformed bodies are rejected.
func (l *BookingLog) Handle(_ context.Context, body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.BookingID == "" {
		return fmt.Errorf("event without booking_id")
	}
	return l.append(formatBookingEvent(ev))
}

func formatBookingEvent(ev BookingEvent) string {
	venue := ev.VenueID
	if ev.VenueName != "" {
		venue = fmt.Sprintf("%s (%s)", ev.VenueName, ev.VenueID)
	}
	return fmt.Sprintf("[%s] %s | booking_id=%s | user_id=%s | venue=%q | date=%s | slot=%s-%s | total=%.2f | status=%s\n",
		ev.OccurredAt.UTC().Format("2006-01-02T15:04:05Z07:00"), ev.Type, ev.BookingID, ev.UserID,
		venue, ev.Date, ev.StartTime, ev.EndTime, ev.TotalAmount, ev.PaymentStatus)
}

func (l *BookingLog) append(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
