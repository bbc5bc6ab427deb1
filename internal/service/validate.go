package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/venue-booking/internal/model"
)

const clockLayout = "15:04"

// validClock reports whether s is a 24h "HH:MM" wall-clock time.
func validClock(s string) bool {
	if len(s) != len(clockLayout) {
		return false
	}
	_, err := time.Parse(clockLayout, s)
	return err == nil
}

func validDate(s string) bool {
	_, err := time.Parse(model.DateLayout, s)
	return err == nil
}

// validateSlotTime checks that a slot range is well formed and ordered.
// field prefixes the field names in error messages.
func validateSlotTime(field string, start, end string) error {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" {
		return required(field + ".start_time")
	}
	if end == "" {
		return required(field + ".end_time")
	}
	if !validClock(start) {
		return validation(field+".start_time", field+".start_time must be HH:MM")
	}
	if !validClock(end) {
		return validation(field+".end_time", field+".end_time must be HH:MM")
	}
	// HH:MM strings order lexically
	if start >= end {
		return validation(field+".end_time", field+".end_time must be after start_time")
	}
	return nil
}

// MaxAmount is the largest amount the DECIMAL(10,2) money columns hold.
const MaxAmount = 99999999.99

func validateAmount(field string, v *float64) error {
	if v == nil {
		return required(field)
	}
	if *v < 0 {
		return validation(field, field+" must not be negative")
	}
	// NaN fails every comparison, so test the accepted range positively
	if !(*v <= MaxAmount) {
		return validation(field, fmt.Sprintf("%s must not exceed %.2f", field, MaxAmount))
	}
	return nil
}
