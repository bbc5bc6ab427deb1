// Package repository persists venues, bookings, users, refresh tokens and
// favorites in MySQL.  Lookups that find nothing return the sentinel
// errors below so higher layers can map them without inspecting SQL
// errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrVenueNotFound   = errors.New("venue not found")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrDuplicateBooking is returned when the (venue, date, start, end)
	// unique key rejects an insert.
	ErrDuplicateBooking = errors.New("slot already booked for this time")
	ErrEmailExists      = errors.New("email already exists")
	ErrFavoriteExists   = errors.New("venue already in favorites")
	ErrFavoriteNotFound = errors.New("venue not in favorites")

	// ErrStaleStatus is returned by a conditional status update when the
	// row no longer holds the expected status.
	ErrStaleStatus = errors.New("status changed concurrently")
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
