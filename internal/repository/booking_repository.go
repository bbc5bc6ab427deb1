package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/venue-booking/internal/model"
)

// BookingFilter narrows a booking listing.  A non-nil VenueIDs restricts
// results to those venues; an empty non-nil slice matches nothing.
type BookingFilter struct {
	UserID   string
	VenueIDs []string
	VenueID  string
	Date     string
	Statuses []model.PaymentStatus
}

var bookingColumns = []string{
	"id", "user_id", "venue_id", "booking_date", "start_time", "end_time",
	"total_amount", "payment_status", "created_at", "updated_at",
}

// BookingRepo stores bookings.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

func bookingWhere(f BookingFilter) sq.And {
	and := sq.And{}
	if f.UserID != "" {
		and = append(and, sq.Eq{"user_id": f.UserID})
	}
	if f.VenueIDs != nil {
		and = append(and, sq.Eq{"venue_id": f.VenueIDs})
	}
	if f.VenueID != "" {
		and = append(and, sq.Eq{"venue_id": f.VenueID})
	}
	if f.Date != "" {
		and = append(and, sq.Eq{"booking_date": f.Date})
	}
	if len(f.Statuses) > 0 {
		st := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			st[i] = string(s)
		}
		and = append(and, sq.Eq{"payment_status": st})
	}
	return and
}

func listBookingsQuery(f BookingFilter) sq.SelectBuilder {
	q := sq.Select(bookingColumns...).From("bookings").OrderBy("created_at DESC", "id")
	if and := bookingWhere(f); len(and) > 0 {
		q = q.Where(and)
	}
	return q
}

// Create inserts a booking.  A concurrent insert of the same tuple loses
// on the unique key and gets ErrDuplicateBooking.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	query, args, err := sq.Insert("bookings").
		Columns(bookingColumns...).
		Values(b.ID, b.UserID, b.VenueID, b.Date, b.Slot.StartTime, b.Slot.EndTime,
			b.TotalAmount, string(b.PaymentStatus), b.CreatedAt, b.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return ErrDuplicateBooking
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// ExistsForSlot reports whether any booking, in any status, holds the
// exact (venue, date, start, end) tuple.
func (r *BookingRepo) ExistsForSlot(ctx context.Context, venueID, date string, slot model.SlotTime) (bool, error) {
	query, args, err := sq.Select("1").From("bookings").Where(sq.Eq{
		"venue_id":     venueID,
		"booking_date": date,
		"start_time":   slot.StartTime,
		"end_time":     slot.EndTime,
	}).Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	return r.exists(ctx, query, args...)
}

// ExistsActiveForSlot reports whether a booking that is not Failed
// references the time range on any date.
func (r *BookingRepo) ExistsActiveForSlot(ctx context.Context, venueID string, slot model.SlotTime) (bool, error) {
	query, args, err := sq.Select("1").From("bookings").Where(sq.And{
		sq.Eq{"venue_id": venueID, "start_time": slot.StartTime, "end_time": slot.EndTime},
		sq.NotEq{"payment_status": string(model.PaymentFailed)},
	}).Limit(1).ToSql()
	if err != nil {
		return false, err
	}
	return r.exists(ctx, query, args...)
}

// GetByID loads one booking.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	query, args, err := sq.Select(bookingColumns...).From("bookings").Where(sq.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	b, err := scanBooking(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// List returns bookings matching f, newest first.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]*model.Booking, error) {
	query, args, err := listBookingsQuery(f).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus moves a booking from one status to another.  The update is
// conditional on the current status so two racing transitions cannot both
// succeed; the loser gets ErrStaleStatus.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, from, to model.PaymentStatus) error {
	query, args, err := sq.Update("bookings").
		Set("payment_status", string(to)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "payment_status": string(from)}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *BookingRepo) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b      model.Booking
		date   time.Time
		status string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.VenueID, &date, &b.Slot.StartTime, &b.Slot.EndTime,
		&b.TotalAmount, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Date = date.Format(model.DateLayout)
	b.PaymentStatus = model.PaymentStatus(status)
	return &b, nil
}
