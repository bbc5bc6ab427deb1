package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/iliyamo/venue-booking/internal/model"
)

// VenueFilter narrows a venue listing.  When OrOwnerID is set alongside
// Approved the listing matches venues with that approval state or owned by
// OrOwnerID.
type VenueFilter struct {
	Approved  *bool
	OwnerID   string
	OrOwnerID string
}

var venueColumns = []string{
	"v.id", "v.name", "v.location", "v.owner_id", "v.sport", "v.description",
	"v.images", "v.is_approved", "v.created_at", "v.updated_at",
}

// VenueRepo stores venues and their slots.
type VenueRepo struct{ DB *sql.DB }

func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{DB: db} }

// venueWhere turns a filter into a WHERE predicate, or nil when the filter
// is empty.
func venueWhere(f VenueFilter) sq.Sqlizer {
	var and sq.And
	if f.OwnerID != "" {
		and = append(and, sq.Eq{"v.owner_id": f.OwnerID})
	}
	if f.Approved != nil {
		var cond sq.Sqlizer = sq.Eq{"v.is_approved": *f.Approved}
		if f.OrOwnerID != "" {
			cond = sq.Or{cond, sq.Eq{"v.owner_id": f.OrOwnerID}}
		}
		and = append(and, cond)
	}
	if len(and) == 0 {
		return nil
	}
	return and
}

func listVenuesQuery(f VenueFilter) sq.SelectBuilder {
	q := sq.Select(venueColumns...).From("venues v").OrderBy("v.created_at DESC", "v.id")
	if w := venueWhere(f); w != nil {
		q = q.Where(w)
	}
	return q
}

// Create inserts a venue together with its initial slots.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	images, err := json.Marshal(nonNil(v.Images))
	if err != nil {
		return err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query, args, err := sq.Insert("venues").
		Columns("id", "name", "location", "owner_id", "sport", "description", "images", "is_approved", "created_at", "updated_at").
		Values(v.ID, v.Name, v.Location, v.OwnerID, string(v.Sport), v.Description, images, v.IsApproved, v.CreatedAt, v.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert venue: %w", err)
	}
	if len(v.Slots) > 0 {
		ins := sq.Insert("venue_slots").Columns("id", "venue_id", "start_time", "end_time", "price", "position")
		for i, s := range v.Slots {
			ins = ins.Values(s.ID, v.ID, s.StartTime, s.EndTime, s.Price, i)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert slots: %w", err)
		}
	}
	return tx.Commit()
}

// GetByID loads one venue with its slots.
func (r *VenueRepo) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	query, args, err := sq.Select(venueColumns...).From("venues v").Where(sq.Eq{"v.id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	v, err := scanVenue(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	slots, err := r.slotsFor(ctx, []string{v.ID})
	if err != nil {
		return nil, err
	}
	v.Slots = nonNilSlots(slots[v.ID])
	return v, nil
}

// List returns venues matching f, newest first, with their slots.
func (r *VenueRepo) List(ctx context.Context, f VenueFilter) ([]*model.Venue, error) {
	query, args, err := listVenuesQuery(f).ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryVenues(ctx, query, args...)
}

// ListByIDs returns the venues whose ids are in ids.  Unknown ids are
// skipped.
func (r *VenueRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.Venue, error) {
	if len(ids) == 0 {
		return []*model.Venue{}, nil
	}
	query, args, err := sq.Select(venueColumns...).From("venues v").Where(sq.Eq{"v.id": ids}).ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryVenues(ctx, query, args...)
}

// IDsByOwner returns the ids of all venues owned by ownerID.
func (r *VenueRepo) IDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	query, args, err := sq.Select("id").From("venues").Where(sq.Eq{"owner_id": ownerID}).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update writes the mutable venue fields.  owner_id is never updated.
func (r *VenueRepo) Update(ctx context.Context, v *model.Venue) error {
	images, err := json.Marshal(nonNil(v.Images))
	if err != nil {
		return err
	}
	query, args, err := sq.Update("venues").
		Set("name", v.Name).
		Set("location", v.Location).
		Set("sport", string(v.Sport)).
		Set("description", v.Description).
		Set("images", images).
		Set("updated_at", v.UpdatedAt).
		Where(sq.Eq{"id": v.ID}).
		ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, ErrVenueNotFound, query, args...)
}

// SetApproved sets the approval flag of a venue.
func (r *VenueRepo) SetApproved(ctx context.Context, id string, approved bool) error {
	query, args, err := sq.Update("venues").Set("is_approved", approved).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	// MySQL reports zero affected rows when the value is unchanged, so
	// existence is checked separately.
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return r.exists(ctx, id)
}

// Delete removes a venue.  Slots and favorites cascade; bookings are kept.
func (r *VenueRepo) Delete(ctx context.Context, id string) error {
	query, args, err := sq.Delete("venues").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, ErrVenueNotFound, query, args...)
}

// AddSlot appends a slot to the venue's slot list.
func (r *VenueRepo) AddSlot(ctx context.Context, venueID string, s model.Slot) error {
	query, args, err := sq.Insert("venue_slots").
		Columns("id", "venue_id", "start_time", "end_time", "price", "position").
		Select(sq.Select("?", "?", "?", "?", "?", "COALESCE(MAX(position), -1) + 1").
			From("venue_slots").Where(sq.Eq{"venue_id": venueID})).
		ToSql()
	if err != nil {
		return err
	}
	args = append([]interface{}{s.ID, venueID, s.StartTime, s.EndTime, s.Price}, args...)
	_, err = r.DB.ExecContext(ctx, query, args...)
	return err
}

// RemoveSlot deletes one slot of a venue.
func (r *VenueRepo) RemoveSlot(ctx context.Context, venueID, slotID string) error {
	query, args, err := sq.Delete("venue_slots").Where(sq.Eq{"id": slotID, "venue_id": venueID}).ToSql()
	if err != nil {
		return err
	}
	return r.execOne(ctx, ErrSlotNotFound, query, args...)
}

func (r *VenueRepo) exists(ctx context.Context, id string) error {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM venues WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVenueNotFound
	}
	return err
}

func (r *VenueRepo) execOne(ctx context.Context, notFound error, query string, args ...interface{}) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func (r *VenueRepo) queryVenues(ctx context.Context, query string, args ...interface{}) ([]*model.Venue, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Venue{}
	ids := []string{}
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		ids = append(ids, v.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}
	slots, err := r.slotsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, v := range out {
		v.Slots = nonNilSlots(slots[v.ID])
	}
	return out, nil
}

func (r *VenueRepo) slotsFor(ctx context.Context, venueIDs []string) (map[string][]model.Slot, error) {
	query, args, err := sq.Select("id", "venue_id", "start_time", "end_time", "price").
		From("venue_slots").
		Where(sq.Eq{"venue_id": venueIDs}).
		OrderBy("venue_id", "position").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]model.Slot, len(venueIDs))
	for rows.Next() {
		var (
			s       model.Slot
			venueID string
		)
		if err := rows.Scan(&s.ID, &venueID, &s.StartTime, &s.EndTime, &s.Price); err != nil {
			return nil, err
		}
		out[venueID] = append(out[venueID], s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVenue(row rowScanner) (*model.Venue, error) {
	var (
		v      model.Venue
		sport  string
		desc   sql.NullString
		images []byte
	)
	if err := row.Scan(&v.ID, &v.Name, &v.Location, &v.OwnerID, &sport, &desc,
		&images, &v.IsApproved, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.Sport = model.Sport(sport)
	v.Description = desc.String
	v.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &v.Images); err != nil {
			return nil, fmt.Errorf("decode images of venue %s: %w", v.ID, err)
		}
	}
	return &v, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSlots(s []model.Slot) []model.Slot {
	if s == nil {
		return []model.Slot{}
	}
	return s
}
