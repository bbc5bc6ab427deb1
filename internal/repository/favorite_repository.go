package repository

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
)

// FavoriteRepo stores the (user, venue) favorites relation.
type FavoriteRepo struct{ DB *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{DB: db} }

// Add records venueID as a favorite of userID.
func (r *FavoriteRepo) Add(ctx context.Context, userID, venueID string) error {
	query, args, err := sq.Insert("favorites").Columns("user_id", "venue_id").Values(userID, venueID).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return ErrFavoriteExists
		}
		return err
	}
	return nil
}

// Remove deletes a favorite.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, venueID string) error {
	query, args, err := sq.Delete("favorites").Where(sq.Eq{"user_id": userID, "venue_id": venueID}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// VenueIDs lists the user's favorite venue ids, oldest first.
func (r *FavoriteRepo) VenueIDs(ctx context.Context, userID string) ([]string, error) {
	query, args, err := sq.Select("venue_id").From("favorites").
		Where(sq.Eq{"user_id": userID}).OrderBy("created_at", "venue_id").ToSql()
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

// Exists reports whether venueID is a favorite of userID.
func (r *FavoriteRepo) Exists(ctx context.Context, userID, venueID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM favorites WHERE user_id=? AND venue_id=? LIMIT 1", userID, venueID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
