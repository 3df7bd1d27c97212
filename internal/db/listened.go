package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListenedRepository handles listened-record database operations. Rows are
// keyed by the deterministic id "{userID}-{albumID}", so a duplicate insert
// for the same (user, album) pair conflicts at the primary key rather than
// silently creating a second row.
type ListenedRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new listened record at its deterministic key.
func (r *ListenedRepository) Create(ctx context.Context, rec *Listened) error {
	query := `
		INSERT INTO listened (id, user_id, album_id, album_name, album_artist, album_image, source, added_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.AlbumID,
		rec.Album.Name,
		rec.Album.Artist,
		rec.Album.Image,
		rec.Source,
		rec.AddedAt,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting listened record: %w", err)
	}
	rec.CreatedAt = now
	return nil
}

// Get fetches a listened record directly by its deterministic key.
func (r *ListenedRepository) Get(ctx context.Context, id string) (*Listened, error) {
	query := `
		SELECT id, user_id, album_id, album_name, album_artist, album_image, source, added_at, created_at
		FROM listened
		WHERE id = $1
	`
	var rec Listened
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.AlbumID,
		&rec.Album.Name,
		&rec.Album.Artist,
		&rec.Album.Image,
		&rec.Source,
		&rec.AddedAt,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying listened record: %w", err)
	}
	return &rec, nil
}

// Delete removes a listened record by its deterministic key.
func (r *ListenedRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM listened WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting listened record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns a user's listened records, most recent first.
func (r *ListenedRepository) ListByUser(ctx context.Context, userID string) ([]Listened, error) {
	query := `
		SELECT id, user_id, album_id, album_name, album_artist, album_image, source, added_at, created_at
		FROM listened
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.queryList(ctx, query, userID)
}

// ListByUserAndSource returns a user's listened records filtered by source.
func (r *ListenedRepository) ListByUserAndSource(ctx context.Context, userID, source string) ([]Listened, error) {
	query := `
		SELECT id, user_id, album_id, album_name, album_artist, album_image, source, added_at, created_at
		FROM listened
		WHERE user_id = $1 AND source = $2
		ORDER BY created_at DESC
	`
	return r.queryList(ctx, query, userID, source)
}

func (r *ListenedRepository) queryList(ctx context.Context, query string, args ...any) ([]Listened, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying listened records: %w", err)
	}
	defer rows.Close()

	var records []Listened
	for rows.Next() {
		var rec Listened
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.AlbumID,
			&rec.Album.Name,
			&rec.Album.Artist,
			&rec.Album.Image,
			&rec.Source,
			&rec.AddedAt,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning listened record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listened records: %w", err)
	}
	return records, nil
}
