package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FavoriteRepository handles favorite-record database operations.
type FavoriteRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new favorite record. The caller is expected to have run
// Find first; there is no store-level uniqueness constraint on
// (user_id, album_id), so two racing inserts can both succeed.
func (r *FavoriteRepository) Create(ctx context.Context, fav *Favorite) error {
	query := `
		INSERT INTO favorites (id, user_id, album_id, album_name, album_artist, album_image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		fav.ID,
		fav.UserID,
		fav.AlbumID,
		fav.Album.Name,
		fav.Album.Artist,
		fav.Album.Image,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting favorite: %w", err)
	}
	fav.CreatedAt = now
	return nil
}

// Find looks up the favorite record for (userID, albumID). This is the
// existence check backing the toggle; ErrNotFound is a valid state, not a
// failure.
func (r *FavoriteRepository) Find(ctx context.Context, userID, albumID string) (*Favorite, error) {
	query := `
		SELECT id, user_id, album_id, album_name, album_artist, album_image, created_at
		FROM favorites
		WHERE user_id = $1 AND album_id = $2
	`
	var fav Favorite
	err := r.pool.QueryRow(ctx, query, userID, albumID).Scan(
		&fav.ID,
		&fav.UserID,
		&fav.AlbumID,
		&fav.Album.Name,
		&fav.Album.Artist,
		&fav.Album.Image,
		&fav.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying favorite: %w", err)
	}
	return &fav, nil
}

// Delete removes a favorite record by its store-assigned id.
func (r *FavoriteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM favorites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns a user's favorites, most recent first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]Favorite, error) {
	query := `
		SELECT id, user_id, album_id, album_name, album_artist, album_image, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	var favorites []Favorite
	for rows.Next() {
		var fav Favorite
		if err := rows.Scan(
			&fav.ID,
			&fav.UserID,
			&fav.AlbumID,
			&fav.Album.Name,
			&fav.Album.Artist,
			&fav.Album.Image,
			&fav.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning favorite: %w", err)
		}
		favorites = append(favorites, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating favorites: %w", err)
	}
	return favorites, nil
}
