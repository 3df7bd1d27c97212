package db

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
)

// ReplaceSpotifyLibrary swaps the user's spotify-sourced listened records for
// the given set and refreshes the profile's top-artists snapshot. The delete,
// the inserts, and the snapshot update are queued into one batch and sent
// inside a single transaction: a partial replace would silently drop
// previously imported albums, so this is the one place an all-or-nothing
// guarantee is provided.
func (db *DB) ReplaceSpotifyLibrary(ctx context.Context, userID string, records []Listened, topArtists []TopArtist, syncedAt time.Time) error {
	encoded, err := json.Marshal(topArtists)
	if err != nil {
		return fmt.Errorf("encoding top artists: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(
		`DELETE FROM listened WHERE user_id = $1 AND source = $2`,
		userID, SourceSpotify,
	)
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO listened (id, user_id, album_id, album_name, album_artist, album_image, source, added_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				album_name = EXCLUDED.album_name,
				album_artist = EXCLUDED.album_artist,
				album_image = EXCLUDED.album_image,
				source = EXCLUDED.source,
				added_at = EXCLUDED.added_at
		`,
			rec.ID,
			rec.UserID,
			rec.AlbumID,
			rec.Album.Name,
			rec.Album.Artist,
			rec.Album.Image,
			rec.Source,
			rec.AddedAt,
			syncedAt,
		)
	}
	batch.Queue(`
		UPDATE users
		SET spotify_top_artists = $2, last_spotify_sync = $3, updated_at = NOW()
		WHERE id = $1
	`, userID, encoded, syncedAt)

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("executing spotify replace batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing spotify replace: %w", err)
	}
	return nil
}

// SpotifyAlbumIDs returns the album ids of the user's spotify-sourced
// listened records, used to invalidate status entries for albums a replace or
// unlink drops.
func (db *DB) SpotifyAlbumIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT album_id FROM listened WHERE user_id = $1 AND source = $2`,
		userID, SourceSpotify,
	)
	if err != nil {
		return nil, fmt.Errorf("querying spotify album ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning album id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading album ids: %w", err)
	}
	return ids, nil
}

// DeleteSpotifyRecords removes every spotify-sourced listened record for the
// user, used when unlinking the streaming account.
func (db *DB) DeleteSpotifyRecords(ctx context.Context, userID string) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM listened WHERE user_id = $1 AND source = $2`,
		userID, SourceSpotify,
	)
	if err != nil {
		return fmt.Errorf("deleting spotify records: %w", err)
	}
	return nil
}
