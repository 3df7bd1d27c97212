package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vinylog/vinylog/internal/album"
)

// UserRepository handles user database operations.
type UserRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `
	id, email, password_hash, nickname, avatar, bio,
	favorite_albums, spotify_token, spotify_top_artists, last_spotify_sync,
	created_at, updated_at
`

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, nickname, avatar, bio, favorite_albums, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	favorites, err := json.Marshal(user.FavoriteAlbums)
	if err != nil {
		return fmt.Errorf("encoding favorite albums: %w", err)
	}

	now := time.Now()
	_, err = r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Nickname,
		user.Avatar,
		user.Bio,
		favorites,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) scanUser(row pgx.Row) (*User, error) {
	var (
		user       User
		favorites  []byte
		token      []byte
		topArtists []byte
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Nickname,
		&user.Avatar,
		&user.Bio,
		&favorites,
		&token,
		&topArtists,
		&user.LastSpotifySync,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if len(favorites) > 0 {
		if err := json.Unmarshal(favorites, &user.FavoriteAlbums); err != nil {
			return nil, fmt.Errorf("decoding favorite albums: %w", err)
		}
	}
	if len(token) > 0 {
		if err := json.Unmarshal(token, &user.Spotify); err != nil {
			return nil, fmt.Errorf("decoding spotify token: %w", err)
		}
	}
	if len(topArtists) > 0 {
		if err := json.Unmarshal(topArtists, &user.TopArtists); err != nil {
			return nil, fmt.Errorf("decoding top artists: %w", err)
		}
	}
	return &user, nil
}

// UpdateProfile updates the editable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, nickname, avatar, bio string) error {
	query := `
		UPDATE users
		SET nickname = $2, avatar = $3, bio = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, nickname, avatar, bio)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFavoriteAlbums replaces the pinned favorite-albums list. Length is
// validated by the caller before the write.
func (r *UserRepository) SetFavoriteAlbums(ctx context.Context, id string, albums []album.Ref) error {
	encoded, err := json.Marshal(albums)
	if err != nil {
		return fmt.Errorf("encoding favorite albums: %w", err)
	}

	query := `
		UPDATE users
		SET favorite_albums = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, encoded)
	if err != nil {
		return fmt.Errorf("updating favorite albums: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSpotifyToken stores the linked account's token under the user row.
func (r *UserRepository) SaveSpotifyToken(ctx context.Context, id string, token *SpotifyToken) error {
	encoded, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding spotify token: %w", err)
	}

	query := `
		UPDATE users
		SET spotify_token = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, encoded)
	if err != nil {
		return fmt.Errorf("saving spotify token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearSpotify removes the linked account token and its cached snapshot.
func (r *UserRepository) ClearSpotify(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET spotify_token = NULL, spotify_top_artists = NULL, last_spotify_sync = NULL, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("clearing spotify link: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
