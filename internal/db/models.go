package db

import (
	"time"

	"github.com/vinylog/vinylog/internal/album"
)

// Listened record sources.
const (
	SourceManual  = "manual"
	SourceSpotify = "spotify"
)

// User represents an application user profile.
type User struct {
	ID              string
	Email           string
	PasswordHash    string
	Nickname        string
	Avatar          string
	Bio             string
	FavoriteAlbums  []album.Ref // at most 4, enforced at write time
	Spotify         *SpotifyToken
	TopArtists      []TopArtist
	LastSpotifySync *time.Time // nullable
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SpotifyToken is the linked streaming account credential, owned by exactly
// one user. The token is expired when now is past ExpiresAt.
type SpotifyToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"` // computed at save time from expires_in
}

// Expired reports whether the access token is past its expiry.
func (t *SpotifyToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// TopArtist is a snapshot entry of the linked account's long-term top
// artists, refreshed on every sync.
type TopArtist struct {
	Name   string   `json:"name"`
	Image  string   `json:"image,omitempty"`
	Genres []string `json:"genres,omitempty"`
}

// Session represents an authenticated web session.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Favorite represents a favorite-album record. The id is store-assigned;
// uniqueness per (user, album) rests on an application-level existence check
// before insert, so a race between two writers can produce a duplicate.
type Favorite struct {
	ID        string
	UserID    string
	AlbumID   string
	Album     album.Ref
	CreatedAt time.Time
}

// Listened represents a listened-album record. The id is the deterministic
// key "{userID}-{albumID}", which makes duplicate creation structurally
// impossible rather than race-prone.
type Listened struct {
	ID        string
	UserID    string
	AlbumID   string
	Album     album.Ref
	Source    string     // SourceManual or SourceSpotify
	AddedAt   *time.Time // provider timestamp, secondary sort hint; nullable
	CreatedAt time.Time
}

// Comment represents a user comment on an album. CreatedAt is assigned by
// the database so ordering is consistent across clients with skewed clocks.
type Comment struct {
	ID        string
	AlbumID   string
	UserID    string
	UserEmail string
	Body      string
	CreatedAt time.Time
}
