// Package account provides profile read/update and account deletion.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/vinylog/vinylog/internal/album"
	"github.com/vinylog/vinylog/internal/db"
)

// ErrTooManyFavorites is returned when more than four pinned favorite albums
// are submitted.
var ErrTooManyFavorites = errors.New("at most 4 favorite albums")

// ProfileInput is the editable slice of the profile.
type ProfileInput struct {
	Nickname string `json:"nickname" validate:"required,max=50"`
	Avatar   string `json:"avatar"   validate:"omitempty,url,startswith=http"`
	Bio      string `json:"bio"      validate:"max=500"`
}

// Profile is the profile view returned to the client. The password hash never
// leaves this package.
type Profile struct {
	ID              string         `json:"id"`
	Email           string         `json:"email"`
	Nickname        string         `json:"nickname"`
	Avatar          string         `json:"avatar,omitempty"`
	Bio             string         `json:"bio,omitempty"`
	FavoriteAlbums  []album.Ref    `json:"favoriteAlbums"`
	SpotifyLinked   bool           `json:"spotifyLinked"`
	LastSpotifySync *time.Time     `json:"lastSpotifySync,omitempty"`
	TopArtists      []db.TopArtist `json:"topArtists,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// UserStore is the slice of the user repository the service needs.
type UserStore interface {
	Get(ctx context.Context, id string) (*db.User, error)
	UpdateProfile(ctx context.Context, id, nickname, avatar, bio string) error
	SetFavoriteAlbums(ctx context.Context, id string, albums []album.Ref) error
}

// Purger deletes all account data.
type Purger interface {
	PurgeUser(ctx context.Context, userID string) error
}

// Service implements the account operations.
type Service struct {
	users    UserStore
	purger   Purger
	validate *validator.Validate
	logger   zerolog.Logger
}

// New creates an account service.
func New(users UserStore, purger Purger, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		purger:   purger,
		validate: validator.New(),
		logger:   logger.With().Str("component", "account").Logger(),
	}
}

// GetProfile returns the user's profile view.
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return profileView(user), nil
}

// UpdateProfile validates and applies the editable profile fields, returning
// the refreshed view.
func (s *Service) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*Profile, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("validating profile: %w", err)
	}

	if err := s.users.UpdateProfile(ctx, userID, input.Nickname, input.Avatar, input.Bio); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

// SetFavoriteAlbums replaces the pinned favorite-albums list, capped at four.
func (s *Service) SetFavoriteAlbums(ctx context.Context, userID string, albums []album.Ref) error {
	if len(albums) > 4 {
		return ErrTooManyFavorites
	}
	if albums == nil {
		albums = []album.Ref{}
	}
	if err := s.users.SetFavoriteAlbums(ctx, userID, albums); err != nil {
		return fmt.Errorf("setting favorite albums: %w", err)
	}
	return nil
}

// DeleteAccount removes the account and everything it owns. Data rows go
// before the identity row inside one transaction, so a failure never leaves
// an identity-less data trail.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.purger.PurgeUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Msg("account deleted")
	return nil
}

func profileView(user *db.User) *Profile {
	favorites := user.FavoriteAlbums
	if favorites == nil {
		favorites = []album.Ref{}
	}
	return &Profile{
		ID:              user.ID,
		Email:           user.Email,
		Nickname:        user.Nickname,
		Avatar:          user.Avatar,
		Bio:             user.Bio,
		FavoriteAlbums:  favorites,
		SpotifyLinked:   user.Spotify != nil,
		LastSpotifySync: user.LastSpotifySync,
		TopArtists:      user.TopArtists,
		CreatedAt:       user.CreatedAt,
	}
}
