// Package sync orchestrates the streaming-account link/sync lifecycle:
// token freshness check, refresh, library fetch, and the transactional
// replace of imported listened records.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/vinylog/vinylog/internal/album"
	"github.com/vinylog/vinylog/internal/cache"
	"github.com/vinylog/vinylog/internal/db"
	"github.com/vinylog/vinylog/internal/spotify"
)

// Common errors.
var (
	// ErrNotConnected is returned when the user has no linked streaming
	// account.
	ErrNotConnected = errors.New("spotify account not connected")

	// ErrRefreshFailed is returned when the token refresh exchange fails.
	// The user is effectively disconnected; the stale token record is left
	// in place.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// Authorizer performs the OAuth exchanges against the streaming provider.
type Authorizer interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Library fetches the linked account's data with an already-authenticated
// client.
type Library interface {
	SavedAlbums(ctx context.Context) ([]spotify.SavedAlbum, error)
	TopArtists(ctx context.Context) ([]spotify.TopArtist, error)
	RecentlyPlayed(ctx context.Context) ([]spotify.PlayedTrack, error)
	CurrentProfile(ctx context.Context) (*spotify.Profile, error)
}

// LibraryFactory builds a Library for the given access token.
type LibraryFactory func(ctx context.Context, accessToken string) Library

// ProfileStore is the slice of the user repository the engine needs.
type ProfileStore interface {
	Get(ctx context.Context, id string) (*db.User, error)
	SaveSpotifyToken(ctx context.Context, id string, token *db.SpotifyToken) error
	ClearSpotify(ctx context.Context, id string) error
}

// LibraryStore persists imported library data.
type LibraryStore interface {
	ReplaceSpotifyLibrary(ctx context.Context, userID string, records []db.Listened, topArtists []db.TopArtist, syncedAt time.Time) error
	DeleteSpotifyRecords(ctx context.Context, userID string) error
	SpotifyAlbumIDs(ctx context.Context, userID string) ([]string, error)
}

// Result reports what a sync cycle imported.
type Result struct {
	Imported   int       `json:"imported"`
	TopArtists int       `json:"topArtists"`
	SyncedAt   time.Time `json:"syncedAt"`
}

// Connection describes the link state the profile view renders. Connected
// reports token presence; TokenValid goes false once the stored token is past
// its expiry, which after a failed refresh is the cue to offer a reconnect.
type Connection struct {
	Connected  bool           `json:"connected"`
	TokenValid bool           `json:"tokenValid"`
	LastSync   *time.Time     `json:"lastSync,omitempty"`
	TopArtists []db.TopArtist `json:"topArtists,omitempty"`
}

// Overview is the linked account's live view: provider profile plus the
// recent listening history. Fetched on demand, never stored.
type Overview struct {
	Profile        *spotify.Profile      `json:"profile"`
	RecentlyPlayed []spotify.PlayedTrack `json:"recentlyPlayed"`
}

// Engine drives the link/sync state machine. Connection state is derived
// from the stored token: no token means disconnected, a stored token means
// connected, and a sync in flight is observable only through its result.
type Engine struct {
	auth     Authorizer
	library  LibraryFactory
	profiles ProfileStore
	store    LibraryStore
	cache    *cache.Cache
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a sync engine.
func New(auth Authorizer, library LibraryFactory, profiles ProfileStore, store LibraryStore, c *cache.Cache, logger zerolog.Logger) *Engine {
	return &Engine{
		auth:     auth,
		library:  library,
		profiles: profiles,
		store:    store,
		cache:    c,
		logger:   logger.With().Str("component", "sync").Logger(),
		now:      time.Now,
	}
}

// BeginConnect starts the link flow: it returns the provider authorization
// URL and the anti-forgery state token the callback must echo back.
func (e *Engine) BeginConnect() (authURL, state string, err error) {
	state, err = spotify.GenerateState()
	if err != nil {
		return "", "", fmt.Errorf("generating state: %w", err)
	}
	return e.auth.AuthCodeURL(state), state, nil
}

// CompleteConnect finishes the link flow with the authorization code from
// the provider redirect: exchange, persist the token under the user profile,
// then run the first sync immediately. An exchange failure leaves the user
// disconnected.
func (e *Engine) CompleteConnect(ctx context.Context, userID, code string) (*Result, error) {
	token, err := e.auth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := e.profiles.SaveSpotifyToken(ctx, userID, tokenRecord(token)); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}

	e.logger.Info().Str("user_id", userID).Msg("spotify account linked")
	return e.Sync(ctx, userID)
}

// Sync imports the linked account's library. The engine refreshes the token
// first when it is expired; it then fetches saved albums and top artists
// concurrently and replaces all previously imported records in one
// transaction, so the store never holds a partial import.
func (e *Engine) Sync(ctx context.Context, userID string) (*Result, error) {
	token, err := e.freshToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	lib := e.library(ctx, token.AccessToken)

	var (
		saved      []spotify.SavedAlbum
		topArtists []spotify.TopArtist
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		saved, err = lib.SavedAlbums(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		topArtists, err = lib.TopArtists(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching library: %w", err)
	}

	syncedAt := e.now()
	records := buildRecords(userID, saved)
	artists := make([]db.TopArtist, 0, len(topArtists))
	for _, a := range topArtists {
		artists = append(artists, db.TopArtist{Name: a.Name, Image: a.Image, Genres: a.Genres})
	}

	// The prior import's album ids are captured before the replace: albums it
	// drops need their status entries invalidated too.
	priorIDs, err := e.store.SpotifyAlbumIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing prior import: %w", err)
	}

	if err := e.store.ReplaceSpotifyLibrary(ctx, userID, records, artists, syncedAt); err != nil {
		return nil, fmt.Errorf("replacing library: %w", err)
	}

	e.invalidate(userID, records, priorIDs)
	e.logger.Info().
		Str("user_id", userID).
		Int("albums", len(records)).
		Int("top_artists", len(artists)).
		Msg("spotify sync completed")

	return &Result{
		Imported:   len(records),
		TopArtists: len(artists),
		SyncedAt:   syncedAt,
	}, nil
}

// Overview fetches the linked account's provider profile and recently played
// tracks, concurrently and on demand.
func (e *Engine) Overview(ctx context.Context, userID string) (*Overview, error) {
	token, err := e.freshToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	lib := e.library(ctx, token.AccessToken)
	overview := &Overview{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		overview.Profile, err = lib.CurrentProfile(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		overview.RecentlyPlayed, err = lib.RecentlyPlayed(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching account overview: %w", err)
	}

	if overview.RecentlyPlayed == nil {
		overview.RecentlyPlayed = []spotify.PlayedTrack{}
	}
	return overview, nil
}

// freshToken loads the stored token and refreshes it first when expired. A
// refreshed token is persisted before use; the provider may omit the refresh
// token, in which case the old one carries forward.
func (e *Engine) freshToken(ctx context.Context, userID string) (*db.SpotifyToken, error) {
	user, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if user.Spotify == nil {
		return nil, ErrNotConnected
	}

	token := user.Spotify
	if !token.Expired(e.now()) {
		return token, nil
	}

	refreshed, err := e.auth.Refresh(ctx, token.RefreshToken)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID).Msg("token refresh failed")
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	token = tokenRecord(refreshed)
	if token.RefreshToken == "" {
		token.RefreshToken = user.Spotify.RefreshToken
	}
	if err := e.profiles.SaveSpotifyToken(ctx, userID, token); err != nil {
		return nil, fmt.Errorf("saving refreshed token: %w", err)
	}
	return token, nil
}

// Disconnect unlinks the streaming account: the stored token is cleared and
// every imported record is removed.
func (e *Engine) Disconnect(ctx context.Context, userID string) error {
	priorIDs, err := e.store.SpotifyAlbumIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing imported records: %w", err)
	}

	if err := e.profiles.ClearSpotify(ctx, userID); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	if err := e.store.DeleteSpotifyRecords(ctx, userID); err != nil {
		return fmt.Errorf("deleting imported records: %w", err)
	}

	e.invalidate(userID, nil, priorIDs)
	e.logger.Info().Str("user_id", userID).Msg("spotify account unlinked")
	return nil
}

// Status reports the current link state.
func (e *Engine) Status(ctx context.Context, userID string) (*Connection, error) {
	user, err := e.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return &Connection{
		Connected:  user.Spotify != nil,
		TokenValid: user.Spotify != nil && !user.Spotify.Expired(e.now()),
		LastSync:   user.LastSpotifySync,
		TopArtists: user.TopArtists,
	}, nil
}

// buildRecords maps saved albums to listened records at their deterministic
// keys. Two saved albums normalizing to the same identity key collapse into
// one record; the provider's added-at timestamp is kept as a sort hint.
func buildRecords(userID string, saved []spotify.SavedAlbum) []db.Listened {
	records := make([]db.Listened, 0, len(saved))
	seen := make(map[string]bool, len(saved))

	for _, sa := range saved {
		albumID := album.Key(sa.Artist, sa.Name)
		if albumID == "" || seen[albumID] {
			continue
		}
		seen[albumID] = true

		addedAt := sa.AddedAt
		records = append(records, db.Listened{
			ID:      album.ListenedID(userID, albumID),
			UserID:  userID,
			AlbumID: albumID,
			Album: album.Ref{
				Name:   sa.Name,
				Artist: sa.Artist,
				Image:  sa.Image,
			},
			Source:  db.SourceSpotify,
			AddedAt: &addedAt,
		})
	}
	return records
}

// invalidate drops the listened list and the per-album status entries the
// import touched: both the albums it wrote and the prior import's albums it
// dropped.
func (e *Engine) invalidate(userID string, records []db.Listened, priorAlbumIDs []string) {
	seen := make(map[string]bool, len(records)+len(priorAlbumIDs))
	keys := make([]cache.Key, 0, len(records)+len(priorAlbumIDs)+1)
	keys = append(keys, cache.UserListened(userID))

	for _, rec := range records {
		if !seen[rec.AlbumID] {
			seen[rec.AlbumID] = true
			keys = append(keys, cache.AlbumStatus(userID, rec.AlbumID))
		}
	}
	for _, albumID := range priorAlbumIDs {
		if !seen[albumID] {
			seen[albumID] = true
			keys = append(keys, cache.AlbumStatus(userID, albumID))
		}
	}
	e.cache.Invalidate(keys...)
}

// tokenRecord converts an OAuth token to its stored form. Expiry is absolute
// (computed by the OAuth client from expires_in at exchange time), so
// expiration checks need no per-call arithmetic.
func tokenRecord(token *oauth2.Token) *db.SpotifyToken {
	return &db.SpotifyToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry,
	}
}
