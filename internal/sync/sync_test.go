package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/vinylog/vinylog/internal/cache"
	"github.com/vinylog/vinylog/internal/db"
	"github.com/vinylog/vinylog/internal/spotify"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeAuth struct {
	exchangeToken *oauth2.Token
	exchangeErr   error
	refreshToken  *oauth2.Token
	refreshErr    error
	refreshCalls  int
}

func (f *fakeAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (f *fakeAuth) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.exchangeToken, nil
}

func (f *fakeAuth) Refresh(_ context.Context, refreshToken string) (*oauth2.Token, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshToken, nil
}

type fakeLibrary struct {
	saved      []spotify.SavedAlbum
	topArtists []spotify.TopArtist
	recent     []spotify.PlayedTrack
	profile    *spotify.Profile
	savedErr   error
}

func (f *fakeLibrary) SavedAlbums(_ context.Context) ([]spotify.SavedAlbum, error) {
	if f.savedErr != nil {
		return nil, f.savedErr
	}
	return f.saved, nil
}

func (f *fakeLibrary) TopArtists(_ context.Context) ([]spotify.TopArtist, error) {
	return f.topArtists, nil
}

func (f *fakeLibrary) RecentlyPlayed(_ context.Context) ([]spotify.PlayedTrack, error) {
	return f.recent, nil
}

func (f *fakeLibrary) CurrentProfile(_ context.Context) (*spotify.Profile, error) {
	return f.profile, nil
}

type fakeStore struct {
	users map[string]*db.User

	// listened records by id, simulating the listened table.
	records map[string]db.Listened

	replaceErr   error
	replaceCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[string]*db.User),
		records: make(map[string]db.Listened),
	}
}

func (f *fakeStore) Get(_ context.Context, id string) (*db.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) SaveSpotifyToken(_ context.Context, id string, token *db.SpotifyToken) error {
	user, ok := f.users[id]
	if !ok {
		return db.ErrNotFound
	}
	user.Spotify = token
	return nil
}

func (f *fakeStore) ClearSpotify(_ context.Context, id string) error {
	user, ok := f.users[id]
	if !ok {
		return db.ErrNotFound
	}
	user.Spotify = nil
	user.TopArtists = nil
	user.LastSpotifySync = nil
	return nil
}

func (f *fakeStore) ReplaceSpotifyLibrary(_ context.Context, userID string, records []db.Listened, topArtists []db.TopArtist, syncedAt time.Time) error {
	f.replaceCalls++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	// All-or-nothing: drop prior spotify rows, insert the new set.
	for id, rec := range f.records {
		if rec.UserID == userID && rec.Source == db.SourceSpotify {
			delete(f.records, id)
		}
	}
	for _, rec := range records {
		f.records[rec.ID] = rec
	}
	if user, ok := f.users[userID]; ok {
		user.TopArtists = topArtists
		user.LastSpotifySync = &syncedAt
	}
	return nil
}

func (f *fakeStore) SpotifyAlbumIDs(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for _, rec := range f.records {
		if rec.UserID == userID && rec.Source == db.SourceSpotify {
			ids = append(ids, rec.AlbumID)
		}
	}
	return ids, nil
}

func (f *fakeStore) DeleteSpotifyRecords(_ context.Context, userID string) error {
	for id, rec := range f.records {
		if rec.UserID == userID && rec.Source == db.SourceSpotify {
			delete(f.records, id)
		}
	}
	return nil
}

func (f *fakeStore) spotifyCount(userID string) int {
	n := 0
	for _, rec := range f.records {
		if rec.UserID == userID && rec.Source == db.SourceSpotify {
			n++
		}
	}
	return n
}

func newTestEngine(auth *fakeAuth, lib *fakeLibrary, store *fakeStore) *Engine {
	engine, _ := newTestEngineWithCache(auth, lib, store)
	return engine
}

func newTestEngineWithCache(auth *fakeAuth, lib *fakeLibrary, store *fakeStore) (*Engine, *cache.Cache) {
	c := cache.New(1, time.Minute)
	engine := New(
		auth,
		func(ctx context.Context, accessToken string) Library { return lib },
		store,
		store,
		c,
		zerolog.Nop(),
	)
	engine.now = func() time.Time { return testNow }
	return engine, c
}

func validToken() *db.SpotifyToken {
	return &db.SpotifyToken{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiresAt:    testNow.Add(time.Hour),
	}
}

func savedAlbums(names ...string) []spotify.SavedAlbum {
	albums := make([]spotify.SavedAlbum, 0, len(names))
	for i, name := range names {
		albums = append(albums, spotify.SavedAlbum{
			Name:    name,
			Artist:  "Radiohead",
			AddedAt: testNow.Add(-time.Duration(i) * time.Hour),
		})
	}
	return albums
}

func TestBeginConnect(t *testing.T) {
	auth := &fakeAuth{}
	engine := newTestEngine(auth, &fakeLibrary{}, newFakeStore())

	url, state, err := engine.BeginConnect()
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.Contains(t, url, "state="+state)
}

func TestCompleteConnectExchangesAndSyncs(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1"}

	auth := &fakeAuth{
		exchangeToken: &oauth2.Token{
			AccessToken:  "fresh-access",
			RefreshToken: "fresh-refresh",
			TokenType:    "Bearer",
			Expiry:       testNow.Add(time.Hour),
		},
	}
	lib := &fakeLibrary{
		saved:      savedAlbums("OK Computer", "Kid A"),
		topArtists: []spotify.TopArtist{{Name: "Radiohead", Genres: []string{"rock"}}},
	}

	engine := newTestEngine(auth, lib, store)
	result, err := engine.CompleteConnect(context.Background(), "u1", "auth-code")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.TopArtists)

	user := store.users["u1"]
	require.NotNil(t, user.Spotify)
	assert.Equal(t, "fresh-access", user.Spotify.AccessToken)
	assert.Equal(t, testNow.Add(time.Hour), user.Spotify.ExpiresAt)
	assert.Equal(t, 2, store.spotifyCount("u1"))
}

func TestCompleteConnectExchangeFailure(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1"}
	auth := &fakeAuth{exchangeErr: errors.New("invalid_grant")}

	engine := newTestEngine(auth, &fakeLibrary{}, store)
	_, err := engine.CompleteConnect(context.Background(), "u1", "bad-code")
	require.Error(t, err)

	// State remains disconnected: no token was persisted.
	assert.Nil(t, store.users["u1"].Spotify)
}

func TestSyncNotConnected(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1"}

	engine := newTestEngine(&fakeAuth{}, &fakeLibrary{}, store)
	_, err := engine.Sync(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSyncReplacesPriorImport(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1", Spotify: validToken()}

	lib := &fakeLibrary{saved: savedAlbums("OK Computer", "Kid A", "Amnesiac")}
	engine := newTestEngine(&fakeAuth{}, lib, store)
	ctx := context.Background()

	_, err := engine.Sync(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, store.spotifyCount("u1"))

	// The provider set shrank; the next cycle must leave exactly the new set,
	// no leftovers from the previous cycle's difference.
	lib.saved = savedAlbums("In Rainbows")
	result, err := engine.Sync(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, store.spotifyCount("u1"))
	_, ok := store.records["u1-radiohead-in-rainbows"]
	assert.True(t, ok, "record must live at its deterministic key")
}

func TestSyncPreservesManualRecords(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1", Spotify: validToken()}
	store.records["u1-nirvana-nevermind"] = db.Listened{
		ID: "u1-nirvana-nevermind", UserID: "u1", AlbumID: "nirvana-nevermind", Source: db.SourceManual,
	}

	engine := newTestEngine(&fakeAuth{}, &fakeLibrary{saved: savedAlbums("OK Computer")}, store)
	_, err := engine.Sync(context.Background(), "u1")
	require.NoError(t, err)

	_, ok := store.records["u1-nirvana-nevermind"]
	assert.True(t, ok, "manual records must survive a sync")
}

func TestSyncRefreshesExpiredToken(t *testing.T) {
	store := newFakeStore()
	expired := validToken()
	expired.ExpiresAt = testNow.Add(-time.Minute)
	store.users["u1"] = &db.User{ID: "u1", Spotify: expired}

	auth := &fakeAuth{
		refreshToken: &oauth2.Token{
			AccessToken: "refreshed-access",
			TokenType:   "Bearer",
			Expiry:      testNow.Add(time.Hour),
		},
	}
	engine := newTestEngine(auth, &fakeLibrary{saved: savedAlbums("Kid A")}, store)

	_, err := engine.Sync(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, auth.refreshCalls)

	token := store.users["u1"].Spotify
	require.NotNil(t, token)
	assert.Equal(t, "refreshed-access", token.AccessToken)
	// Provider omitted the refresh token; the old one carries forward.
	assert.Equal(t, "refresh", token.RefreshToken)
}

func TestSyncFreshTokenSkipsRefresh(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1", Spotify: validToken()}

	auth := &fakeAuth{}
	engine := newTestEngine(auth, &fakeLibrary{}, store)

	_, err := engine.Sync(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, auth.refreshCalls)
}

func TestSyncRefreshFailure(t *testing.T) {
	store := newFakeStore()
	expired := validToken()
	expired.ExpiresAt = testNow.Add(-time.Minute)
	store.users["u1"] = &db.User{ID: "u1", Spotify: expired}

	auth := &fakeAuth{refreshErr: errors.New("invalid_grant")}
	engine := newTestEngine(auth, &fakeLibrary{}, store)

	_, err := engine.Sync(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrRefreshFailed)

	// The stale token record is not deleted.
	assert.NotNil(t, store.users["u1"].Spotify)
}

func TestSyncFetchFailureLeavesStoreUntouched(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1", Spotify: validToken()}
	store.records["u1-radiohead-kid-a"] = db.Listened{
		ID: "u1-radiohead-kid-a", UserID: "u1", AlbumID: "radiohead-kid-a", Source: db.SourceSpotify,
	}

	lib := &fakeLibrary{savedErr: errors.New("upstream 502")}
	engine := newTestEngine(&fakeAuth{}, lib, store)

	_, err := engine.Sync(context.Background(), "u1")
	require.Error(t, err)
	assert.Zero(t, store.replaceCalls, "failed fetch must not reach the store")
	assert.Equal(t, 1, store.spotifyCount("u1"))
}

func TestSyncCollapsesKeyCollisions(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1", Spotify: validToken()}

	// Same album saved under casing variants normalizes to one key.
	lib := &fakeLibrary{saved: []spotify.SavedAlbum{
		{Name: "OK Computer", Artist: "Radiohead"},
		{Name: "ok computer", Artist: "RADIOHEAD"},
	}}
	engine := newTestEngine(&fakeAuth{}, lib, store)

	result, err := engine.Sync(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestSyncInvalidatesDroppedAlbums(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1", Spotify: validToken()}

	lib := &fakeLibrary{saved: savedAlbums("OK Computer")}
	engine, c := newTestEngineWithCache(&fakeAuth{}, lib, store)
	ctx := context.Background()

	_, err := engine.Sync(ctx, "u1")
	require.NoError(t, err)

	// A status entry cached while the album was imported.
	statusKey := cache.AlbumStatus("u1", "radiohead-ok-computer")
	c.Set(statusKey, map[string]bool{"isListened": true})

	// The next cycle no longer has the album; its status entry must go.
	lib.saved = savedAlbums("In Rainbows")
	_, err = engine.Sync(ctx, "u1")
	require.NoError(t, err)

	var stale map[string]bool
	assert.False(t, c.Get(statusKey, &stale), "dropped album must not keep a cached status")
}

func TestDisconnectInvalidatesImportedAlbums(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1", Spotify: validToken()}

	engine, c := newTestEngineWithCache(&fakeAuth{}, &fakeLibrary{saved: savedAlbums("Kid A")}, store)
	ctx := context.Background()

	_, err := engine.Sync(ctx, "u1")
	require.NoError(t, err)

	statusKey := cache.AlbumStatus("u1", "radiohead-kid-a")
	c.Set(statusKey, map[string]bool{"isListened": true})

	require.NoError(t, engine.Disconnect(ctx, "u1"))

	var stale map[string]bool
	assert.False(t, c.Get(statusKey, &stale), "unlinked import must not keep cached status entries")
}

func TestStatusReportsExpiredToken(t *testing.T) {
	store := newFakeStore()
	expired := validToken()
	expired.ExpiresAt = testNow.Add(-time.Minute)
	store.users["u1"] = &db.User{ID: "u1", Spotify: expired}

	engine := newTestEngine(&fakeAuth{}, &fakeLibrary{}, store)

	connection, err := engine.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, connection.Connected)
	assert.False(t, connection.TokenValid, "an expired token is the reconnect cue")

	store.users["u1"].Spotify = validToken()
	connection, err = engine.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, connection.TokenValid)
}

func TestOverview(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1", Spotify: validToken()}

	lib := &fakeLibrary{
		profile: &spotify.Profile{ID: "sp1", DisplayName: "Ana", Playlists: 12},
		recent: []spotify.PlayedTrack{
			{Track: "Reckoner", Artist: "Radiohead", Album: "In Rainbows", PlayedAt: testNow},
		},
	}
	engine := newTestEngine(&fakeAuth{}, lib, store)

	overview, err := engine.Overview(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", overview.Profile.DisplayName)
	require.Len(t, overview.RecentlyPlayed, 1)
	assert.Equal(t, "Reckoner", overview.RecentlyPlayed[0].Track)
}

func TestOverviewNotConnected(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1"}

	engine := newTestEngine(&fakeAuth{}, &fakeLibrary{}, store)
	_, err := engine.Overview(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestDisconnect(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = &db.User{ID: "u1", Spotify: validToken()}
	store.records["u1-radiohead-kid-a"] = db.Listened{
		ID: "u1-radiohead-kid-a", UserID: "u1", AlbumID: "radiohead-kid-a", Source: db.SourceSpotify,
	}
	store.records["u1-nirvana-nevermind"] = db.Listened{
		ID: "u1-nirvana-nevermind", UserID: "u1", AlbumID: "nirvana-nevermind", Source: db.SourceManual,
	}

	engine := newTestEngine(&fakeAuth{}, &fakeLibrary{}, store)
	require.NoError(t, engine.Disconnect(context.Background(), "u1"))

	assert.Nil(t, store.users["u1"].Spotify)
	assert.Zero(t, store.spotifyCount("u1"))
	_, ok := store.records["u1-nirvana-nevermind"]
	assert.True(t, ok, "manual records must survive an unlink")

	status, err := engine.Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, status.Connected)
}
