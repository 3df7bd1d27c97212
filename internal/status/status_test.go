package status

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylog/vinylog/internal/album"
	"github.com/vinylog/vinylog/internal/cache"
	"github.com/vinylog/vinylog/internal/db"
)

type fakeFavorites struct {
	records map[string]*db.Favorite // by id
}

func newFakeFavorites() *fakeFavorites {
	return &fakeFavorites{records: make(map[string]*db.Favorite)}
}

func (f *fakeFavorites) Find(_ context.Context, userID, albumID string) (*db.Favorite, error) {
	for _, fav := range f.records {
		if fav.UserID == userID && fav.AlbumID == albumID {
			return fav, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeFavorites) Create(_ context.Context, fav *db.Favorite) error {
	f.records[fav.ID] = fav
	return nil
}

func (f *fakeFavorites) Delete(_ context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

type fakeListened struct {
	records map[string]*db.Listened // by deterministic id
}

func newFakeListened() *fakeListened {
	return &fakeListened{records: make(map[string]*db.Listened)}
}

func (f *fakeListened) Get(_ context.Context, id string) (*db.Listened, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return rec, nil
}

func (f *fakeListened) Create(_ context.Context, rec *db.Listened) error {
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeListened) Delete(_ context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func newTestStore() (*Store, *fakeFavorites, *fakeListened) {
	favorites := newFakeFavorites()
	listened := newFakeListened()
	return New(favorites, listened, cache.New(1, time.Minute)), favorites, listened
}

var thriller = album.Ref{Name: "Thriller", Artist: "Michael Jackson", Image: "thriller.jpg"}

func TestToggleFavoriteIsInvolution(t *testing.T) {
	store, favorites, _ := newTestStore()
	ctx := context.Background()

	on, err := store.ToggleFavorite(ctx, "u1", thriller)
	require.NoError(t, err)
	assert.True(t, on)

	status, err := store.Get(ctx, "u1", thriller.Key())
	require.NoError(t, err)
	assert.True(t, status.IsFavorite)
	assert.NotEmpty(t, status.FavoriteID)
	priorID := status.FavoriteID

	off, err := store.ToggleFavorite(ctx, "u1", thriller)
	require.NoError(t, err)
	assert.False(t, off)

	status, err = store.Get(ctx, "u1", thriller.Key())
	require.NoError(t, err)
	assert.False(t, status.IsFavorite)
	assert.Empty(t, status.FavoriteID)

	// The prior record id is gone from the store.
	_, ok := favorites.records[priorID]
	assert.False(t, ok)
}

func TestToggleFavoriteUsesDerivedKey(t *testing.T) {
	store, favorites, _ := newTestStore()
	ctx := context.Background()

	_, err := store.ToggleFavorite(ctx, "u1", thriller)
	require.NoError(t, err)

	require.Len(t, favorites.records, 1)
	for _, fav := range favorites.records {
		assert.Equal(t, "michael-jackson-thriller", fav.AlbumID)
	}
}

func TestToggleListenedRoundTrip(t *testing.T) {
	store, _, listened := newTestStore()
	ctx := context.Background()

	on, err := store.ToggleListened(ctx, "u1", album.Ref{Name: "OK Computer", Artist: "Radiohead"})
	require.NoError(t, err)
	assert.True(t, on)

	rec, ok := listened.records["u1-radiohead-ok-computer"]
	require.True(t, ok, "record must live at the deterministic key")
	assert.Equal(t, db.SourceManual, rec.Source)

	off, err := store.ToggleListened(ctx, "u1", album.Ref{Name: "OK Computer", Artist: "Radiohead"})
	require.NoError(t, err)
	assert.False(t, off)
	assert.Empty(t, listened.records)
}

func TestToggleListenedDoesNotOverwriteSpotifyRecord(t *testing.T) {
	store, _, listened := newTestStore()
	ctx := context.Background()

	ref := album.Ref{Name: "OK Computer", Artist: "Radiohead"}

	// A sync-imported record exists, but the caller's cached status predates
	// it (nothing cached, favorite lookup empty, listened lookup stale).
	// Simulate the race by inserting between the status fetch and the toggle.
	status, err := store.Get(ctx, "u1", ref.Key())
	require.NoError(t, err)
	require.False(t, status.IsListened)

	listened.records["u1-radiohead-ok-computer"] = &db.Listened{
		ID:      "u1-radiohead-ok-computer",
		UserID:  "u1",
		AlbumID: "radiohead-ok-computer",
		Album:   ref,
		Source:  db.SourceSpotify,
	}

	on, err := store.ToggleListened(ctx, "u1", ref)
	assert.ErrorIs(t, err, ErrAlreadyListened)
	assert.True(t, on)

	// The spotify-sourced record is untouched.
	rec := listened.records["u1-radiohead-ok-computer"]
	require.NotNil(t, rec)
	assert.Equal(t, db.SourceSpotify, rec.Source)
}

func TestGetStatusIndependentLookups(t *testing.T) {
	store, favorites, listened := newTestStore()
	ctx := context.Background()

	favorites.records["f1"] = &db.Favorite{ID: "f1", UserID: "u1", AlbumID: "radiohead-ok-computer"}
	listened.records["u1-radiohead-ok-computer"] = &db.Listened{
		ID: "u1-radiohead-ok-computer", UserID: "u1", AlbumID: "radiohead-ok-computer", Source: db.SourceSpotify,
	}

	status, err := store.Get(ctx, "u1", "radiohead-ok-computer")
	require.NoError(t, err)
	assert.True(t, status.IsFavorite)
	assert.True(t, status.IsListened)
	assert.Equal(t, "f1", status.FavoriteID)

	// Another user sees nothing.
	status, err = store.Get(ctx, "u2", "radiohead-ok-computer")
	require.NoError(t, err)
	assert.False(t, status.IsFavorite)
	assert.False(t, status.IsListened)
}

func TestToggleInvalidatesCachedStatus(t *testing.T) {
	store, _, _ := newTestStore()
	ctx := context.Background()

	// Prime the cache.
	_, err := store.Get(ctx, "u1", thriller.Key())
	require.NoError(t, err)

	_, err = store.ToggleFavorite(ctx, "u1", thriller)
	require.NoError(t, err)

	// The next read must observe the write, not the primed entry.
	status, err := store.Get(ctx, "u1", thriller.Key())
	require.NoError(t, err)
	assert.True(t, status.IsFavorite)
}
