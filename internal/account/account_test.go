package account

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylog/vinylog/internal/album"
	"github.com/vinylog/vinylog/internal/db"
)

type fakeUsers struct {
	users map[string]*db.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*db.User)}
}

func (f *fakeUsers) Get(_ context.Context, id string) (*db.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id, nickname, avatar, bio string) error {
	user, ok := f.users[id]
	if !ok {
		return db.ErrNotFound
	}
	user.Nickname, user.Avatar, user.Bio = nickname, avatar, bio
	return nil
}

func (f *fakeUsers) SetFavoriteAlbums(_ context.Context, id string, albums []album.Ref) error {
	user, ok := f.users[id]
	if !ok {
		return db.ErrNotFound
	}
	user.FavoriteAlbums = albums
	return nil
}

type fakePurger struct {
	purged []string
}

func (f *fakePurger) PurgeUser(_ context.Context, userID string) error {
	f.purged = append(f.purged, userID)
	return nil
}

func newTestService() (*Service, *fakeUsers, *fakePurger) {
	users := newFakeUsers()
	purger := &fakePurger{}
	return New(users, purger, zerolog.Nop()), users, purger
}

func TestGetProfileHidesCredentials(t *testing.T) {
	svc, users, _ := newTestService()
	users.users["u1"] = &db.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: "$2a$10$secret",
		Nickname:     "ana",
		Spotify:      &db.SpotifyToken{AccessToken: "token"},
	}

	profile, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana", profile.Nickname)
	assert.True(t, profile.SpotifyLinked)
	assert.NotNil(t, profile.FavoriteAlbums, "favorites must encode as [], not null")
}

func TestUpdateProfile(t *testing.T) {
	svc, users, _ := newTestService()
	users.users["u1"] = &db.User{ID: "u1", Nickname: "ana"}
	ctx := context.Background()

	profile, err := svc.UpdateProfile(ctx, "u1", ProfileInput{
		Nickname: "ana banana",
		Avatar:   "https://img.example.com/a.png",
		Bio:      "vinyl only",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana banana", profile.Nickname)
	assert.Equal(t, "vinyl only", profile.Bio)
}

func TestUpdateProfileValidation(t *testing.T) {
	svc, users, _ := newTestService()
	users.users["u1"] = &db.User{ID: "u1", Nickname: "ana"}
	ctx := context.Background()

	tests := []struct {
		name  string
		input ProfileInput
	}{
		{"missing nickname", ProfileInput{Avatar: "https://img.example.com/a.png"}},
		{"avatar not a URL", ProfileInput{Nickname: "ana", Avatar: "not a url"}},
		{"avatar wrong scheme", ProfileInput{Nickname: "ana", Avatar: "ftp://img.example.com/a.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(ctx, "u1", tt.input)
			assert.Error(t, err)
			// The stored profile must be untouched.
			assert.Equal(t, "ana", users.users["u1"].Nickname)
		})
	}
}

func TestSetFavoriteAlbumsCap(t *testing.T) {
	svc, users, _ := newTestService()
	users.users["u1"] = &db.User{ID: "u1", Nickname: "ana"}
	ctx := context.Background()

	four := []album.Ref{
		{Name: "OK Computer", Artist: "Radiohead"},
		{Name: "Kid A", Artist: "Radiohead"},
		{Name: "In Rainbows", Artist: "Radiohead"},
		{Name: "Amnesiac", Artist: "Radiohead"},
	}
	require.NoError(t, svc.SetFavoriteAlbums(ctx, "u1", four))
	assert.Len(t, users.users["u1"].FavoriteAlbums, 4)

	five := append(four, album.Ref{Name: "Hail to the Thief", Artist: "Radiohead"})
	err := svc.SetFavoriteAlbums(ctx, "u1", five)
	assert.ErrorIs(t, err, ErrTooManyFavorites)
	assert.Len(t, users.users["u1"].FavoriteAlbums, 4, "rejected write must not apply")
}

func TestDeleteAccount(t *testing.T) {
	svc, _, purger := newTestService()

	require.NoError(t, svc.DeleteAccount(context.Background(), "u1"))
	assert.Equal(t, []string{"u1"}, purger.purged)
}
