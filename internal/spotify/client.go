package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zmb3/spotify/v2"
)

// savedAlbumsCap bounds how many saved albums a single sync will pull. The
// provider paginates at 50 per page; the fetch follows next-page indicators
// until the cap so a huge library cannot run away with request volume.
const savedAlbumsCap = 1000

const pageLimit = 50

// SavedAlbum is one album from the linked account's library.
type SavedAlbum struct {
	Name    string
	Artist  string
	Image   string
	AddedAt time.Time
}

// TopArtist is one entry of the account's long-term top artists.
type TopArtist struct {
	Name   string
	Image  string
	Genres []string
}

// PlayedTrack is one entry of the account's recently-played history.
type PlayedTrack struct {
	Track    string    `json:"track"`
	Artist   string    `json:"artist"`
	Album    string    `json:"album"`
	PlayedAt time.Time `json:"playedAt"`
}

// Profile is the linked account's own profile with a couple of library
// counters the profile view renders.
type Profile struct {
	ID              string `json:"id"`
	DisplayName     string `json:"displayName"`
	Email           string `json:"email"`
	Playlists       int    `json:"playlists"`
	FollowedArtists int    `json:"followedArtists"`
}

// Client wraps the Spotify Web API client with the fetches the sync engine
// and profile view need. The underlying client must already be
// authenticated.
type Client struct {
	api *spotify.Client
}

// NewClient creates a Client on top of an authenticated HTTP client.
func NewClient(httpClient *http.Client) *Client {
	return &Client{api: spotify.New(httpClient, spotify.WithRetry(true))}
}

// SavedAlbums retrieves the account's saved albums, following pagination
// until the provider reports no further page or savedAlbumsCap is reached.
func (c *Client) SavedAlbums(ctx context.Context) ([]SavedAlbum, error) {
	page, err := c.api.CurrentUsersAlbums(ctx, spotify.Limit(pageLimit))
	if err != nil {
		return nil, fmt.Errorf("fetching saved albums: %w", err)
	}

	var albums []SavedAlbum
	for {
		for _, saved := range page.Albums {
			albums = append(albums, convertSavedAlbum(saved))
			if len(albums) >= savedAlbumsCap {
				return albums, nil
			}
		}

		err = c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next page: %w", err)
		}
	}

	return albums, nil
}

// TopArtists retrieves the account's long-term top artists (up to 50).
func (c *Client) TopArtists(ctx context.Context) ([]TopArtist, error) {
	page, err := c.api.CurrentUsersTopArtists(ctx,
		spotify.Timerange(spotify.LongTermRange),
		spotify.Limit(pageLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching top artists: %w", err)
	}

	artists := make([]TopArtist, 0, len(page.Artists))
	for _, a := range page.Artists {
		artists = append(artists, TopArtist{
			Name:   a.Name,
			Image:  firstImage(a.Images),
			Genres: a.Genres,
		})
	}
	return artists, nil
}

// RecentlyPlayed retrieves the account's last 50 played tracks.
func (c *Client) RecentlyPlayed(ctx context.Context) ([]PlayedTrack, error) {
	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: pageLimit})
	if err != nil {
		return nil, fmt.Errorf("fetching recently played: %w", err)
	}

	tracks := make([]PlayedTrack, 0, len(items))
	for _, item := range items {
		track := PlayedTrack{
			Track:    item.Track.Name,
			Album:    item.Track.Album.Name,
			PlayedAt: item.PlayedAt,
		}
		if len(item.Track.Artists) > 0 {
			track.Artist = item.Track.Artists[0].Name
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// CurrentProfile retrieves the account profile plus playlist and
// followed-artist counts.
func (c *Client) CurrentProfile(ctx context.Context) (*Profile, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}

	profile := &Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}

	if playlists, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(1)); err == nil {
		profile.Playlists = int(playlists.Total)
	}
	if followed, err := c.api.CurrentUsersFollowedArtists(ctx); err == nil {
		profile.FollowedArtists = int(followed.Total)
	}

	return profile, nil
}

// convertSavedAlbum flattens a provider saved-album entry. The AddedAt
// timestamp parses to the zero value on failure rather than failing the
// fetch.
func convertSavedAlbum(saved spotify.SavedAlbum) SavedAlbum {
	album := SavedAlbum{
		Name:  saved.Name,
		Image: firstImage(saved.Images),
	}
	if len(saved.Artists) > 0 {
		album.Artist = saved.Artists[0].Name
	}
	album.AddedAt, _ = time.Parse(time.RFC3339, saved.AddedAt)
	return album
}

func firstImage(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
