// Package lastfm provides the Last.fm metadata client: search, charts, and
// entity detail lookups. The client is stateless; result caching lives in the
// query-cache layer, not here.
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const (
	defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"
	userAgent      = "vinylog/1.0"

	// Page sizes mirror what the browse views request.
	searchAlbumLimit = 12
	chartLimit       = 24
)

// Last.fm API error codes.
const (
	errCodeInvalidParams = 6
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// Client is a Last.fm API client.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new Last.fm API client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchAlbums searches albums by name. An empty query returns an empty page
// without a network round trip.
func (c *Client) SearchAlbums(ctx context.Context, query string, page int) ([]Album, error) {
	if query == "" {
		return []Album{}, nil
	}

	params := c.params("album.search")
	params.Set("album", query)
	params.Set("limit", strconv.Itoa(searchAlbumLimit))
	params.Set("page", strconv.Itoa(normalizePage(page)))

	var resp albumSearchResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("searching albums: %w", err)
	}

	albums := resp.Results.AlbumMatches.Album
	if albums == nil {
		albums = []Album{}
	}
	return albums, nil
}

// SearchArtists searches artists by name.
func (c *Client) SearchArtists(ctx context.Context, query string, page int) ([]Artist, error) {
	if query == "" {
		return []Artist{}, nil
	}

	params := c.params("artist.search")
	params.Set("artist", query)
	params.Set("limit", strconv.Itoa(chartLimit))
	params.Set("page", strconv.Itoa(normalizePage(page)))

	var resp artistSearchResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("searching artists: %w", err)
	}

	artists := resp.Results.ArtistMatches.Artist
	if artists == nil {
		artists = []Artist{}
	}
	return artists, nil
}

// TopAlbums fetches a page of chart albums (tag.gettopalbums over the "all"
// tag, which is what the discover view renders).
func (c *Client) TopAlbums(ctx context.Context, page int) ([]Album, error) {
	params := c.params("tag.gettopalbums")
	params.Set("tag", "all")
	params.Set("limit", strconv.Itoa(chartLimit))
	params.Set("page", strconv.Itoa(normalizePage(page)))

	var resp topAlbumsResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("fetching top albums: %w", err)
	}

	albums := resp.Albums.Album
	if albums == nil {
		albums = []Album{}
	}
	return albums, nil
}

// TopArtists fetches a page of the global artist chart.
func (c *Client) TopArtists(ctx context.Context, page int) ([]Artist, error) {
	params := c.params("chart.gettopartists")
	params.Set("limit", strconv.Itoa(chartLimit))
	params.Set("page", strconv.Itoa(normalizePage(page)))

	var resp chartTopArtistsResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("fetching top artists: %w", err)
	}

	artists := resp.Artists.Artist
	if artists == nil {
		artists = []Artist{}
	}
	return artists, nil
}

// AlbumInfo fetches album detail by (artist, album) pair.
func (c *Client) AlbumInfo(ctx context.Context, artist, albumName string) (*AlbumInfo, error) {
	params := c.params("album.getInfo")
	params.Set("artist", artist)
	params.Set("album", albumName)

	var resp albumInfoResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("fetching album info: %w", err)
	}
	return &resp.Album, nil
}

// ArtistInfo fetches artist detail by name.
func (c *Client) ArtistInfo(ctx context.Context, artist string) (*ArtistInfo, error) {
	params := c.params("artist.getinfo")
	params.Set("artist", artist)

	var resp artistInfoResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("fetching artist info: %w", err)
	}
	return &resp.Artist, nil
}

// ArtistTopAlbums fetches an artist's top albums.
func (c *Client) ArtistTopAlbums(ctx context.Context, artist string) ([]Album, error) {
	params := c.params("artist.gettopalbums")
	params.Set("artist", artist)

	var resp artistTopAlbumsResponse
	if err := c.doRequest(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("fetching artist top albums: %w", err)
	}

	albums := make([]Album, 0, len(resp.TopAlbums.Album))
	for _, a := range resp.TopAlbums.Album {
		albums = append(albums, Album{
			Name:   a.Name,
			Artist: a.Artist.Name,
			URL:    a.URL,
			Images: a.Images,
		})
	}
	return albums, nil
}

// params builds the base query parameters shared by every method call.
func (c *Client) params(method string) url.Values {
	return url.Values{
		"method":  {method},
		"format":  {"json"},
		"api_key": {c.apiKey},
	}
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// doRequest performs an HTTP GET request with retry on rate limit.
// Retries up to 3 times with exponential backoff (1s, 2s, 4s).
func (c *Client) doRequest(ctx context.Context, params url.Values, dest any) error {
	reqURL := c.baseURL + "?" + params.Encode()

	delays := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	var lastErr error

	for attempt := 0; attempt <= len(delays); attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			if err := json.Unmarshal(body, dest); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			return nil
		}

		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}

		// Non-retryable error
		return err
	}

	return lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// Check for API error in response
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		switch apiErr.Error {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		case errCodeInvalidParams:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Error, apiErr.Message)
		}
	}

	return body, nil
}
