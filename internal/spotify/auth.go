// Package spotify provides the streaming-account OAuth client and the
// authenticated Web API client used to import listening history.
package spotify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Spotify account endpoints.
const (
	AuthURL  = "https://accounts.spotify.com/authorize"
	TokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes is the fixed scope set requested on connect.
var Scopes = []string{
	"user-library-read",
	"user-read-recently-played",
	"user-top-read",
	"playlist-read-private",
	"user-read-email",
	"user-read-private",
	"user-follow-read",
}

// AuthConfig holds OAuth client configuration.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// AuthURL/TokenURL override the account endpoints, used by tests.
	AuthURL  string
	TokenURL string
}

// AuthClient implements the authorization-code exchange and refresh for the
// linked streaming account. Client credentials are sent as HTTP Basic auth on
// the token endpoint.
type AuthClient struct {
	cfg *oauth2.Config
}

// NewAuthClient creates an AuthClient from the given configuration.
func NewAuthClient(cfg AuthConfig) *AuthClient {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = AuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = TokenURL
	}

	return &AuthClient{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}
}

// AuthCodeURL returns the provider authorization URL carrying the fixed scope
// set and the given anti-forgery state token.
func (a *AuthClient) AuthCodeURL(state string) string {
	return a.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for an access/refresh token pair.
func (a *AuthClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}

// Refresh trades a refresh token for a fresh access token. The provider may
// omit the refresh token in the response; oauth2 carries the old one forward.
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := a.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	return token, nil
}

// HTTPClient returns an HTTP client that authenticates requests with the
// given token. The client does not auto-refresh; token freshness is the sync
// engine's responsibility so refreshed credentials always land in the store.
func (a *AuthClient) HTTPClient(ctx context.Context, accessToken string) *http.Client {
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}

// GenerateState creates a random anti-forgery state token for the OAuth
// authorize redirect.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
