package spotify

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func testAuthClient(tokenURL string) *AuthClient {
	return NewAuthClient(AuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/api/spotify/callback",
		TokenURL:     tokenURL,
	})
}

func TestAuthCodeURL(t *testing.T) {
	client := testAuthClient("")

	raw := client.AuthCodeURL("state-token")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing auth URL: %v", err)
	}

	if got := parsed.Scheme + "://" + parsed.Host + parsed.Path; got != AuthURL {
		t.Errorf("auth URL = %q, want %q", got, AuthURL)
	}

	q := parsed.Query()
	if got := q.Get("state"); got != "state-token" {
		t.Errorf("state = %q, want %q", got, "state-token")
	}
	if got := q.Get("show_dialog"); got != "true" {
		t.Errorf("show_dialog = %q, want %q", got, "true")
	}
	if got := q.Get("response_type"); got != "code" {
		t.Errorf("response_type = %q, want %q", got, "code")
	}

	scopes := strings.Fields(q.Get("scope"))
	if len(scopes) != len(Scopes) {
		t.Fatalf("scope count = %d, want %d", len(scopes), len(Scopes))
	}
	for i, want := range Scopes {
		if scopes[i] != want {
			t.Errorf("scope[%d] = %q, want %q", i, scopes[i], want)
		}
	}
}

func TestExchangeSendsBasicAuth(t *testing.T) {
	var gotAuth, gotGrantType, gotCode string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing token request form: %v", err)
		}
		gotGrantType = r.FormValue("grant_type")
		gotCode = r.FormValue("code")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "granted-access",
			"token_type": "Bearer",
			"refresh_token": "granted-refresh",
			"expires_in": 3600
		}`))
	}))
	defer srv.Close()

	client := testAuthClient(srv.URL)
	token, err := client.Exchange(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("Exchange() error: %v", err)
	}

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("client-id:client-secret"))
	if gotAuth != wantAuth {
		t.Errorf("Authorization = %q, want %q", gotAuth, wantAuth)
	}
	if gotGrantType != "authorization_code" {
		t.Errorf("grant_type = %q, want %q", gotGrantType, "authorization_code")
	}
	if gotCode != "the-code" {
		t.Errorf("code = %q, want %q", gotCode, "the-code")
	}
	if token.AccessToken != "granted-access" {
		t.Errorf("access token = %q, want %q", token.AccessToken, "granted-access")
	}
	if token.RefreshToken != "granted-refresh" {
		t.Errorf("refresh token = %q, want %q", token.RefreshToken, "granted-refresh")
	}
	if token.Expiry.IsZero() {
		t.Error("expiry must be set from expires_in")
	}
}

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing token request form: %v", err)
		}
		if got := r.FormValue("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want %q", got, "refresh_token")
		}
		if got := r.FormValue("refresh_token"); got != "old-refresh" {
			t.Errorf("refresh_token = %q, want %q", got, "old-refresh")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "renewed-access",
			"token_type": "Bearer",
			"expires_in": 3600
		}`))
	}))
	defer srv.Close()

	client := testAuthClient(srv.URL)
	token, err := client.Refresh(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if token.AccessToken != "renewed-access" {
		t.Errorf("access token = %q, want %q", token.AccessToken, "renewed-access")
	}
	// Spotify omits the refresh token on refresh; the old one carries forward.
	if token.RefreshToken != "old-refresh" {
		t.Errorf("refresh token = %q, want %q", token.RefreshToken, "old-refresh")
	}
}

func TestRefreshFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_grant", "error_description": "Refresh token revoked"}`))
	}))
	defer srv.Close()

	client := testAuthClient(srv.URL)
	if _, err := client.Refresh(context.Background(), "revoked"); err == nil {
		t.Fatal("Refresh() with revoked token must fail")
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error: %v", err)
	}
	b, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error: %v", err)
	}
	if len(a) != 32 {
		t.Errorf("state length = %d, want 32", len(a))
	}
	if a == b {
		t.Error("consecutive states must differ")
	}
}
