package web

import (
	"net/http"
)

const stateCookieName = "spotify_auth_state"

type connectResponse struct {
	AuthURL string `json:"authUrl"`
}

// SpotifyConnect starts the account link flow. The anti-forgery state rides a
// short-lived cookie and must come back unchanged on the callback.
func (h *Handlers) SpotifyConnect(w http.ResponseWriter, r *http.Request) {
	authURL, state, err := h.deps.Sync.BeginConnect()
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/api/spotify",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
	respondJSON(w, http.StatusOK, connectResponse{AuthURL: authURL})
}

// SpotifyCallback finishes the link flow: the echoed state must match the
// cookie, then the code is exchanged and the first sync runs immediately.
func (h *Handlers) SpotifyCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		respondError(w, http.StatusBadRequest, "authorization denied: "+errParam)
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != query.Get("state") {
		respondError(w, http.StatusBadRequest, "state mismatch")
		return
	}
	clearStateCookie(w)

	code := query.Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	result, err := h.deps.Sync.CompleteConnect(r.Context(), currentUser(r).ID, code)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SpotifySync re-imports the linked account's library on demand.
func (h *Handlers) SpotifySync(w http.ResponseWriter, r *http.Request) {
	result, err := h.deps.Sync.Sync(r.Context(), currentUser(r).ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SpotifyStatus reports the link state for the profile view.
func (h *Handlers) SpotifyStatus(w http.ResponseWriter, r *http.Request) {
	connection, err := h.deps.Sync.Status(r.Context(), currentUser(r).ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, connection)
}

// SpotifyOverview returns the linked account's provider profile and recent
// listening history, fetched live.
func (h *Handlers) SpotifyOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.deps.Sync.Overview(r.Context(), currentUser(r).ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// SpotifyDisconnect unlinks the account and removes imported records.
func (h *Handlers) SpotifyDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Sync.Disconnect(r.Context(), currentUser(r).ID); err != nil {
		h.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/api/spotify",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
