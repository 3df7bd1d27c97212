package web

import (
	"net/http"

	"github.com/vinylog/vinylog/internal/account"
	"github.com/vinylog/vinylog/internal/album"
	"github.com/vinylog/vinylog/internal/identity"
)

// GetProfile returns the caller's profile.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.deps.Account.GetProfile(r.Context(), currentUser(r).ID)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfile applies the editable profile fields.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input account.ProfileInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.deps.Account.UpdateProfile(r.Context(), currentUser(r).ID, input)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// SetFavoriteAlbums replaces the caller's pinned favorite albums.
func (h *Handlers) SetFavoriteAlbums(w http.ResponseWriter, r *http.Request) {
	var albums []album.Ref
	if err := decodeBody(r, &albums); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.deps.Account.SetFavoriteAlbums(r.Context(), currentUser(r).ID, albums); err != nil {
		h.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount removes the caller's account and all its data, then ends the
// session.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Account.DeleteAccount(r.Context(), currentUser(r).ID); err != nil {
		h.serviceError(w, r, err)
		return
	}

	identity.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
