package web

import (
	"net/http"

	"github.com/vinylog/vinylog/internal/identity"
)

type credentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// Register creates an account and logs the new user in.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, session, err := h.deps.Identity.Register(r.Context(), input.Email, input.Password)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	identity.SetSessionCookie(w, session.ID)
	respondJSON(w, http.StatusCreated, sessionResponse{
		UserID:   user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
	})
}

// Login verifies credentials and starts a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var input credentialsInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, session, err := h.deps.Identity.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	identity.SetSessionCookie(w, session.ID)
	respondJSON(w, http.StatusOK, sessionResponse{
		UserID:   user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
	})
}

// Logout deletes the session. Logging out without one is a no-op, not an
// error.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := identity.SessionFromRequest(r); ok {
		if err := h.deps.Identity.Logout(r.Context(), sessionID); err != nil {
			h.serviceError(w, r, err)
			return
		}
	}

	identity.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
