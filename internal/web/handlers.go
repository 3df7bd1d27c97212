package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/vinylog/vinylog/internal/account"
	"github.com/vinylog/vinylog/internal/comments"
	"github.com/vinylog/vinylog/internal/db"
	"github.com/vinylog/vinylog/internal/identity"
	"github.com/vinylog/vinylog/internal/lastfm"
	"github.com/vinylog/vinylog/internal/status"
	vsync "github.com/vinylog/vinylog/internal/sync"
)

// LibraryLister lists a user's collection rows.
type LibraryLister interface {
	ListFavorites(ctx context.Context, userID string) ([]db.Favorite, error)
	ListListened(ctx context.Context, userID string) ([]db.Listened, error)
}

// DBLibrary adapts the repositories to LibraryLister.
type DBLibrary struct {
	Database *db.DB
}

func (l DBLibrary) ListFavorites(ctx context.Context, userID string) ([]db.Favorite, error) {
	return l.Database.Favorites().ListByUser(ctx, userID)
}

func (l DBLibrary) ListListened(ctx context.Context, userID string) ([]db.Listened, error) {
	return l.Database.Listened().ListByUser(ctx, userID)
}

// Handlers holds the HTTP handlers and their service dependencies.
type Handlers struct {
	deps   Deps
	logger zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(deps Deps, logger zerolog.Logger) *Handlers {
	return &Handlers{deps: deps, logger: logger}
}

// serviceError maps service errors to HTTP responses. Unmapped errors become
// an opaque 500; the detail goes to the log, not the client.
func (h *Handlers) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, lastfm.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, comments.ErrAuthRequired):
		respondError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, comments.ErrNotOwner):
		respondError(w, http.StatusForbidden, "not the comment owner")
	case errors.Is(err, comments.ErrEmptyBody):
		respondError(w, http.StatusBadRequest, "comment body is empty")
	case errors.Is(err, account.ErrTooManyFavorites):
		respondError(w, http.StatusBadRequest, "at most 4 favorite albums")
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, identity.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, identity.ErrWeakPassword), errors.Is(err, identity.ErrInvalidEmail):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, vsync.ErrNotConnected):
		respondError(w, http.StatusConflict, "spotify account not connected")
	case errors.Is(err, vsync.ErrRefreshFailed):
		respondError(w, http.StatusBadGateway, "spotify token refresh failed, reconnect the account")
	case errors.Is(err, status.ErrAlreadyListened):
		respondError(w, http.StatusConflict, "album already marked as listened")
	case errors.As(err, &validationErrs):
		respondError(w, http.StatusBadRequest, "invalid input: "+validationErrs.Error())
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
