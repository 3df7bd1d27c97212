package web

import (
	"net/http"
	"time"

	"github.com/vinylog/vinylog/internal/album"
	"github.com/vinylog/vinylog/internal/cache"
)

type toggleResponse struct {
	Active bool `json:"active"`
}

type favoriteView struct {
	ID        string    `json:"id"`
	AlbumID   string    `json:"albumId"`
	Album     album.Ref `json:"album"`
	CreatedAt time.Time `json:"createdAt"`
}

type listenedView struct {
	AlbumID   string     `json:"albumId"`
	Album     album.Ref  `json:"album"`
	Source    string     `json:"source"`
	AddedAt   *time.Time `json:"addedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AlbumStatus returns the caller's favorite/listened membership for one
// album.
func (h *Handlers) AlbumStatus(w http.ResponseWriter, r *http.Request) {
	artist := r.URL.Query().Get("artist")
	name := r.URL.Query().Get("name")
	if artist == "" || name == "" {
		respondError(w, http.StatusBadRequest, "artist and name are required")
		return
	}

	user := currentUser(r)
	st, err := h.deps.Status.Get(r.Context(), user.ID, album.Key(artist, name))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// ToggleFavorite flips the album's favorite membership.
func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var ref album.Ref
	if err := decodeBody(r, &ref); err != nil || ref.Name == "" || ref.Artist == "" {
		respondError(w, http.StatusBadRequest, "album name and artist are required")
		return
	}

	user := currentUser(r)
	active, err := h.deps.Status.ToggleFavorite(r.Context(), user.ID, ref)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toggleResponse{Active: active})
}

// ToggleListened flips the album's listened membership. A toggle-on that
// finds an existing record at the key (for example one the sync import
// created) responds 409 so the client can tell it apart from a fresh mark;
// the record and its source are left untouched.
func (h *Handlers) ToggleListened(w http.ResponseWriter, r *http.Request) {
	var ref album.Ref
	if err := decodeBody(r, &ref); err != nil || ref.Name == "" || ref.Artist == "" {
		respondError(w, http.StatusBadRequest, "album name and artist are required")
		return
	}

	user := currentUser(r)
	active, err := h.deps.Status.ToggleListened(r.Context(), user.ID, ref)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toggleResponse{Active: active})
}

// ListFavorites returns the caller's favorite albums, most recent first.
func (h *Handlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	key := cache.UserFavorites(user.ID)

	var views []favoriteView
	if !h.deps.Cache.Get(key, &views) {
		favorites, err := h.deps.Library.ListFavorites(r.Context(), user.ID)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		views = make([]favoriteView, 0, len(favorites))
		for _, fav := range favorites {
			views = append(views, favoriteView{
				ID:        fav.ID,
				AlbumID:   fav.AlbumID,
				Album:     fav.Album,
				CreatedAt: fav.CreatedAt,
			})
		}
		h.deps.Cache.Set(key, views)
	}
	respondJSON(w, http.StatusOK, views)
}

// ListListened returns the caller's listened albums, most recent first, both
// manual and imported.
func (h *Handlers) ListListened(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	key := cache.UserListened(user.ID)

	var views []listenedView
	if !h.deps.Cache.Get(key, &views) {
		records, err := h.deps.Library.ListListened(r.Context(), user.ID)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		views = make([]listenedView, 0, len(records))
		for _, rec := range records {
			views = append(views, listenedView{
				AlbumID:   rec.AlbumID,
				Album:     rec.Album,
				Source:    rec.Source,
				AddedAt:   rec.AddedAt,
				CreatedAt: rec.CreatedAt,
			})
		}
		h.deps.Cache.Set(key, views)
	}
	respondJSON(w, http.StatusOK, views)
}
