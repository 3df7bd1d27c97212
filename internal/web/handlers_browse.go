package web

import (
	"net/http"
	"strconv"

	"github.com/vinylog/vinylog/internal/cache"
	"github.com/vinylog/vinylog/internal/lastfm"
)

// pageParam parses ?page=, defaulting to 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// SearchAlbums searches the catalogue by album name.
func (h *Handlers) SearchAlbums(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page := pageParam(r)
	key := cache.AlbumSearch(query, page)

	var albums []lastfm.Album
	if !h.deps.Cache.Get(key, &albums) {
		var err error
		albums, err = h.deps.Metadata.SearchAlbums(r.Context(), query, page)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		h.deps.Cache.Set(key, albums)
	}
	respondJSON(w, http.StatusOK, albums)
}

// SearchArtists searches the catalogue by artist name.
func (h *Handlers) SearchArtists(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page := pageParam(r)
	key := cache.ArtistSearch(query, page)

	var artists []lastfm.Artist
	if !h.deps.Cache.Get(key, &artists) {
		var err error
		artists, err = h.deps.Metadata.SearchArtists(r.Context(), query, page)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		h.deps.Cache.Set(key, artists)
	}
	respondJSON(w, http.StatusOK, artists)
}

// TopAlbums returns the global top-albums chart page.
func (h *Handlers) TopAlbums(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	key := cache.TopAlbums(page)

	var albums []lastfm.Album
	if !h.deps.Cache.Get(key, &albums) {
		var err error
		albums, err = h.deps.Metadata.TopAlbums(r.Context(), page)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		h.deps.Cache.Set(key, albums)
	}
	respondJSON(w, http.StatusOK, albums)
}

// TopArtists returns the global top-artists chart page.
func (h *Handlers) TopArtists(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	key := cache.TopArtists(page)

	var artists []lastfm.Artist
	if !h.deps.Cache.Get(key, &artists) {
		var err error
		artists, err = h.deps.Metadata.TopArtists(r.Context(), page)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		h.deps.Cache.Set(key, artists)
	}
	respondJSON(w, http.StatusOK, artists)
}

// AlbumInfo returns album detail by artist and album name.
func (h *Handlers) AlbumInfo(w http.ResponseWriter, r *http.Request) {
	artist := r.URL.Query().Get("artist")
	name := r.URL.Query().Get("name")
	if artist == "" || name == "" {
		respondError(w, http.StatusBadRequest, "artist and name are required")
		return
	}
	key := cache.AlbumDetail(artist, name)

	var info *lastfm.AlbumInfo
	if !h.deps.Cache.Get(key, &info) {
		var err error
		info, err = h.deps.Metadata.AlbumInfo(r.Context(), artist, name)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		h.deps.Cache.Set(key, info)
	}
	respondJSON(w, http.StatusOK, info)
}

// ArtistInfo returns artist detail by name.
func (h *Handlers) ArtistInfo(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	key := cache.ArtistDetail(name)

	var info *lastfm.ArtistInfo
	if !h.deps.Cache.Get(key, &info) {
		var err error
		info, err = h.deps.Metadata.ArtistInfo(r.Context(), name)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		h.deps.Cache.Set(key, info)
	}
	respondJSON(w, http.StatusOK, info)
}

// ArtistTopAlbums returns the artist's most popular albums.
func (h *Handlers) ArtistTopAlbums(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	key := cache.ArtistTopAlbums(name)

	var albums []lastfm.Album
	if !h.deps.Cache.Get(key, &albums) {
		var err error
		albums, err = h.deps.Metadata.ArtistTopAlbums(r.Context(), name)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}
		h.deps.Cache.Set(key, albums)
	}
	respondJSON(w, http.StatusOK, albums)
}
