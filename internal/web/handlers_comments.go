package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vinylog/vinylog/internal/comments"
	"github.com/vinylog/vinylog/internal/db"
)

type commentInput struct {
	Body string `json:"body"`
}

type commentView struct {
	ID        string    `json:"id"`
	AlbumID   string    `json:"albumId"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func commentViews(records []db.Comment) []commentView {
	views := make([]commentView, 0, len(records))
	for _, c := range records {
		views = append(views, commentView{
			ID:        c.ID,
			AlbumID:   c.AlbumID,
			UserID:    c.UserID,
			UserEmail: c.UserEmail,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		})
	}
	return views
}

// ListComments returns an album's comments, most recent first. The list is
// public; a failing comment store yields an empty list, not an error page.
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "albumID")
	records := h.deps.Comments.List(r.Context(), albumID)
	respondJSON(w, http.StatusOK, commentViews(records))
}

// AddComment creates a comment on the album.
func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	var input commentInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := currentUser(r)
	comment, err := h.deps.Comments.Add(r.Context(), chi.URLParam(r, "albumID"), input.Body, comments.Author{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, commentView{
		ID:        comment.ID,
		AlbumID:   comment.AlbumID,
		UserID:    comment.UserID,
		UserEmail: comment.UserEmail,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	})
}

// DeleteComment removes the caller's own comment.
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if err := h.deps.Comments.Remove(r.Context(), chi.URLParam(r, "commentID"), user.ID); err != nil {
		h.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
