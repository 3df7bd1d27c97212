// Package comments provides create/list/delete of album comments.
package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vinylog/vinylog/internal/cache"
	"github.com/vinylog/vinylog/internal/db"
)

// Common errors.
var (
	// ErrAuthRequired is returned when an unauthenticated caller tries to
	// write.
	ErrAuthRequired = errors.New("authentication required")

	// ErrNotOwner is returned when a caller tries to delete someone else's
	// comment. Ownership is checked here in the store layer, not only in the
	// view.
	ErrNotOwner = errors.New("comment belongs to another user")

	// ErrEmptyBody is returned when the comment text is blank after trimming.
	ErrEmptyBody = errors.New("comment body is empty")
)

// Author identifies the authenticated caller of a write operation.
type Author struct {
	UserID string
	Email  string
}

// Repository is the slice of the comment repository the service needs.
type Repository interface {
	Create(ctx context.Context, comment *db.Comment) error
	Get(ctx context.Context, id string) (*db.Comment, error)
	ListByAlbum(ctx context.Context, albumID string) ([]db.Comment, error)
	Delete(ctx context.Context, id string) error
}

// Service implements the comment operations.
type Service struct {
	repo   Repository
	cache  *cache.Cache
	logger zerolog.Logger
}

// New creates a comment service.
func New(repo Repository, c *cache.Cache, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  c,
		logger: logger.With().Str("component", "comments").Logger(),
	}
}

// List returns an album's comments, most recent first. Failures degrade to an
// empty slice so a comment-store hiccup never blocks the album detail view;
// the error is logged, not propagated.
func (s *Service) List(ctx context.Context, albumID string) []db.Comment {
	key := cache.AlbumComments(albumID)

	var comments []db.Comment
	if s.cache.Get(key, &comments) {
		return comments
	}

	comments, err := s.repo.ListByAlbum(ctx, albumID)
	if err != nil {
		s.logger.Error().Err(err).Str("album_id", albumID).Msg("listing comments failed")
		return []db.Comment{}
	}
	if comments == nil {
		comments = []db.Comment{}
	}

	s.cache.Set(key, comments)
	return comments
}

// Add creates a comment on the album. The timestamp is assigned by the store
// so ordering does not depend on the client clock.
func (s *Service) Add(ctx context.Context, albumID, body string, author Author) (*db.Comment, error) {
	if author.UserID == "" {
		return nil, ErrAuthRequired
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	comment := &db.Comment{
		ID:        uuid.NewString(),
		AlbumID:   albumID,
		UserID:    author.UserID,
		UserEmail: author.Email,
		Body:      body,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("adding comment: %w", err)
	}

	s.cache.Invalidate(cache.AlbumComments(albumID))
	return comment, nil
}

// Remove deletes a comment. Only the comment's author may remove it; the
// check runs against the stored record, not whatever the view claimed.
func (s *Service) Remove(ctx context.Context, commentID, callerID string) error {
	if callerID == "" {
		return ErrAuthRequired
	}

	comment, err := s.repo.Get(ctx, commentID)
	if err != nil {
		return fmt.Errorf("fetching comment: %w", err)
	}
	if comment.UserID != callerID {
		return ErrNotOwner
	}

	if err := s.repo.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	s.cache.Invalidate(cache.AlbumComments(comment.AlbumID))
	return nil
}
