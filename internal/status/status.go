// Package status reconciles a single album's favorite/listened membership
// against the store.
package status

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vinylog/vinylog/internal/album"
	"github.com/vinylog/vinylog/internal/cache"
	"github.com/vinylog/vinylog/internal/db"
)

// ErrAlreadyListened is returned when a toggle-on finds a record already at
// the deterministic key, typically one imported from the linked streaming
// account. The existing record's source is never overwritten.
var ErrAlreadyListened = errors.New("album already marked as listened")

// FavoriteStore is the slice of the favorites repository the status store
// needs.
type FavoriteStore interface {
	Find(ctx context.Context, userID, albumID string) (*db.Favorite, error)
	Create(ctx context.Context, fav *db.Favorite) error
	Delete(ctx context.Context, id string) error
}

// ListenedStore is the slice of the listened repository the status store
// needs.
type ListenedStore interface {
	Get(ctx context.Context, id string) (*db.Listened, error)
	Create(ctx context.Context, rec *db.Listened) error
	Delete(ctx context.Context, id string) error
}

// Status is an album's membership for one user. FavoriteID carries the
// store-assigned record id so a toggle-off can delete without a second
// lookup.
type Status struct {
	IsFavorite bool   `json:"isFavorite"`
	IsListened bool   `json:"isListened"`
	FavoriteID string `json:"favoriteId,omitempty"`
}

// Store implements the favorite/listened toggles.
type Store struct {
	favorites FavoriteStore
	listened  ListenedStore
	cache     *cache.Cache
}

// New creates a status store.
func New(favorites FavoriteStore, listened ListenedStore, c *cache.Cache) *Store {
	return &Store{favorites: favorites, listened: listened, cache: c}
}

// Get returns the album's current status for the user. The favorite
// existence query and the direct key fetch of the listened record are issued
// concurrently and joined; the read is not transactional across the two, so
// a racing write can surface one side updated and the other stale. Callers
// refetch per interaction, which keeps that window harmless.
func (s *Store) Get(ctx context.Context, userID, albumID string) (Status, error) {
	key := cache.AlbumStatus(userID, albumID)

	var status Status
	if s.cache.Get(key, &status) {
		return status, nil
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fav, err := s.favorites.Find(gctx, userID, albumID)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		status.IsFavorite = true
		status.FavoriteID = fav.ID
		return nil
	})

	g.Go(func() error {
		_, err := s.listened.Get(gctx, album.ListenedID(userID, albumID))
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		status.IsListened = true
		return nil
	})

	if err := g.Wait(); err != nil {
		return Status{}, fmt.Errorf("fetching album status: %w", err)
	}

	s.cache.Set(key, status)
	return status, nil
}

// ToggleFavorite flips the album's favorite membership and reports the new
// state. Toggle-on relies on the existence check in Get; there is no
// store-level uniqueness constraint, so a rapid double submit can race. The
// UI disables the control during the in-flight request, which is the only
// guard.
func (s *Store) ToggleFavorite(ctx context.Context, userID string, ref album.Ref) (bool, error) {
	albumID := ref.Key()

	status, err := s.Get(ctx, userID, albumID)
	if err != nil {
		return false, err
	}

	nowFavorite := !status.IsFavorite
	if status.IsFavorite {
		if err := s.favorites.Delete(ctx, status.FavoriteID); err != nil && !errors.Is(err, db.ErrNotFound) {
			return false, fmt.Errorf("removing favorite: %w", err)
		}
	} else {
		fav := &db.Favorite{
			ID:      uuid.NewString(),
			UserID:  userID,
			AlbumID: albumID,
			Album:   ref,
		}
		if err := s.favorites.Create(ctx, fav); err != nil {
			return false, fmt.Errorf("adding favorite: %w", err)
		}
	}

	s.invalidate(userID, albumID)
	return nowFavorite, nil
}

// ToggleListened flips the album's listened membership and reports the new
// state. Toggle-off deletes by the deterministic key. Toggle-on re-checks the
// key immediately before insert: if a record exists there (for example one
// the sync engine imported after the caller last fetched status), the toggle
// aborts with ErrAlreadyListened instead of overwriting its source.
func (s *Store) ToggleListened(ctx context.Context, userID string, ref album.Ref) (bool, error) {
	albumID := ref.Key()
	recordID := album.ListenedID(userID, albumID)

	status, err := s.Get(ctx, userID, albumID)
	if err != nil {
		return false, err
	}

	if status.IsListened {
		if err := s.listened.Delete(ctx, recordID); err != nil && !errors.Is(err, db.ErrNotFound) {
			return false, fmt.Errorf("removing listened record: %w", err)
		}
		s.invalidate(userID, albumID)
		return false, nil
	}

	// Re-check at the key right before insert.
	_, err = s.listened.Get(ctx, recordID)
	if err == nil {
		s.invalidate(userID, albumID)
		return true, ErrAlreadyListened
	}
	if !errors.Is(err, db.ErrNotFound) {
		return false, fmt.Errorf("checking listened record: %w", err)
	}

	rec := &db.Listened{
		ID:      recordID,
		UserID:  userID,
		AlbumID: albumID,
		Album:   ref,
		Source:  db.SourceManual,
	}
	if err := s.listened.Create(ctx, rec); err != nil {
		return false, fmt.Errorf("adding listened record: %w", err)
	}

	s.invalidate(userID, albumID)
	return true, nil
}

// invalidate drops the cached status and the list queries the mutation
// affects.
func (s *Store) invalidate(userID, albumID string) {
	s.cache.Invalidate(
		cache.AlbumStatus(userID, albumID),
		cache.UserFavorites(userID),
		cache.UserListened(userID),
	)
}
