package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommentRepository handles comment database operations.
type CommentRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new comment. The created_at timestamp is assigned by the
// database, not the client, so cross-user ordering does not depend on client
// clocks.
func (r *CommentRepository) Create(ctx context.Context, comment *Comment) error {
	query := `
		INSERT INTO comments (id, album_id, user_id, user_email, body, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		comment.ID,
		comment.AlbumID,
		comment.UserID,
		comment.UserEmail,
		comment.Body,
	).Scan(&comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

// Get retrieves a comment by ID.
func (r *CommentRepository) Get(ctx context.Context, id string) (*Comment, error) {
	query := `
		SELECT id, album_id, user_id, user_email, body, created_at
		FROM comments
		WHERE id = $1
	`
	var comment Comment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.AlbumID,
		&comment.UserID,
		&comment.UserEmail,
		&comment.Body,
		&comment.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying comment: %w", err)
	}
	return &comment, nil
}

// ListByAlbum returns an album's comments, most recent first.
func (r *CommentRepository) ListByAlbum(ctx context.Context, albumID string) ([]Comment, error) {
	query := `
		SELECT id, album_id, user_id, user_email, body, created_at
		FROM comments
		WHERE album_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var comment Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.AlbumID,
			&comment.UserID,
			&comment.UserEmail,
			&comment.Body,
			&comment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}
	return comments, nil
}

// Delete removes a comment by ID.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
