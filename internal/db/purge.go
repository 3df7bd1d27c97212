package db

import (
	"context"
	"fmt"
)

// PurgeUser deletes everything the user owns: favorites, listened records,
// comments, and sessions, followed by the user row itself. Data rows go
// before the identity row, and the whole sequence runs in one transaction so
// a failure can never leave the identity gone while data rows remain.
func (db *DB) PurgeUser(ctx context.Context, userID string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	statements := []string{
		`DELETE FROM favorites WHERE user_id = $1`,
		`DELETE FROM listened WHERE user_id = $1`,
		`DELETE FROM comments WHERE user_id = $1`,
		`DELETE FROM sessions WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, userID); err != nil {
			return fmt.Errorf("purging user data: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing purge: %w", err)
	}
	return nil
}
