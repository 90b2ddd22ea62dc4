package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/drip/internal/mailer"
)

// InsertDueItem enqueues a notification for delivery at dueAt and
// returns its assigned ID.
func (s *Store) InsertDueItem(ctx context.Context, recipient, content string, dueAt time.Time) (mailer.ItemID, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO due_items (recipient, content, due_at)
		VALUES (?, ?, ?)
	`, recipient, content, dueAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert due item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert due item: last insert id: %w", err)
	}
	return mailer.ItemID(id), nil
}

// MarkCompleted records the given items as done in a single
// transaction. Implements mailer.Marker.
//
// Marking an already-completed item leaves its original completion
// time untouched, so re-running a workflow over stale state is
// idempotent.
func (s *Store) MarkCompleted(ctx context.Context, ids []mailer.ItemID) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mark completed: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE due_items
		SET completed_at = ?
		WHERE id = ? AND completed_at IS NULL
	`)
	if err != nil {
		return fmt.Errorf("mark completed: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeLayout)
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, now, int64(id)); err != nil {
			return fmt.Errorf("mark completed: item %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mark completed: commit: %w", err)
	}
	return nil
}
