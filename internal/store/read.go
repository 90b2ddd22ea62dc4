package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/drip/internal/mailer"
)

// timeLayout is the stored timestamp format: RFC 3339 UTC with
// sub-second precision, which sorts lexicographically.
const timeLayout = "2006-01-02T15:04:05.999Z07:00"

// FindDue returns every pending item whose due date is at or before
// asOf, ordered by (due_at, id) so runs over the same database state
// are deterministic. Implements mailer.Source.
//
// Returns an empty slice (not nil) when nothing is due.
func (s *Store) FindDue(ctx context.Context, asOf time.Time) ([]mailer.DueItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient, content
		FROM due_items
		WHERE completed_at IS NULL AND due_at <= ?
		ORDER BY due_at ASC, id ASC
	`, asOf.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("query due items: %w", err)
	}
	defer rows.Close()

	items := []mailer.DueItem{}
	for rows.Next() {
		var item mailer.DueItem
		if err := rows.Scan(&item.ID, &item.Recipient, &item.Content); err != nil {
			return nil, fmt.Errorf("scan due item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due items: %w", err)
	}

	return items, nil
}

// CountPending returns the number of items not yet completed,
// regardless of due date.
func (s *Store) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM due_items WHERE completed_at IS NULL
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}
