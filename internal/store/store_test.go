package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drip/internal/mailer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drip.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	// Re-opening an existing database is idempotent.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
}

func TestOpenAppliesSchemaVersion(t *testing.T) {
	s := openTestStore(t)

	var version int
	require.NoError(t, s.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestInsertAndFindDue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id1, err := s.InsertDueItem(ctx, "a@x.test", "first", now.Add(-time.Hour))
	require.NoError(t, err)
	id2, err := s.InsertDueItem(ctx, "b@x.test", "second", now)
	require.NoError(t, err)
	_, err = s.InsertDueItem(ctx, "c@x.test", "future", now.Add(time.Hour))
	require.NoError(t, err)

	items, err := s.FindDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, items, 2, "the future item is not yet due")

	assert.Equal(t, id1, items[0].ID, "ordered by due date, earliest first")
	assert.Equal(t, "a@x.test", items[0].Recipient)
	assert.Equal(t, "first", items[0].Content)
	assert.Equal(t, id2, items[1].ID)
}

func TestFindDueEmpty(t *testing.T) {
	s := openTestStore(t)

	items, err := s.FindDue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFindDueDeterministicOrderForEqualDueDates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	due := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var want []mailer.ItemID
	for _, r := range []string{"c@x.test", "a@x.test", "b@x.test"} {
		id, err := s.InsertDueItem(ctx, r, "same instant", due)
		require.NoError(t, err)
		want = append(want, id)
	}

	items, err := s.FindDue(ctx, due)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, item := range items {
		assert.Equal(t, want[i], item.ID, "ties on due_at break by insertion id")
	}
}

func TestMarkCompleted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id1, err := s.InsertDueItem(ctx, "a@x.test", "one", now)
	require.NoError(t, err)
	id2, err := s.InsertDueItem(ctx, "b@x.test", "two", now)
	require.NoError(t, err)

	require.NoError(t, s.MarkCompleted(ctx, []mailer.ItemID{id1}))

	items, err := s.FindDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id2, items[0].ID)

	n, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMarkCompletedIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	id, err := s.InsertDueItem(ctx, "a@x.test", "one", now)
	require.NoError(t, err)

	require.NoError(t, s.MarkCompleted(ctx, []mailer.ItemID{id}))

	var first string
	require.NoError(t, s.DB().QueryRow(
		"SELECT completed_at FROM due_items WHERE id = ?", int64(id)).Scan(&first))

	// A second mark must not move the completion time.
	require.NoError(t, s.MarkCompleted(ctx, []mailer.ItemID{id}))

	var second string
	require.NoError(t, s.DB().QueryRow(
		"SELECT completed_at FROM due_items WHERE id = ?", int64(id)).Scan(&second))
	assert.Equal(t, first, second)
}

func TestMarkCompletedEmptySet(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.MarkCompleted(context.Background(), nil))
}
