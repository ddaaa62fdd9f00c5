package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantle/sibyl/internal/sibyl/react"
)

func openTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func completedTurn(question, finalSQL string, rows int) *react.TurnState {
	s := react.NewTurnState(question)
	s.Status = react.StatusCompleted
	s.FinalSQL = finalSQL
	s.ExecutionResult = &react.ExecutionResult{RowCount: rows, DurationMs: 42}
	return s
}

func TestHistoryRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, completedTurn("top customers", "SELECT 1", 10))
	require.NoError(t, err)

	failed := react.NewTurnState("broken question")
	failed.Status = react.StatusError
	failed.Err = "agent exploded"
	_, err = store.Record(ctx, failed)
	require.NoError(t, err)

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first; equal timestamps fall back to insertion order.
	assert.Equal(t, "broken question", entries[0].Question)
	assert.Equal(t, react.StatusError, entries[0].Status)
	assert.Equal(t, "agent exploded", entries[0].Error)
	assert.Equal(t, "top customers", entries[1].Question)
	assert.Equal(t, 10, entries[1].RowCount)
	assert.EqualValues(t, 42, entries[1].DurationMs)
}

func TestHistoryRejectsUnfinishedTurn(t *testing.T) {
	store := openTestStore(t)

	s := react.NewTurnState("q")
	s.Status = react.StatusRunning
	_, err := store.Record(context.Background(), s)
	assert.Error(t, err)
}

func TestHistorySearch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, completedTurn("orders by region", "SELECT region FROM orders", 5))
	require.NoError(t, err)
	_, err = store.Record(ctx, completedTurn("customer churn", "SELECT * FROM customers", 3))
	require.NoError(t, err)

	entries, err := store.Search(ctx, "orders", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "orders by region", entries[0].Question)

	entries, err = store.Search(ctx, "SELECT", 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = store.Search(ctx, "nothing matches this", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
