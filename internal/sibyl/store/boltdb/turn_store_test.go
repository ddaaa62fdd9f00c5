package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantle/sibyl/internal/sibyl/react"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sibyl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func finishedTurn(question, finalSQL string) *react.TurnState {
	s := react.NewTurnState(question)
	s.Status = react.StatusCompleted
	s.FinalSQL = finalSQL
	s.Steps = []react.StepModel{{Iteration: 1, Reasoning: "r", PartialSQL: finalSQL}}
	return s
}

func TestTurnStoreArchiveRoundTrip(t *testing.T) {
	store := NewTurnStore(openTestDB(t))
	ctx := context.Background()

	archived, err := store.Archive(ctx, finishedTurn("top customers", "SELECT 1"))
	require.NoError(t, err)
	require.NotEmpty(t, archived.ID)

	got, err := store.Get(ctx, archived.ID)
	require.NoError(t, err)
	assert.Equal(t, "top customers", got.Question)
	assert.Equal(t, react.StatusCompleted, got.Status)
	assert.Equal(t, "SELECT 1", got.State.FinalSQL)
	require.Len(t, got.State.Steps, 1)
}

func TestTurnStoreRejectsUnfinishedTurn(t *testing.T) {
	store := NewTurnStore(openTestDB(t))

	s := react.NewTurnState("q")
	s.Status = react.StatusRunning
	_, err := store.Archive(context.Background(), s)
	assert.Error(t, err)
}

func TestTurnStoreListNewestFirst(t *testing.T) {
	store := NewTurnStore(openTestDB(t))
	ctx := context.Background()

	first, err := store.Archive(ctx, finishedTurn("first", "SELECT 1"))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := store.Archive(ctx, finishedTurn("second", "SELECT 2"))
	require.NoError(t, err)

	turns, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, second.ID, turns[0].ID)
	assert.Equal(t, first.ID, turns[1].ID)

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "second", limited[0].Question)
}

func TestTurnStoreDelete(t *testing.T) {
	store := NewTurnStore(openTestDB(t))
	ctx := context.Background()

	archived, err := store.Archive(ctx, finishedTurn("q", "SELECT 1"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, archived.ID))

	_, err = store.Get(ctx, archived.ID)
	assert.Error(t, err)
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store := NewSessionStore(openTestDB(t))
	ctx := context.Background()

	meta := &SessionMeta{ID: "s1", Name: "exploration", LastQuestion: "q", TurnCount: 3, UpdatedAt: time.Now().UTC()}
	require.NoError(t, store.Put(ctx, meta))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "exploration", got.Name)
	assert.Equal(t, 3, got.TurnCount)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.Error(t, err)
}
