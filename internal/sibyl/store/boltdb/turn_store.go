package boltdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"

	"github.com/vantle/sibyl/internal/sibyl/react"
	"github.com/vantle/sibyl/pkg/utils/json"
)

// ArchivedTurn is one finished agent turn kept for later inspection.
type ArchivedTurn struct {
	ID         string          `json:"id"`
	Question   string          `json:"question"`
	Status     react.Status    `json:"status"`
	State      react.TurnState `json:"state"`
	ArchivedAt time.Time       `json:"archived_at"`
}

// TurnStore archives finished turns in BoltDB.
type TurnStore struct {
	boltDB *bolt.DB
}

// NewTurnStore creates a new TurnStore instance.
func NewTurnStore(boltDB *DB) *TurnStore {
	return &TurnStore{boltDB: boltDB.Bolt()}
}

// Archive stores a finished turn and returns its archive id. Only terminal
// turns are archivable.
func (s *TurnStore) Archive(_ context.Context, state *react.TurnState) (*ArchivedTurn, error) {
	if !state.Status.Terminal() {
		return nil, fmt.Errorf("turn is %q, only finished turns can be archived", state.Status)
	}

	turn := &ArchivedTurn{
		ID:         uuid.NewString(),
		Question:   state.Question,
		Status:     state.Status,
		State:      *state,
		ArchivedAt: time.Now().UTC(),
	}
	err := s.boltDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTurnStore)
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("failed to marshal turn: %w", err)
		}
		return b.Put([]byte(turn.ID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive turn: %w", err)
	}
	return turn, nil
}

// Get returns one archived turn by id.
func (s *TurnStore) Get(_ context.Context, id string) (*ArchivedTurn, error) {
	var turn ArchivedTurn
	err := s.boltDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTurnStore)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("turn %q not found", id)
		}
		return json.Unmarshal(data, &turn)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get turn %q: %w", id, err)
	}
	return &turn, nil
}

// List returns archived turns, newest first. limit <= 0 returns all.
func (s *TurnStore) List(_ context.Context, limit int) ([]*ArchivedTurn, error) {
	var turns []*ArchivedTurn
	err := s.boltDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTurnStore)
		return b.ForEach(func(k, v []byte) error {
			var turn ArchivedTurn
			if err := json.Unmarshal(v, &turn); err != nil {
				return fmt.Errorf("failed to unmarshal turn: %w", err)
			}
			turns = append(turns, &turn)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	sort.Slice(turns, func(i, j int) bool {
		return turns[i].ArchivedAt.After(turns[j].ArchivedAt)
	})
	if limit > 0 && len(turns) > limit {
		turns = turns[:limit]
	}
	return turns, nil
}

// Delete removes one archived turn.
func (s *TurnStore) Delete(_ context.Context, id string) error {
	return s.boltDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTurnStore)
		return b.Delete([]byte(id))
	})
}
