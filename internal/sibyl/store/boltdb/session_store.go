package boltdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/boltdb/bolt"

	"github.com/vantle/sibyl/pkg/utils/json"
)

// SessionMeta is the console-side record of one named conversation.
type SessionMeta struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LastQuestion string    `json:"last_question,omitempty"`
	TurnCount    int       `json:"turn_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionStore keeps session metadata in BoltDB.
type SessionStore struct {
	boltDB *bolt.DB
}

// NewSessionStore creates a new SessionStore instance.
func NewSessionStore(boltDB *DB) *SessionStore {
	return &SessionStore{boltDB: boltDB.Bolt()}
}

// Put creates or overwrites a session record.
func (s *SessionStore) Put(_ context.Context, meta *SessionMeta) error {
	return s.boltDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessionStore)
		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		return b.Put([]byte(meta.ID), data)
	})
}

// Get returns one session record by id.
func (s *SessionStore) Get(_ context.Context, id string) (*SessionMeta, error) {
	var meta SessionMeta
	err := s.boltDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessionStore)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("session %q not found", id)
		}
		return json.Unmarshal(data, &meta)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get session %q: %w", id, err)
	}
	return &meta, nil
}

// List returns all session records, most recently updated first.
func (s *SessionStore) List(_ context.Context) ([]*SessionMeta, error) {
	var metas []*SessionMeta
	err := s.boltDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessionStore)
		return b.ForEach(func(k, v []byte) error {
			var meta SessionMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return fmt.Errorf("failed to unmarshal session: %w", err)
			}
			metas = append(metas, &meta)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Delete removes a session record.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	return s.boltDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessionStore)
		return b.Delete([]byte(id))
	})
}
