// Package state holds the observable application state shared by the synchronization services.
package state

import (
	"sync"
	"sync/atomic"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
)

// Store publishes immutable snapshots. Writes are serialized; reads never block.
type Store struct {
	current atomic.Pointer[Snapshot]

	mu        sync.Mutex
	listeners map[uint64]chan *Snapshot
	nextID    uint64
}

// New creates a store holding an empty, signed-out snapshot.
func New() *Store {
	store := &Store{listeners: make(map[uint64]chan *Snapshot)}
	store.current.Store(&Snapshot{
		Language:  entity.DefaultLanguage,
		Favorites: FavoriteState{IDs: make(map[uuid.UUID]struct{})},
		Chat:      ChatState{Statuses: make(map[uuid.UUID]entity.ConversationStatus)},
	})

	return store
}

// Snapshot returns the latest published snapshot. Callers must not modify it.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Update applies fn to a copy of the latest snapshot and publishes the result.
func (s *Store) Update(fn func(next *Snapshot)) *Snapshot {
	snap, _ := s.UpdateIf(func(next *Snapshot) bool {
		fn(next)

		return true
	})

	return snap
}

// UpdateIf publishes the copy only when fn returns true. It returns the snapshot current
// after the call and whether fn's changes were committed.
func (s *Store) UpdateIf(fn func(next *Snapshot) bool) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	next := cur.clone()
	if !fn(next) {
		return cur, false
	}
	next.Version = cur.Version + 1
	s.current.Store(next)

	for _, ch := range s.listeners {
		notify(ch, next)
	}

	return next, true
}

// Subscribe returns a channel receiving every newer snapshot, coalescing bursts so a slow
// reader only sees the latest one, and a cancel func closing it.
func (s *Store) Subscribe() (<-chan *Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan *Snapshot, 1)
	s.listeners[id] = ch
	notify(ch, s.current.Load())

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			close(ch)
		})
	}

	return ch, cancel
}

// notify replaces any undelivered snapshot with snap. Called with s.mu held.
func notify(ch chan *Snapshot, snap *Snapshot) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
