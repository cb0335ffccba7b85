package session

import "sync"

// Store holds the current Snapshot. It has exactly one writer, the
// Controller, and arbitrarily many readers. Snapshots are replaced
// wholesale; readers never see a partially updated value.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	subs     map[int]func(Snapshot)
	nextSub  int
}

// NewStore returns a Store in the bootstrapping state.
func NewStore() *Store {
	return &Store{
		snapshot: Snapshot{Status: StatusBootstrapping},
		subs:     map[int]func(Snapshot){},
	}
}

// Snapshot returns the current value. Safe from any goroutine.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Subscribe registers a change listener and returns its unsubscribe
// function. Listeners run on the writer's goroutine and must not block.
func (s *Store) Subscribe(onChange func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = onChange
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// replace installs a new snapshot and notifies subscribers. Only the
// Controller's event loop calls this.
func (s *Store) replace(snapshot Snapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	listeners := make([]func(Snapshot), 0, len(s.subs))
	for _, cb := range s.subs {
		listeners = append(listeners, cb)
	}
	s.mu.Unlock()

	for _, cb := range listeners {
		if cb != nil {
			cb(snapshot)
		}
	}
}
