package session

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// ErrArtifactNotFound is returned when a cached artifact does not exist.
var ErrArtifactNotFound = goerrors.New("session artifact not found", goerrors.CategoryNotFound).
	WithTextCode("ARTIFACT_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// MemoryArtifactStore is the in-process ArtifactStore. Suitable for a single
// instance; use the redis-backed store when sessions span processes.
type MemoryArtifactStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemoryArtifactStore returns an empty in-memory store.
func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{
		data: map[string]map[string][]byte{},
	}
}

var _ ArtifactStore = (*MemoryArtifactStore)(nil)

// Put stores an artifact for the subject.
func (m *MemoryArtifactStore) Put(_ context.Context, subjectID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.data[subjectID]
	if !ok {
		bucket = map[string][]byte{}
		m.data[subjectID] = bucket
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	bucket[key] = cp
	return nil
}

// Get retrieves an artifact for the subject.
func (m *MemoryArtifactStore) Get(_ context.Context, subjectID, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if bucket, ok := m.data[subjectID]; ok {
		if value, ok := bucket[key]; ok {
			cp := make([]byte, len(value))
			copy(cp, value)
			return cp, nil
		}
	}

	return nil, ErrArtifactNotFound
}

// Clear drops every artifact for the subject.
func (m *MemoryArtifactStore) Clear(_ context.Context, subjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, subjectID)
	return nil
}
