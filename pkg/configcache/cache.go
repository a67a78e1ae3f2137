// Package configcache keeps per-node parameter drafts alive across
// configuration panel open/close cycles, independent of the graph's copy.
package configcache

import (
	"context"
	"sync"

	"github.com/flowplane/flowplane/pkg/models"
)

// Store is a keyed cache mapping node identity to the last-edited parameter
// set for that node. Save is idempotent and last-write-wins. Entries outlive
// panel sessions and are cleared only by node deletion or Clear.
type Store interface {
	Save(ctx context.Context, nodeID string, parameters models.Parameters) error
	// Load returns the cached draft and whether one exists.
	Load(ctx context.Context, nodeID string) (models.Parameters, bool, error)
	Delete(ctx context.Context, nodeID string) error
	// Clear evicts every entry. Called when the editor switches workflows.
	Clear(ctx context.Context) error
}

// MemoryStore is the session-scoped in-process implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.Parameters
}

// NewMemoryStore creates an empty in-memory config cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.Parameters)}
}

func (s *MemoryStore) Save(_ context.Context, nodeID string, parameters models.Parameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[nodeID] = parameters.Clone()

	return nil
}

func (s *MemoryStore) Load(_ context.Context, nodeID string) (models.Parameters, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[nodeID]
	if !ok {
		return nil, false, nil
	}

	return entry.Clone(), true, nil
}

func (s *MemoryStore) Delete(_ context.Context, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, nodeID)

	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]models.Parameters)

	return nil
}

// Resolve applies the two-tier read rule for opening a configuration panel:
// prefer the cached draft when one exists and is non-empty, otherwise fall
// back to the graph's committed parameters.
func Resolve(ctx context.Context, store Store, nodeID string, committed models.Parameters) (models.Parameters, error) {
	cached, ok, err := store.Load(ctx, nodeID)
	if err != nil {
		return committed.Clone(), err
	}

	if ok && len(cached) > 0 {
		return cached, nil
	}

	return committed.Clone(), nil
}
