package domain

import (
	"maps"
	"sync"
)

// BustManifest maps logical output names to their cache-busted names.
// It is shared between the production pipelines of one build.
type BustManifest struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewBustManifest creates an empty manifest.
func NewBustManifest() *BustManifest {
	return &BustManifest{entries: make(map[string]string)}
}

// Record stores the busted name of a logical output name.
func (m *BustManifest) Record(logical, busted string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[logical] = busted
}

// Lookup returns the busted name of a logical output name.
func (m *BustManifest) Lookup(logical string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	busted, ok := m.entries[logical]
	return busted, ok
}

// Entries returns a snapshot of the manifest.
func (m *BustManifest) Entries() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.entries)
}
