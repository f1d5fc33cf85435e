package routing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry is an in-memory destination store for tests and local
// development.
type MemoryRegistry struct {
	mu           sync.Mutex
	destinations map[uuid.UUID]Destination
	legacy       LegacySettings
	legacySet    bool
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{destinations: make(map[uuid.UUID]Destination)}
}

// Create stores a new destination, generating an id when absent.
func (m *MemoryRegistry) Create(_ context.Context, d Destination) (Destination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	m.destinations[d.ID] = d
	return d, nil
}

// Update overwrites an existing destination.
func (m *MemoryRegistry) Update(_ context.Context, d Destination) (Destination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.destinations[d.ID]
	if !ok {
		return Destination{}, ErrDestinationNotFound
	}
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = time.Now().UTC()
	m.destinations[d.ID] = d
	return d, nil
}

// Delete removes a destination.
func (m *MemoryRegistry) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.destinations[id]; !ok {
		return ErrDestinationNotFound
	}
	delete(m.destinations, id)
	return nil
}

// Get returns one destination by id.
func (m *MemoryRegistry) Get(_ context.Context, id uuid.UUID) (Destination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.destinations[id]
	if !ok {
		return Destination{}, ErrDestinationNotFound
	}
	return d, nil
}

// List returns all destinations ordered by name.
func (m *MemoryRegistry) List(_ context.Context) ([]Destination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked(false), nil
}

// ListEnabled returns enabled destinations ordered by name.
func (m *MemoryRegistry) ListEnabled(_ context.Context) ([]Destination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedLocked(true), nil
}

// LegacySettings returns the fallback webhook configuration, seeded with the
// defaults until an update happens.
func (m *MemoryRegistry) LegacySettings(_ context.Context) (LegacySettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.legacySet {
		return DefaultLegacySettings(), nil
	}
	return m.legacy, nil
}

// UpdateLegacySettings overwrites the fallback webhook configuration.
func (m *MemoryRegistry) UpdateLegacySettings(_ context.Context, s LegacySettings) (LegacySettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.UpdatedAt = time.Now().UTC()
	m.legacy = s
	m.legacySet = true
	return s, nil
}

func (m *MemoryRegistry) sortedLocked(enabledOnly bool) []Destination {
	out := make([]Destination, 0, len(m.destinations))
	for _, d := range m.destinations {
		if enabledOnly && !d.Enabled {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
