package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/starford/fragments/internal/apperr"
	"github.com/starford/fragments/internal/models"
)

// MemoryMetadata is an in-memory MetadataStore. Suitable for tests and
// single-process development; records are copied on the way in and out so
// callers never share memory with the store.
type MemoryMetadata struct {
	mu      sync.RWMutex
	records map[string]map[string]models.Fragment // ownerID -> id -> record
}

// NewMemoryMetadata creates an empty in-memory metadata store.
func NewMemoryMetadata() *MemoryMetadata {
	return &MemoryMetadata{records: make(map[string]map[string]models.Fragment)}
}

// List returns the owner's records ordered by creation time, then id.
func (m *MemoryMetadata) List(_ context.Context, ownerID string) ([]models.Fragment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Fragment, 0, len(m.records[ownerID]))
	for _, r := range m.records[ownerID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Read returns one record, or apperr.ErrNotFound.
func (m *MemoryMetadata) Read(_ context.Context, ownerID, id string) (*models.Fragment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[ownerID][id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &r, nil
}

// Write upserts a record.
func (m *MemoryMetadata) Write(_ context.Context, f *models.Fragment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[f.OwnerID] == nil {
		m.records[f.OwnerID] = make(map[string]models.Fragment)
	}
	m.records[f.OwnerID][f.ID] = *f
	return nil
}

// Delete removes a record, failing when it is absent.
func (m *MemoryMetadata) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[ownerID][id]; !ok {
		return fmt.Errorf("delete %s: %w", id, apperr.ErrNotFound)
	}
	delete(m.records[ownerID], id)
	return nil
}

// All returns every record across owners.
func (m *MemoryMetadata) All(_ context.Context) ([]models.Fragment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Fragment
	for _, byID := range m.records {
		for _, r := range byID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Close is a no-op.
func (m *MemoryMetadata) Close() error { return nil }

// MemoryData is an in-memory DataStore.
type MemoryData struct {
	mu       sync.RWMutex
	payloads map[string]map[string][]byte // ownerID -> id -> bytes
}

// NewMemoryData creates an empty in-memory data store.
func NewMemoryData() *MemoryData {
	return &MemoryData{payloads: make(map[string]map[string][]byte)}
}

// Read returns a copy of the payload, or apperr.ErrNotFound.
func (m *MemoryData) Read(_ context.Context, ownerID, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.payloads[ownerID][id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write replaces the payload wholesale.
func (m *MemoryData) Write(_ context.Context, ownerID, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.payloads[ownerID] == nil {
		m.payloads[ownerID] = make(map[string][]byte)
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.payloads[ownerID][id] = stored
	return nil
}

// Exists reports whether a payload is stored.
func (m *MemoryData) Exists(_ context.Context, ownerID, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.payloads[ownerID][id]
	return ok, nil
}

// Delete removes the payload, failing when it is absent.
func (m *MemoryData) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payloads[ownerID][id]; !ok {
		return fmt.Errorf("delete %s: %w", id, apperr.ErrNotFound)
	}
	delete(m.payloads[ownerID], id)
	return nil
}
