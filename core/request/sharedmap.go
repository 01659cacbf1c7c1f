package request

import (
	"maps"
	"sync"
)

// SharedMap is request-scoped scratch storage for passing data between handlers.
// It is cleared when the request finishes.
type SharedMap struct {
	mu     sync.RWMutex
	values map[string]any
}

func newSharedMap() *SharedMap {
	return &SharedMap{values: make(map[string]any)}
}

// Get returns the value stored under key.
func (m *SharedMap) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key.
func (m *SharedMap) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Has reports whether key is present.
func (m *SharedMap) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key.
func (m *SharedMap) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

// Len returns the number of stored keys.
func (m *SharedMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Snapshot returns a copy of all entries.
func (m *SharedMap) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}

// Clear removes all entries.
func (m *SharedMap) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.values)
}

// Shared returns the value stored under key in ev's shared map, typed as T.
func Shared[T any](ev *Event, key string) (T, bool) {
	v, ok := ev.shared.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}
