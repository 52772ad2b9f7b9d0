package expression

import (
	"sort"
	"sync"
)

// Variables resolves and stores named values during evaluation.
type Variables interface {
	Get(name string) (Value, bool)
	Set(name string, value Value)
}

// MapVariables is a Variables backed by a map; safe for concurrent use.
type MapVariables struct {
	mu     sync.RWMutex
	values map[string]Value
}

// NewVariables returns an empty variable store.
func NewVariables() *MapVariables {
	return &MapVariables{values: map[string]Value{}}
}

// Get implements Variables.
func (m *MapVariables) Get(name string) (Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	return v, ok
}

// Set implements Variables.
func (m *MapVariables) Set(name string, value Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
}

// Names returns the stored names in sorted order.
func (m *MapVariables) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.values))
	for name := range m.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
