package fp

import (
	"maps"
	"sync"
)

func NewMutexMap[key comparable, value any]() MutexMap[key, value] {
	return MutexMap[key, value]{
		data: map[key]value{},
		mu:   &sync.RWMutex{},
	}
}

// MutexMap is a map safe for use by concurrent writers, e.g. workers in an errgroup.
type MutexMap[K comparable, V any] struct {
	data map[K]V
	mu   *sync.RWMutex
}

func (m *MutexMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
}

func (m *MutexMap[K, V]) Get(key K) (V, bool) { //nolint:ireturn
	m.mu.RLock()
	value, found := m.data[key]
	m.mu.RUnlock()

	return value, found
}

// Snapshot copies the current contents.
func (m *MutexMap[K, V]) Snapshot() map[K]V {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.data)
}

func (m *MutexMap[K, V]) Delete(key K) {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
}

func (m *MutexMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}
