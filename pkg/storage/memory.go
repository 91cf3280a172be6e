package storage

import (
	"sync"
	"time"
)

// memoryRepository keeps documents in process memory.
type memoryRepository struct {
	mu       sync.RWMutex
	docs     map[string][]byte
	previous map[string][]byte
	infos    map[string]Info
	closed   bool
}

// NewMemory returns a Repository that is not persisted. Used in tests and
// for dry runs.
func NewMemory() Repository {
	return &memoryRepository{
		docs:     make(map[string][]byte),
		previous: make(map[string][]byte),
		infos:    make(map[string]Info),
	}
}

func (m *memoryRepository) Read(name string) ([]byte, error) {
	return m.get(m.docs, name)
}

func (m *memoryRepository) Previous(name string) ([]byte, error) {
	return m.get(m.previous, name)
}

func (m *memoryRepository) get(from map[string][]byte, name string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	data, ok := from[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *memoryRepository) Write(name string, data []byte) error {
	return m.put(name, data, false)
}

func (m *memoryRepository) Replace(name string, data []byte) error {
	return m.put(name, data, true)
}

func (m *memoryRepository) put(name string, data []byte, keepPrevious bool) error {
	if name == "" {
		return ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	info := m.infos[name]
	info.Name = name
	if current, ok := m.docs[name]; ok && keepPrevious {
		m.previous[name] = current
		info.HasPrevious = true
	}

	m.docs[name] = append([]byte(nil), data...)
	info.Revision++
	info.UpdatedAt = time.Now()
	info.Size = len(data)
	m.infos[name] = info

	return nil
}

func (m *memoryRepository) Info(name string) (Info, error) {
	if name == "" {
		return Info{}, ErrEmptyName
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Info{}, ErrClosed
	}
	info, ok := m.infos[name]
	if !ok {
		return Info{}, ErrNotFound
	}
	return info, nil
}

func (m *memoryRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
