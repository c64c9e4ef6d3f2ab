package storage

import (
	"bytes"
	"sync"

	"ethportal.io/api/contentid"
	"ethportal.io/api/primitives"
)

// Memory is an in-process ContentStore. The zero value is ready to use.
type Memory struct {
	mu      sync.RWMutex
	entries map[primitives.ContentID]entry
}

type entry struct {
	key     []byte
	content []byte
}

var _ ContentStore = (*Memory)(nil)

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Put(key []byte, content []byte) (primitives.ContentID, error) {
	if len(key) == 0 {
		return primitives.ContentID{}, ErrInvalidKey
	}
	id := contentid.FromEncoded(key)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[primitives.ContentID]entry)
	}
	if have, ok := m.entries[id]; ok {
		if !bytes.Equal(have.content, content) {
			return id, ErrImmutable
		}
		return id, nil
	}
	m.entries[id] = entry{
		key:     append([]byte(nil), key...),
		content: append([]byte(nil), content...),
	}
	return id, nil
}

func (m *Memory) Get(id primitives.ContentID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.content...), nil
}

func (m *Memory) Has(id primitives.ContentID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[id]
	return ok
}

// Key returns the encoded content key stored under id.
func (m *Memory) Key(id primitives.ContentID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.key...), nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
