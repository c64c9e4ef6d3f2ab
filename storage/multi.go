package storage

import (
	"errors"

	"ethportal.io/api/primitives"
)

// MultiStore provides deterministic, ordered fallback across multiple stores.
//
// Lookup order is the slice order in Stores; callers MUST supply a fixed order.
//
// Put is defined to write only to the first store.
type MultiStore struct {
	Stores []ContentStore
}

var _ ContentStore = MultiStore{}

func (m MultiStore) Put(key []byte, content []byte) (primitives.ContentID, error) {
	if len(m.Stores) == 0 {
		return primitives.ContentID{}, errors.New("storage: MultiStore has no stores")
	}
	return m.Stores[0].Put(key, content)
}

func (m MultiStore) Get(id primitives.ContentID) ([]byte, error) {
	for _, s := range m.Stores {
		b, err := s.Get(id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (m MultiStore) Has(id primitives.ContentID) bool {
	for _, s := range m.Stores {
		if s.Has(id) {
			return true
		}
	}
	return false
}
