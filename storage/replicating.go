package storage

import (
	"fmt"

	"ethportal.io/api/contentid"
	"ethportal.io/api/primitives"
)

// NamedStore associates a ContentStore with a stable backend name.
type NamedStore struct {
	Name  string
	Store ContentStore
}

// ReplicatingStore writes to all configured backends.
//
// Reads fall back in order. Writes go to all backends and require every returned
// id to match the id derived from the key (otherwise ErrIDMismatch is returned).
type ReplicatingStore struct {
	Backends []NamedStore
}

var _ ContentStore = ReplicatingStore{}

// PutAll writes the same content to all backends and returns the per-backend ids.
func (r ReplicatingStore) PutAll(key []byte, content []byte) (primitives.ContentID, map[string]primitives.ContentID, error) {
	if len(key) == 0 {
		return primitives.ContentID{}, nil, ErrInvalidKey
	}
	if len(r.Backends) == 0 {
		return primitives.ContentID{}, nil, fmt.Errorf("storage: ReplicatingStore has no backends")
	}
	want := contentid.FromEncoded(key)

	out := make(map[string]primitives.ContentID, len(r.Backends))
	for _, b := range r.Backends {
		if b.Store == nil {
			return primitives.ContentID{}, nil, fmt.Errorf("storage: nil store for backend %q", b.Name)
		}
		got, err := b.Store.Put(key, content)
		if err != nil {
			return primitives.ContentID{}, out, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		out[b.Name] = got
		if got != want {
			return primitives.ContentID{}, out, ErrIDMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingStore) Put(key []byte, content []byte) (primitives.ContentID, error) {
	id, _, err := r.PutAll(key, content)
	return id, err
}

func (r ReplicatingStore) Get(id primitives.ContentID) ([]byte, error) {
	for _, b := range r.Backends {
		if b.Store == nil {
			continue
		}
		out, err := b.Store.Get(id)
		if err == nil {
			return out, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (r ReplicatingStore) Has(id primitives.ContentID) bool {
	for _, b := range r.Backends {
		if b.Store != nil && b.Store.Has(id) {
			return true
		}
	}
	return false
}
