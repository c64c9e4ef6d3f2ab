package storage

import (
	"ethportal.io/api/primitives"
)

// ContentStore holds content payloads keyed by the content id of their content key.
//
// Contract:
// - Put MUST be idempotent.
// - Stored payloads MUST be immutable: a second Put of the same key with different bytes fails
//   with ErrImmutable.
// - The id MUST be derived from the encoded key supplied to Put.
// - Get MUST return ErrNotFound when the id is absent.
type ContentStore interface {
	Put(key []byte, content []byte) (primitives.ContentID, error)
	Get(id primitives.ContentID) ([]byte, error)
	Has(id primitives.ContentID) bool
}
