package testkit

import (
	"bytes"
	"errors"
	"testing"

	"ethportal.io/api/contentid"
	"ethportal.io/api/storage"
)

// NewStore constructs a fresh, empty ContentStore for a test.
// The returned store MUST be isolated from other tests.
type NewStore func(t *testing.T) storage.ContentStore

// A BlockHeaderByHash key; the payload bytes are arbitrary.
var sampleKey = append([]byte{0x00}, bytes.Repeat([]byte{0x5a}, 32)...)

func RunStoreConformance(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := []byte("block header bytes")

		id, err := s.Put(sampleKey, want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if id != contentid.FromEncoded(sampleKey) {
			t.Fatalf("Put id mismatch: got %s want %s", id, contentid.FromEncoded(sampleKey))
		}

		got, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		s := newStore(t)
		b := []byte("same bytes")

		id1, err := s.Put(sampleKey, b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := s.Put(sampleKey, b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("Immutable", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Put(sampleKey, []byte("first")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		_, err := s.Put(sampleKey, []byte("second"))
		if !errors.Is(err, storage.ErrImmutable) {
			t.Fatalf("overwrite: got err=%v want ErrImmutable", err)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		s := newStore(t)
		id := contentid.FromEncoded(sampleKey)

		if s.Has(id) {
			t.Fatalf("Has returned true for missing id")
		}
		_, err := s.Get(id)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}

		if _, err := s.Put(sampleKey, []byte("x")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !s.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectEmptyKey", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Put(nil, []byte("x")); err == nil {
			t.Fatalf("Put should fail for an empty key")
		}
	})
}
