package primitives

import (
	"fmt"

	"golang.org/x/crypto/sha3"
)

// NodeIDFromPublicKey derives the v4 identity-scheme node id: keccak256(X || Y) of an
// uncompressed secp256k1 public key. The 0x04 SEC1 prefix is accepted and stripped.
func NodeIDFromPublicKey(pub []byte) (NodeID, error) {
	if len(pub) == 65 && pub[0] == 0x04 {
		pub = pub[1:]
	}
	if len(pub) != 64 {
		return NodeID{}, fmt.Errorf("%w: public key has %d bytes, want 64", ErrLength, len(pub))
	}
	var id NodeID
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(pub)
	h.Sum(id[:0])
	return id, nil
}
