// Package cidutil computes sha2-256 digests through multihash and maps them to and from
// IPFS-compatible CIDv1 (raw codec) identifiers.
package cidutil

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

var ErrNotSHA256 = errors.New("cidutil: cid is not raw sha2-256")

// SHA256 returns the sha2-256 digest of data.
func SHA256(data []byte) [32]byte {
	var out [32]byte
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1 length,
		// this should be unreachable.
		return out
	}
	dm, err := multihash.Decode(sum)
	if err != nil {
		return out
	}
	copy(out[:], dm.Digest)
	return out
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// CIDFromSHA256 wraps an existing sha2-256 digest as a CIDv1 (raw).
// The result equals CIDv1RawSHA256CID of the bytes that produced the digest.
func CIDFromSHA256(digest []byte) (cid.Cid, error) {
	if len(digest) != 32 {
		return cid.Undef, fmt.Errorf("cidutil: digest has %d bytes, want 32", len(digest))
	}
	mh, err := multihash.Encode(digest, multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// SHA256FromCID extracts the digest of a CIDv1 (raw + sha2-256).
func SHA256FromCID(id cid.Cid) ([32]byte, error) {
	var out [32]byte
	if !id.Defined() || id.Type() != cid.Raw {
		return out, ErrNotSHA256
	}
	dm, err := multihash.Decode(id.Hash())
	if err != nil {
		return out, fmt.Errorf("cidutil: %w", err)
	}
	if dm.Code != multihash.SHA2_256 || len(dm.Digest) != len(out) {
		return out, ErrNotSHA256
	}
	copy(out[:], dm.Digest)
	return out, nil
}
