// Package contentid derives routing identifiers from content keys and defines the XOR distance
// metric over the 256-bit key space.
package contentid

import (
	"github.com/ipfs/go-cid"

	"ethportal.io/api/cidutil"
	"ethportal.io/api/contentkey"
	"ethportal.io/api/primitives"
)

// FromEncoded returns SHA-256 of canonical content-key bytes.
//
// The bytes are hashed as given; callers holding untrusted input decode them first.
func FromEncoded(encoded []byte) primitives.ContentID {
	return primitives.ContentID(cidutil.SHA256(encoded))
}

// Derive returns the content id of k.
func Derive(k contentkey.Key) primitives.ContentID {
	return FromEncoded(k.Encode())
}

// CID renders a content id as the CIDv1 (raw, sha2-256) of the key it was derived from.
func CID(id primitives.ContentID) (cid.Cid, error) {
	return cidutil.CIDFromSHA256(id[:])
}

// FromCID recovers the content id carried by a CID produced by CID.
func FromCID(c cid.Cid) (primitives.ContentID, error) {
	d, err := cidutil.SHA256FromCID(c)
	if err != nil {
		return primitives.ContentID{}, err
	}
	return primitives.ContentID(d), nil
}
