package cidutil

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

func TestSHA256_MatchesStdlib(t *testing.T) {
	data := []byte("portal content key")
	if got, want := SHA256(data), sha256.Sum256(data); got != want {
		t.Fatalf("digest mismatch: %x vs %x", got, want)
	}
}

func TestCIDFromSHA256_MatchesDataCID(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02}
	fromData, err := CIDv1RawSHA256CID(data)
	if err != nil {
		t.Fatalf("CIDv1RawSHA256CID: %v", err)
	}
	digest := SHA256(data)
	fromDigest, err := CIDFromSHA256(digest[:])
	if err != nil {
		t.Fatalf("CIDFromSHA256: %v", err)
	}
	if !fromData.Equals(fromDigest) {
		t.Fatalf("cid mismatch: %s vs %s", fromData, fromDigest)
	}
	back, err := SHA256FromCID(fromDigest)
	if err != nil {
		t.Fatalf("SHA256FromCID: %v", err)
	}
	if back != digest {
		t.Fatalf("digest round trip mismatch")
	}
}

func TestSHA256FromCID_RejectsOtherHashes(t *testing.T) {
	sum, err := multihash.Sum([]byte("x"), multihash.SHA2_512, -1)
	if err != nil {
		t.Fatalf("multihash.Sum: %v", err)
	}
	if _, err := SHA256FromCID(cid.NewCidV1(cid.Raw, sum)); !errors.Is(err, ErrNotSHA256) {
		t.Fatalf("sha2-512 cid: got %v want ErrNotSHA256", err)
	}
	if _, err := SHA256FromCID(cid.Undef); !errors.Is(err, ErrNotSHA256) {
		t.Fatalf("undefined cid: got %v want ErrNotSHA256", err)
	}
	if _, err := CIDFromSHA256(make([]byte, 31)); err == nil {
		t.Fatalf("expected error for short digest")
	}
}
