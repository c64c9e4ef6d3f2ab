package contentid

import (
	"bytes"
	"math/big"
	"math/bits"
	"slices"

	"ethportal.io/api/primitives"
)

// Distance is the XOR of two identifiers read as a big-endian unsigned 256-bit integer.
type Distance [32]byte

// XOR returns the distance between a and b. It works on node ids and content ids alike,
// since both live in the same key space.
func XOR[T ~[32]byte](a, b T) Distance {
	var d Distance
	for i := range d {
		d[i] = a[i] ^ b[i]
	}
	return d
}

// Cmp compares two distances as unsigned integers, returning -1, 0 or +1.
func (d Distance) Cmp(o Distance) int { return bytes.Compare(d[:], o[:]) }

func (d Distance) IsZero() bool { return d == Distance{} }

// Log2 is the position of the highest set bit, counted from 1; 0 for a zero distance.
// A non-zero value is the routing-table bucket the far identifier falls into.
func (d Distance) Log2() int {
	for i, b := range d {
		if b != 0 {
			return (len(d)-i)*8 - bits.LeadingZeros8(b)
		}
	}
	return 0
}

func (d Distance) Big() *big.Int { return new(big.Int).SetBytes(d[:]) }

// Within reports d <= radius.
func (d Distance) Within(radius primitives.U256) bool {
	return bytes.Compare(d[:], radius[:]) <= 0
}

func (d Distance) String() string { return primitives.EncodeHex(d[:]) }

func (d Distance) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// SortByDistance orders ids by increasing distance from target. Ties keep their input order.
func SortByDistance[T ~[32]byte](target T, ids []T) {
	slices.SortStableFunc(ids, func(a, b T) int {
		return XOR(target, a).Cmp(XOR(target, b))
	})
}
