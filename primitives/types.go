package primitives

import (
	"errors"
	"fmt"
)

const (
	IDLength      = 32
	AddressLength = 20
	// MaxNibbles bounds trie paths: a 32-byte key hash has 64 nibbles.
	MaxNibbles = 64
)

var ErrInvalidNibble = errors.New("nibble out of range")

// NodeID identifies a peer in the overlay's 256-bit key space.
type NodeID [IDLength]byte

func ParseNodeID(s string) (NodeID, error) {
	var id NodeID
	return id, id.UnmarshalText([]byte(s))
}

func (id NodeID) String() string { return EncodeHex(id[:]) }
func (id NodeID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *NodeID) UnmarshalText(text []byte) error { return decodeFixed(id[:], text) }

// ContentID is the routing coordinate of a content key.
type ContentID [IDLength]byte

func ParseContentID(s string) (ContentID, error) {
	var id ContentID
	return id, id.UnmarshalText([]byte(s))
}

func (id ContentID) String() string { return EncodeHex(id[:]) }
func (id ContentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *ContentID) UnmarshalText(text []byte) error { return decodeFixed(id[:], text) }

// Bytes32 is a 32-byte hash digest (block hash, trie node hash, state root, code hash).
type Bytes32 [32]byte

func ParseBytes32(s string) (Bytes32, error) {
	var h Bytes32
	return h, h.UnmarshalText([]byte(s))
}

func (h Bytes32) String() string { return EncodeHex(h[:]) }
func (h Bytes32) MarshalText() ([]byte, error) { return []byte(h.String()), nil }
func (h *Bytes32) UnmarshalText(text []byte) error { return decodeFixed(h[:], text) }

// Address is a 20-byte account address.
type Address [AddressLength]byte

func ParseAddress(s string) (Address, error) {
	var a Address
	return a, a.UnmarshalText([]byte(s))
}

func (a Address) String() string { return EncodeHex(a[:]) }
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }
func (a *Address) UnmarshalText(text []byte) error { return decodeFixed(a[:], text) }

// U256 is a big-endian unsigned 256-bit integer.
//
// Text input is a hex quantity of 1..32 bytes and is left-padded; output is always 32 bytes.
type U256 [32]byte

// MaxU256 is 2^256 - 1.
var MaxU256 = func() U256 {
	var u U256
	for i := range u {
		u[i] = 0xff
	}
	return u
}()

func ParseU256(s string) (U256, error) {
	var u U256
	return u, u.UnmarshalText([]byte(s))
}

func (u U256) String() string { return EncodeHex(u[:]) }
func (u U256) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *U256) UnmarshalText(text []byte) error {
	b, err := DecodeHex(string(text))
	if err != nil {
		return err
	}
	if len(b) == 0 || len(b) > len(u) {
		return fmt.Errorf("%w: got %d bytes, want 1..%d", ErrLength, len(b), len(u))
	}
	*u = U256{}
	copy(u[len(u)-len(b):], b)
	return nil
}

// Nibbles is a trie path stored one nibble (0x0..0xf) per byte. The empty path is nil: both
// the binary and the text decoders return nil for it, so keys holding a root path should
// leave Path unset.
type Nibbles []byte

func (n Nibbles) Validate() error {
	if len(n) > MaxNibbles {
		return fmt.Errorf("%w: path has %d nibbles, max %d", ErrLength, len(n), MaxNibbles)
	}
	for i, v := range n {
		if v > 0x0f {
			return fmt.Errorf("%w: 0x%02x at index %d", ErrInvalidNibble, v, i)
		}
	}
	return nil
}

func (n Nibbles) String() string { return EncodeHex(n) }
func (n Nibbles) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

func (n *Nibbles) UnmarshalText(text []byte) error {
	b, err := DecodeHex(string(text))
	if err != nil {
		return err
	}
	v := Nibbles(b)
	if len(v) == 0 {
		v = nil
	}
	if err := v.Validate(); err != nil {
		return err
	}
	*n = v
	return nil
}
