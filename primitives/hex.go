// Package primitives defines the fixed-width identifiers, digests and selectors shared by the
// content-key codec, the content-id deriver and the JSON-RPC bridge.
//
// Every type has exactly one canonical byte representation. Text forms are lowercase,
// 0x-prefixed hex; parsing never pads or truncates (U256 quantities excepted).
package primitives

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOddLength  = errors.New("hex string has odd length")
	ErrInvalidHex = errors.New("hex string has invalid characters")
	ErrLength     = errors.New("unexpected byte length")
)

// EncodeHex renders b as lowercase hex with a 0x prefix. Empty input renders as "0x".
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeHex parses hex text with an optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		return nil, ErrOddLength
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return b, nil
}

// HexLen returns the number of text characters needed to carry n bytes including the prefix.
func HexLen(n int) int { return 2 + 2*n }

func decodeFixed(dst []byte, text []byte) error {
	b, err := DecodeHex(string(text))
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrLength, len(b), len(dst))
	}
	copy(dst, b)
	return nil
}

// Bytes is a variable-length payload rendered as hex text.
type Bytes []byte

func (b Bytes) String() string { return EncodeHex(b) }

func (b Bytes) MarshalText() ([]byte, error) { return []byte(EncodeHex(b)), nil }

func (b *Bytes) UnmarshalText(text []byte) error {
	v, err := DecodeHex(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
