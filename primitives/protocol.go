package primitives

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ProtocolID selects a content sub-network. It is carried big-endian on the wire.
type ProtocolID [2]byte

var (
	State   = ProtocolID{0x50, 0x0a}
	History = ProtocolID{0x50, 0x0b}
)

// Networks lists the sub-networks this build implements, in method-surface order.
func Networks() []ProtocolID { return []ProtocolID{History, State} }

func (p ProtocolID) Uint16() uint16 { return binary.BigEndian.Uint16(p[:]) }

// Name returns the short network name used in JSON-RPC method names.
func (p ProtocolID) Name() string {
	switch p {
	case History:
		return "history"
	case State:
		return "state"
	default:
		return EncodeHex(p[:])
	}
}

func (p ProtocolID) String() string { return p.Name() }

// ParseNetwork accepts a network name ("history", "state") or a 2-byte hex protocol id.
func ParseNetwork(s string) (ProtocolID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "history":
		return History, nil
	case "state":
		return State, nil
	}
	var p ProtocolID
	if err := decodeFixed(p[:], []byte(s)); err != nil {
		return ProtocolID{}, fmt.Errorf("unknown network %q", s)
	}
	for _, known := range Networks() {
		if p == known {
			return p, nil
		}
	}
	return ProtocolID{}, fmt.Errorf("unsupported network %s", EncodeHex(p[:]))
}
