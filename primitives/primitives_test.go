package primitives

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/sha3"
)

func TestDecodeHex_Rejects(t *testing.T) {
	if _, err := DecodeHex("0xabc"); !errors.Is(err, ErrOddLength) {
		t.Fatalf("odd length: got %v want ErrOddLength", err)
	}
	if _, err := DecodeHex("0xzz"); !errors.Is(err, ErrInvalidHex) {
		t.Fatalf("invalid chars: got %v want ErrInvalidHex", err)
	}
	b, err := DecodeHex("ABcd")
	if err != nil {
		t.Fatalf("unprefixed mixed case: %v", err)
	}
	if EncodeHex(b) != "0xabcd" {
		t.Fatalf("EncodeHex: got %s", EncodeHex(b))
	}
}

func TestBytes32_ExactWidth(t *testing.T) {
	good := "0x" + strings.Repeat("11", 32)
	h, err := ParseBytes32(good)
	if err != nil {
		t.Fatalf("ParseBytes32: %v", err)
	}
	if h.String() != good {
		t.Fatalf("round trip: got %s", h.String())
	}
	for _, bad := range []string{"0x" + strings.Repeat("11", 31), "0x" + strings.Repeat("11", 33)} {
		if _, err := ParseBytes32(bad); !errors.Is(err, ErrLength) {
			t.Fatalf("%d-char input: got %v want ErrLength", len(bad), err)
		}
	}
}

func TestU256_LeftPadsQuantity(t *testing.T) {
	u, err := ParseU256("0x01")
	if err != nil {
		t.Fatalf("ParseU256: %v", err)
	}
	if u[31] != 1 || u[0] != 0 {
		t.Fatalf("expected left padding, got %s", u)
	}
	if _, err := ParseU256("0x"); !errors.Is(err, ErrLength) {
		t.Fatalf("empty quantity: got %v", err)
	}
	if _, err := ParseU256("0x" + strings.Repeat("00", 33)); !errors.Is(err, ErrLength) {
		t.Fatalf("33-byte quantity: got %v", err)
	}
}

func TestNibbles_JSON(t *testing.T) {
	var v struct {
		Path Nibbles `json:"path"`
	}
	if err := json.Unmarshal([]byte(`{"path":"0x0a0b0c"}`), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(v.Path) != 3 || v.Path[0] != 0x0a {
		t.Fatalf("unexpected path %v", v.Path)
	}
	if err := json.Unmarshal([]byte(`{"path":"0x1a"}`), &v); !errors.Is(err, ErrInvalidNibble) {
		t.Fatalf("expected ErrInvalidNibble, got %v", err)
	}
	long := Nibbles(make([]byte, MaxNibbles+1))
	if err := long.Validate(); !errors.Is(err, ErrLength) {
		t.Fatalf("expected ErrLength for %d nibbles, got %v", len(long), err)
	}
}

func TestParseNetwork(t *testing.T) {
	for in, want := range map[string]ProtocolID{"history": History, "STATE": State, "0x500b": History} {
		got, err := ParseNetwork(in)
		if err != nil {
			t.Fatalf("ParseNetwork(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseNetwork(%q): got %s want %s", in, got, want)
		}
	}
	if _, err := ParseNetwork("0x5009"); err == nil {
		t.Fatalf("expected unsupported network error")
	}
	if History.Uint16() != 0x500b {
		t.Fatalf("History protocol id: got %#x", History.Uint16())
	}
}

func TestParseENR(t *testing.T) {
	if _, err := ParseENR("enr:-IS4QHCYrYZbAKWCBRlAy5zzaDZXJBGkcnh4MHcBFZntXNFrdvJjX04jRzjzCBOonrkTfj499SZuOh8R33Ls8RRcy5wBgmlkgnY0"); err != nil {
		t.Fatalf("ParseENR: %v", err)
	}
	for _, bad := range []string{"", "enode://abc", "enr:", "enr:***", "enr:" + strings.Repeat("A", 500)} {
		if _, err := ParseENR(bad); !errors.Is(err, ErrInvalidENR) {
			t.Fatalf("ParseENR(%.20q): got %v want ErrInvalidENR", bad, err)
		}
	}
}

func TestNodeIDFromPublicKey(t *testing.T) {
	pub := make([]byte, 64)
	for i := range pub {
		pub[i] = byte(i)
	}
	id, err := NodeIDFromPublicKey(pub)
	if err != nil {
		t.Fatalf("NodeIDFromPublicKey: %v", err)
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(pub)
	if want := h.Sum(nil); string(id[:]) != string(want) {
		t.Fatalf("node id mismatch")
	}
	prefixed, err := NodeIDFromPublicKey(append([]byte{0x04}, pub...))
	if err != nil || prefixed != id {
		t.Fatalf("SEC1-prefixed key: got %s, %v", prefixed, err)
	}
	if _, err := NodeIDFromPublicKey(pub[:33]); !errors.Is(err, ErrLength) {
		t.Fatalf("compressed key: got %v want ErrLength", err)
	}
}
