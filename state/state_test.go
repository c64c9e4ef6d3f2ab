package state

import (
	"reflect"
	"strings"
	"testing"

	"ethportal.io/api/contentkey"
	"ethportal.io/api/primitives"
)

func fullPath() primitives.Nibbles {
	p := make(primitives.Nibbles, primitives.MaxNibbles)
	for i := range p {
		p[i] = byte(i % 16)
	}
	return p
}

func sampleKeys() []contentkey.Key {
	addr := primitives.Address{0x11, 0x22}
	root := primitives.Bytes32{0x33}
	node := primitives.Bytes32{0x44}
	slot, _ := primitives.ParseU256("0x01")
	return []contentkey.Key{
		AccountTrieNode{Path: primitives.Nibbles{0x1, 0x2, 0xf}, NodeHash: node, StateRoot: root},
		AccountTrieNode{NodeHash: node, StateRoot: root},
		AccountTrieNode{Path: fullPath(), NodeHash: node, StateRoot: root},
		ContractStorageTrieNode{Address: addr, Path: primitives.Nibbles{0x0}, NodeHash: node, StateRoot: root},
		ContractStorageTrieNode{Address: addr, Path: fullPath(), NodeHash: node, StateRoot: root},
		AccountTrieProof{Address: addr, StateRoot: root},
		ContractStorageTrieProof{Address: addr, Slot: slot, StateRoot: root},
		ContractBytecode{Address: addr, CodeHash: node},
	}
}

func TestRoundTrip_AllVariants(t *testing.T) {
	for _, k := range sampleKeys() {
		b, err := Codec.Encode(k)
		if err != nil {
			t.Fatalf("%T: Encode: %v", k, err)
		}
		if b[0] != byte(k.Selector()) {
			t.Fatalf("%T: selector byte 0x%02x", k, b[0])
		}
		if len(b) > Codec.MaxKeyLen() {
			t.Fatalf("%T: encoding exceeds MaxKeyLen", k)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("%T: Decode(%x): %v", k, b, err)
		}
		if !reflect.DeepEqual(got, k) {
			t.Fatalf("%T: round trip mismatch:\n got %#v\nwant %#v", k, got, k)
		}
	}
}

func TestDecode_RejectsTruncatedAndTrailing(t *testing.T) {
	for _, k := range sampleKeys() {
		b := k.Encode()
		if _, err := Decode(b[:len(b)-1]); !contentkey.IsKind(err, contentkey.KindMalformed) {
			t.Fatalf("%T truncated: expected MalformedContentKey, got %v", k, err)
		}
		extra := append(append([]byte(nil), b...), 0x00)
		if _, err := Decode(extra); !contentkey.IsKind(err, contentkey.KindMalformed) {
			t.Fatalf("%T trailing byte: expected MalformedContentKey, got %v", k, err)
		}
	}
}

func TestDecode_PathBounds(t *testing.T) {
	// Prefix claims more nibbles than follow.
	b := []byte{byte(SelectorAccountTrieNode), 0x10, 0x01}
	_, err := Decode(b)
	if contentkey.RuleID(err) != contentkey.RuleLengthPrefix {
		t.Fatalf("over-claiming prefix: got %v", err)
	}

	// Prefix above the 64-nibble maximum.
	b = append([]byte{byte(SelectorAccountTrieNode), 65}, make([]byte, 64)...)
	_, err = Decode(b)
	if contentkey.RuleID(err) != contentkey.RuleLengthPrefix {
		t.Fatalf("prefix over maximum: got %v", err)
	}

	k := AccountTrieNode{Path: primitives.Nibbles{0x1}}
	b = k.Encode()
	b[2] = 0x1f
	_, err = Decode(b)
	if contentkey.RuleID(err) != contentkey.RuleNibble {
		t.Fatalf("nibble out of range: got %v", err)
	}
}

func TestDecode_OversizedRejectedUpFront(t *testing.T) {
	b := make([]byte, 1<<20)
	b[0] = byte(SelectorContractBytecode)
	_, err := Decode(b)
	if contentkey.RuleID(err) != contentkey.RuleOversized {
		t.Fatalf("expected oversized rejection, got %v", err)
	}
}

func TestDecodeValue_Object(t *testing.T) {
	addr := "0x" + strings.Repeat("ab", 20)
	root := "0x" + strings.Repeat("cd", 32)
	k, err := Codec.DecodeValue("ContractStorageTrieProof",
		[]byte(`{"address":"`+addr+`","slot":"0x2a","stateRoot":"`+root+`"}`))
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	p, ok := k.(ContractStorageTrieProof)
	if !ok {
		t.Fatalf("unexpected type %T", k)
	}
	if p.Slot[31] != 0x2a || p.Slot[30] != 0 {
		t.Fatalf("slot not left padded: %s", p.Slot)
	}

	_, err = Codec.DecodeValue("AccountTrieProof", []byte(`{"address":"`+addr+`"}`))
	if !contentkey.IsKind(err, contentkey.KindMalformed) {
		t.Fatalf("missing stateRoot: expected MalformedContentKey, got %v", err)
	}
	_, err = Codec.DecodeValue("AccountTrieProof", []byte(`{"address":"0xabc","stateRoot":"`+root+`"}`))
	if !contentkey.IsKind(err, contentkey.KindMalformed) {
		t.Fatalf("odd-length address: expected MalformedContentKey, got %v", err)
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	for _, k := range sampleKeys() {
		name, value, err := Codec.EncodeValue(k)
		if err != nil {
			t.Fatalf("%T: EncodeValue: %v", k, err)
		}
		got, err := Codec.DecodeValue(name, value)
		if err != nil {
			t.Fatalf("%T: DecodeValue(%s): %v", k, value, err)
		}
		if !reflect.DeepEqual(got, k) {
			t.Fatalf("%T: JSON round trip mismatch: %#v", k, got)
		}

		// The hex form carries the same bytes as the wire encoding minus the selector.
		hexValue := `"` + primitives.EncodeHex(k.Encode()[1:]) + `"`
		got, err = Codec.DecodeValue(name, []byte(hexValue))
		if err != nil {
			t.Fatalf("%T: hex DecodeValue: %v", k, err)
		}
		if !reflect.DeepEqual(got, k) {
			t.Fatalf("%T: hex form mismatch: %#v", k, got)
		}
	}
}

func TestVariants_SelectorsUnique(t *testing.T) {
	seen := map[contentkey.Selector]bool{}
	for _, v := range Codec.Variants() {
		if seen[v.Selector] {
			t.Fatalf("duplicate selector 0x%02x", byte(v.Selector))
		}
		seen[v.Selector] = true
		if got, err := Codec.Lookup(v.Name); err != nil || got.Selector != v.Selector {
			t.Fatalf("Lookup(%s): %v", v.Name, err)
		}
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 state variants, got %d", len(seen))
	}
}

func TestEmptyPath_DecodesToNil(t *testing.T) {
	root := primitives.Bytes32{0x01}
	empty, err := Codec.Encode(AccountTrieNode{Path: primitives.Nibbles{}, StateRoot: root})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	unset, err := Codec.Encode(AccountTrieNode{StateRoot: root})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(empty) != string(unset) {
		t.Fatalf("empty and unset paths encode differently: %x %x", empty, unset)
	}

	got, err := Decode(empty)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p := got.(AccountTrieNode).Path; p != nil {
		t.Fatalf("binary decode: empty path is %#v, want nil", p)
	}

	_, value, err := Codec.EncodeValue(got)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	back, err := Codec.DecodeValue("AccountTrieNode", value)
	if err != nil {
		t.Fatalf("DecodeValue(%s): %v", value, err)
	}
	if !reflect.DeepEqual(back, got) {
		t.Fatalf("JSON round trip: got %#v want %#v", back, got)
	}
}

func TestEncode_RefusesInvalidPaths(t *testing.T) {
	long := make(primitives.Nibbles, 300)
	_, err := Codec.Encode(AccountTrieNode{Path: long})
	if contentkey.RuleID(err) != contentkey.RuleLengthPrefix {
		t.Fatalf("300 nibbles: got %v", err)
	}
	_, err = Codec.Encode(ContractStorageTrieNode{Path: append(fullPath(), 0x0)})
	if contentkey.RuleID(err) != contentkey.RuleLengthPrefix {
		t.Fatalf("65 nibbles: got %v", err)
	}
	_, err = Codec.Encode(ContractStorageTrieNode{Path: primitives.Nibbles{0x10}})
	if contentkey.RuleID(err) != contentkey.RuleNibble {
		t.Fatalf("nibble out of range: got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("Encode of a 300-nibble path did not panic")
		}
	}()
	AccountTrieNode{Path: long}.Encode()
}
