package history

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"ethportal.io/api/contentid"
	"ethportal.io/api/contentkey"
	"ethportal.io/api/primitives"
)

func sampleKeys() []contentkey.Key {
	h := primitives.Bytes32{0xde, 0xad, 0xbe, 0xef}
	return []contentkey.Key{
		BlockHeaderByHash{BlockHash: h},
		BlockBodyByHash{BlockHash: h},
		ReceiptsByHash{BlockHash: h},
		EpochAccumulator{EpochHash: h},
	}
}

func TestRoundTrip_AllVariants(t *testing.T) {
	for _, k := range sampleKeys() {
		b, err := Codec.Encode(k)
		if err != nil {
			t.Fatalf("%T: Encode: %v", k, err)
		}
		if len(b) != 33 || b[0] != byte(k.Selector()) {
			t.Fatalf("%T: unexpected encoding %x", k, b)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("%T: Decode: %v", k, err)
		}
		if got != k {
			t.Fatalf("%T: round trip mismatch: %#v", k, got)
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

func TestDecode_UnknownSelector(t *testing.T) {
	b := append([]byte{0x04}, make([]byte, 32)...)
	_, err := Decode(b)
	if !contentkey.IsKind(err, contentkey.KindMalformed) || contentkey.RuleID(err) != contentkey.RuleUnknownSel {
		t.Fatalf("expected unknown selector error, got %v", err)
	}
}

func TestBlockHeaderByHash_EndToEnd(t *testing.T) {
	hashHex := "d1c390624d3bd4e409a61a858e5dcc5517729a9170d014a6c96530d64dd8621d"
	h, err := primitives.ParseBytes32("0x" + hashHex)
	if err != nil {
		t.Fatalf("ParseBytes32: %v", err)
	}
	k := BlockHeaderByHash{BlockHash: h}

	encoded := k.Encode()
	want, _ := hex.DecodeString("00" + hashHex)
	if !bytes.Equal(encoded, want) {
		t.Fatalf("encoding: got %x want %x", encoded, want)
	}

	sum := sha256.Sum256(want)
	if contentid.Derive(k) != primitives.ContentID(sum) {
		t.Fatalf("content id: got %s want %x", contentid.Derive(k), sum)
	}

	fromJSON, err := Codec.DecodeValue("BlockHeaderByHash", []byte(`"0x`+hashHex+`"`))
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	if fromJSON != k {
		t.Fatalf("JSON form decoded to %#v", fromJSON)
	}
}

func TestDecodeValue_ObjectAndHexAgree(t *testing.T) {
	hashHex := strings.Repeat("0f", 32)
	a, err := Codec.DecodeValue("EpochAccumulator", []byte(`{"epochHash":"0x`+hashHex+`"}`))
	if err != nil {
		t.Fatalf("object: %v", err)
	}
	b, err := Codec.DecodeValue("EpochAccumulator", []byte(`"0x`+strings.ToUpper(hashHex)+`"`))
	if err != nil {
		t.Fatalf("hex: %v", err)
	}
	if a != b {
		t.Fatalf("forms disagree: %#v vs %#v", a, b)
	}

	_, err = Codec.DecodeValue("EpochAccumulator", []byte(`{"blockHash":"0x`+hashHex+`"}`))
	if !contentkey.IsKind(err, contentkey.KindMalformed) {
		t.Fatalf("wrong field name: expected MalformedContentKey, got %v", err)
	}
	_, err = Codec.DecodeValue("AccountTrieNode", []byte(`"0x00"`))
	if !contentkey.IsKind(err, contentkey.KindUnsupported) {
		t.Fatalf("state content type on history: expected UnsupportedVariant, got %v", err)
	}
}

func TestEncodeValue_RendersLowercaseHex(t *testing.T) {
	name, value, err := Codec.EncodeValue(ReceiptsByHash{BlockHash: primitives.Bytes32{0xAB}})
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	if name != "ReceiptsByHash" {
		t.Fatalf("content type: got %q", name)
	}
	want := `"0xab` + strings.Repeat("00", 31) + `"`
	if string(value) != want {
		t.Fatalf("value: got %s want %s", value, want)
	}
}
