package main

import (
	"bytes"
	"encoding/json"
	"os"

	"ethportal.io/api/contentid"
	"ethportal.io/api/contentkey"
	"ethportal.io/api/history"
	"ethportal.io/api/primitives"
	"ethportal.io/api/state"
)

type valid struct {
	Network     string          `json:"network"`
	ContentType string          `json:"contentType"`
	Value       json.RawMessage `json:"value"`
	Key         string          `json:"key"`
	ContentID   string          `json:"contentId"`
	CID         string          `json:"cid"`
}

type invalid struct {
	Network string `json:"network"`
	Key     string `json:"key"`
	RuleID  string `json:"ruleId"`
}

func filled(b byte) (h primitives.Bytes32) {
	for i := range h {
		h[i] = b
	}
	return h
}

func address(b byte) (a primitives.Address) {
	for i := range a {
		a[i] = b
	}
	return a
}

func mustBytes32(s string) primitives.Bytes32 {
	h, err := primitives.ParseBytes32(s)
	if err != nil {
		panic(err)
	}
	return h
}

// Prints the content-key conformance vectors (testdata/conformance/contentkey/vectors.json).
func main() {
	blockHash := mustBytes32("0xd1c390624d3bd4e409a61a858e5dcc5517729a9170d014a6c96530d64dd8621d")
	epochHash := mustBytes32("0xe242814b90ed3950e13aac7e56ce116540c71b41d1516605aada26c6c07cc491")
	var slot primitives.U256
	slot[31] = 0x01

	keys := []struct {
		network string
		codec   *contentkey.Codec
		key     contentkey.Key
	}{
		{"history", history.Codec, history.BlockHeaderByHash{BlockHash: blockHash}},
		{"history", history.Codec, history.BlockBodyByHash{BlockHash: blockHash}},
		{"history", history.Codec, history.ReceiptsByHash{BlockHash: blockHash}},
		{"history", history.Codec, history.EpochAccumulator{EpochHash: epochHash}},
		{"state", state.Codec, state.AccountTrieNode{Path: primitives.Nibbles{1, 2, 3}, NodeHash: filled(0x11), StateRoot: filled(0x22)}},
		{"state", state.Codec, state.AccountTrieNode{NodeHash: filled(0x11), StateRoot: filled(0x22)}},
		{"state", state.Codec, state.ContractStorageTrieNode{Address: address(0x33), Path: primitives.Nibbles{0xa}, NodeHash: filled(0x44), StateRoot: filled(0x55)}},
		{"state", state.Codec, state.AccountTrieProof{Address: address(0x66), StateRoot: filled(0x77)}},
		{"state", state.Codec, state.ContractStorageTrieProof{Address: address(0x88), Slot: slot, StateRoot: filled(0x99)}},
		{"state", state.Codec, state.ContractBytecode{Address: address(0xaa), CodeHash: filled(0xbb)}},
	}

	var out struct {
		Valid   []valid   `json:"valid"`
		Invalid []invalid `json:"invalid"`
	}
	for _, k := range keys {
		name, value, err := k.codec.EncodeValue(k.key)
		if err != nil {
			panic(err)
		}
		id := contentid.Derive(k.key)
		c, err := contentid.CID(id)
		if err != nil {
			panic(err)
		}
		out.Valid = append(out.Valid, valid{
			Network:     k.network,
			ContentType: name,
			Value:       value,
			Key:         primitives.EncodeHex(k.key.Encode()),
			ContentID:   id.String(),
			CID:         c.String(),
		})
	}

	header := history.BlockHeaderByHash{BlockHash: blockHash}.Encode()
	bytecode := keys[9].key.Encode()
	node := state.AccountTrieNode{Path: primitives.Nibbles{1}, NodeHash: filled(0x11), StateRoot: filled(0x22)}.Encode()
	overlong := append([]byte{0x00, primitives.MaxNibbles + 1}, make([]byte, primitives.MaxNibbles)...)
	overlong = append(overlong, bytes.Repeat([]byte{0x11}, 32)...)
	overlong = append(overlong, bytes.Repeat([]byte{0x22}, 32)...)
	badNibble := append([]byte{0x00, 0x01, 0x10}, bytes.Repeat([]byte{0x11}, 32)...)
	badNibble = append(badNibble, bytes.Repeat([]byte{0x22}, 32)...)

	for _, v := range []struct {
		network string
		codec   *contentkey.Codec
		key     []byte
	}{
		{"history", history.Codec, nil},
		{"history", history.Codec, append([]byte{0x04}, header[1:]...)},
		{"history", history.Codec, header[:len(header)-1]},
		{"history", history.Codec, append(append([]byte(nil), header...), 0x00)},
		{"state", state.Codec, append(append([]byte(nil), bytecode...), 0x00)},
		{"state", state.Codec, append([]byte{0x05}, bytecode[1:]...)},
		{"state", state.Codec, append(append([]byte(nil), node...), 0x00)},
		{"state", state.Codec, overlong},
		{"state", state.Codec, []byte{0x00, 0x09, 0x01, 0x02, 0x03}},
		{"state", state.Codec, badNibble},
	} {
		_, err := v.codec.Decode(v.key)
		out.Invalid = append(out.Invalid, invalid{
			Network: v.network,
			Key:     primitives.EncodeHex(v.key),
			RuleID:  contentkey.RuleID(err),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		panic(err)
	}
}
