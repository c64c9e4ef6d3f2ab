// Package state defines the content keys of the state sub-network.
//
// Trie paths are encoded as a one-byte nibble count followed by one nibble per byte.
package state

import (
	"ethportal.io/api/contentkey"
	"ethportal.io/api/primitives"
)

const (
	SelectorAccountTrieNode          contentkey.Selector = 0x00
	SelectorContractStorageTrieNode  contentkey.Selector = 0x01
	SelectorAccountTrieProof         contentkey.Selector = 0x02
	SelectorContractStorageTrieProof contentkey.Selector = 0x03
	SelectorContractBytecode         contentkey.Selector = 0x04
)

const (
	hashLen = 32
	pathLen = 1 + primitives.MaxNibbles
)

// AccountTrieNode requests a node of the account trie by its path from the root.
type AccountTrieNode struct {
	Path      primitives.Nibbles `json:"path"`
	NodeHash  primitives.Bytes32 `json:"nodeHash"`
	StateRoot primitives.Bytes32 `json:"stateRoot"`
}

func (AccountTrieNode) Selector() contentkey.Selector { return SelectorAccountTrieNode }

func (k AccountTrieNode) Validate() error { return k.Path.Validate() }

func (k AccountTrieNode) Encode() []byte {
	b := []byte{byte(SelectorAccountTrieNode)}
	b = contentkey.AppendNibbles(b, k.Path)
	b = append(b, k.NodeHash[:]...)
	return append(b, k.StateRoot[:]...)
}

// ContractStorageTrieNode requests a node of one contract's storage trie.
type ContractStorageTrieNode struct {
	Address   primitives.Address `json:"address"`
	Path      primitives.Nibbles `json:"path"`
	NodeHash  primitives.Bytes32 `json:"nodeHash"`
	StateRoot primitives.Bytes32 `json:"stateRoot"`
}

func (ContractStorageTrieNode) Selector() contentkey.Selector { return SelectorContractStorageTrieNode }

func (k ContractStorageTrieNode) Validate() error { return k.Path.Validate() }

func (k ContractStorageTrieNode) Encode() []byte {
	b := []byte{byte(SelectorContractStorageTrieNode)}
	b = append(b, k.Address[:]...)
	b = contentkey.AppendNibbles(b, k.Path)
	b = append(b, k.NodeHash[:]...)
	return append(b, k.StateRoot[:]...)
}

type AccountTrieProof struct {
	Address   primitives.Address `json:"address"`
	StateRoot primitives.Bytes32 `json:"stateRoot"`
}

func (AccountTrieProof) Selector() contentkey.Selector { return SelectorAccountTrieProof }

func (k AccountTrieProof) Encode() []byte {
	b := []byte{byte(SelectorAccountTrieProof)}
	b = append(b, k.Address[:]...)
	return append(b, k.StateRoot[:]...)
}

// ContractStorageTrieProof requests the proof of one storage slot. Slot is big-endian.
type ContractStorageTrieProof struct {
	Address   primitives.Address `json:"address"`
	Slot      primitives.U256    `json:"slot"`
	StateRoot primitives.Bytes32 `json:"stateRoot"`
}

func (ContractStorageTrieProof) Selector() contentkey.Selector {
	return SelectorContractStorageTrieProof
}

func (k ContractStorageTrieProof) Encode() []byte {
	b := []byte{byte(SelectorContractStorageTrieProof)}
	b = append(b, k.Address[:]...)
	b = append(b, k.Slot[:]...)
	return append(b, k.StateRoot[:]...)
}

type ContractBytecode struct {
	Address  primitives.Address `json:"address"`
	CodeHash primitives.Bytes32 `json:"codeHash"`
}

func (ContractBytecode) Selector() contentkey.Selector { return SelectorContractBytecode }

func (k ContractBytecode) Encode() []byte {
	b := []byte{byte(SelectorContractBytecode)}
	b = append(b, k.Address[:]...)
	return append(b, k.CodeHash[:]...)
}

// Codec is the state network's variant table.
var Codec = contentkey.NewCodec("state",
	contentkey.Variant{
		Selector: SelectorAccountTrieNode,
		Name:     "AccountTrieNode",
		Fields:   []string{"path", "nodeHash", "stateRoot"},
		MaxLen:   pathLen + 2*hashLen,
		Decode: func(r *contentkey.Reader) contentkey.Key {
			return AccountTrieNode{
				Path:      r.Nibbles(primitives.MaxNibbles),
				NodeHash:  r.Bytes32(),
				StateRoot: r.Bytes32(),
			}
		},
		Unmarshal: contentkey.Unmarshal[AccountTrieNode],
	},
	contentkey.Variant{
		Selector: SelectorContractStorageTrieNode,
		Name:     "ContractStorageTrieNode",
		Fields:   []string{"address", "path", "nodeHash", "stateRoot"},
		MaxLen:   primitives.AddressLength + pathLen + 2*hashLen,
		Decode: func(r *contentkey.Reader) contentkey.Key {
			return ContractStorageTrieNode{
				Address:   r.Address(),
				Path:      r.Nibbles(primitives.MaxNibbles),
				NodeHash:  r.Bytes32(),
				StateRoot: r.Bytes32(),
			}
		},
		Unmarshal: contentkey.Unmarshal[ContractStorageTrieNode],
	},
	contentkey.Variant{
		Selector: SelectorAccountTrieProof,
		Name:     "AccountTrieProof",
		Fields:   []string{"address", "stateRoot"},
		MaxLen:   primitives.AddressLength + hashLen,
		Decode: func(r *contentkey.Reader) contentkey.Key {
			return AccountTrieProof{Address: r.Address(), StateRoot: r.Bytes32()}
		},
		Unmarshal: contentkey.Unmarshal[AccountTrieProof],
	},
	contentkey.Variant{
		Selector: SelectorContractStorageTrieProof,
		Name:     "ContractStorageTrieProof",
		Fields:   []string{"address", "slot", "stateRoot"},
		MaxLen:   primitives.AddressLength + 2*hashLen,
		Decode: func(r *contentkey.Reader) contentkey.Key {
			return ContractStorageTrieProof{Address: r.Address(), Slot: r.U256(), StateRoot: r.Bytes32()}
		},
		Unmarshal: contentkey.Unmarshal[ContractStorageTrieProof],
	},
	contentkey.Variant{
		Selector: SelectorContractBytecode,
		Name:     "ContractBytecode",
		Fields:   []string{"address", "codeHash"},
		MaxLen:   primitives.AddressLength + hashLen,
		Decode: func(r *contentkey.Reader) contentkey.Key {
			return ContractBytecode{Address: r.Address(), CodeHash: r.Bytes32()}
		},
		Unmarshal: contentkey.Unmarshal[ContractBytecode],
	},
)

func Decode(b []byte) (contentkey.Key, error) { return Codec.Decode(b) }
