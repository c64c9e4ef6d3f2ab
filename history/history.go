// Package history defines the content keys of the history sub-network.
//
// Every history key is a selector followed by a single 32-byte hash.
package history

import (
	"ethportal.io/api/contentkey"
	"ethportal.io/api/primitives"
)

const (
	SelectorBlockHeader      contentkey.Selector = 0x00
	SelectorBlockBody        contentkey.Selector = 0x01
	SelectorReceipts         contentkey.Selector = 0x02
	SelectorEpochAccumulator contentkey.Selector = 0x03
)

// BlockHeaderByHash requests a block header (with its accumulator proof).
type BlockHeaderByHash struct {
	BlockHash primitives.Bytes32 `json:"blockHash"`
}

func (BlockHeaderByHash) Selector() contentkey.Selector { return SelectorBlockHeader }

func (k BlockHeaderByHash) Encode() []byte { return encodeHash(SelectorBlockHeader, k.BlockHash) }

type BlockBodyByHash struct {
	BlockHash primitives.Bytes32 `json:"blockHash"`
}

func (BlockBodyByHash) Selector() contentkey.Selector { return SelectorBlockBody }

func (k BlockBodyByHash) Encode() []byte { return encodeHash(SelectorBlockBody, k.BlockHash) }

type ReceiptsByHash struct {
	BlockHash primitives.Bytes32 `json:"blockHash"`
}

func (ReceiptsByHash) Selector() contentkey.Selector { return SelectorReceipts }

func (k ReceiptsByHash) Encode() []byte { return encodeHash(SelectorReceipts, k.BlockHash) }

// EpochAccumulator requests the accumulator of one 8192-block epoch, keyed by its root.
type EpochAccumulator struct {
	EpochHash primitives.Bytes32 `json:"epochHash"`
}

func (EpochAccumulator) Selector() contentkey.Selector { return SelectorEpochAccumulator }

func (k EpochAccumulator) Encode() []byte { return encodeHash(SelectorEpochAccumulator, k.EpochHash) }

func encodeHash(sel contentkey.Selector, h primitives.Bytes32) []byte {
	b := make([]byte, 0, 1+len(h))
	b = append(b, byte(sel))
	return append(b, h[:]...)
}

// Codec is the history network's variant table.
var Codec = contentkey.NewCodec("history",
	contentkey.Variant{
		Selector:  SelectorBlockHeader,
		Name:      "BlockHeaderByHash",
		Fields:    []string{"blockHash"},
		MaxLen:    32,
		Decode:    func(r *contentkey.Reader) contentkey.Key { return BlockHeaderByHash{BlockHash: r.Bytes32()} },
		Unmarshal: contentkey.Unmarshal[BlockHeaderByHash],
	},
	contentkey.Variant{
		Selector:  SelectorBlockBody,
		Name:      "BlockBodyByHash",
		Fields:    []string{"blockHash"},
		MaxLen:    32,
		Decode:    func(r *contentkey.Reader) contentkey.Key { return BlockBodyByHash{BlockHash: r.Bytes32()} },
		Unmarshal: contentkey.Unmarshal[BlockBodyByHash],
	},
	contentkey.Variant{
		Selector:  SelectorReceipts,
		Name:      "ReceiptsByHash",
		Fields:    []string{"blockHash"},
		MaxLen:    32,
		Decode:    func(r *contentkey.Reader) contentkey.Key { return ReceiptsByHash{BlockHash: r.Bytes32()} },
		Unmarshal: contentkey.Unmarshal[ReceiptsByHash],
	},
	contentkey.Variant{
		Selector:  SelectorEpochAccumulator,
		Name:      "EpochAccumulator",
		Fields:    []string{"epochHash"},
		MaxLen:    32,
		Decode:    func(r *contentkey.Reader) contentkey.Key { return EpochAccumulator{EpochHash: r.Bytes32()} },
		Unmarshal: contentkey.Unmarshal[EpochAccumulator],
	},
)

func Decode(b []byte) (contentkey.Key, error) { return Codec.Decode(b) }
