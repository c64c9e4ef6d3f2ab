package history

import (
	"encoding/binary"
	"fmt"

	"ethportal.io/api/contentkey"
	"ethportal.io/api/primitives"
)

// Container bounds of history payloads.
const (
	MaxHeaderBytes      = 2048
	HeaderProofLen      = 15
	MaxTransactions     = 16384
	MaxTransactionBytes = 1 << 24
	MaxUnclesBytes      = 1 << 17
	MaxReceipts         = 16384
	MaxReceiptBytes     = 1 << 27
	EpochSize           = 8192
	HeaderRecordBytes   = 64
)

const offsetBytes = 4

// HeaderWithProof is the payload stored under a BlockHeaderByHash key: an RLP header and an
// optional accumulator proof, encoded as an SSZ container whose proof is a union of
// None (selector 0) and 15 hashes (selector 1).
type HeaderWithProof struct {
	Header []byte
	Proof  *[HeaderProofLen]primitives.Bytes32
}

func (h HeaderWithProof) Encode() []byte {
	out := binary.LittleEndian.AppendUint32(nil, 2*offsetBytes)
	out = binary.LittleEndian.AppendUint32(out, uint32(2*offsetBytes+len(h.Header)))
	out = append(out, h.Header...)
	if h.Proof == nil {
		return append(out, 0)
	}
	out = append(out, 1)
	for _, p := range h.Proof {
		out = append(out, p[:]...)
	}
	return out
}

func DecodeHeaderWithProof(b []byte) (HeaderWithProof, error) {
	parts, err := splitContainer(b, 2, "header with proof")
	if err != nil {
		return HeaderWithProof{}, err
	}
	header, proof := parts[0], parts[1]
	if len(header) > MaxHeaderBytes {
		return HeaderWithProof{}, contentkey.ContentError(contentkey.RuleContentBound,
			fmt.Sprintf("header: %d bytes exceeds %d", len(header), MaxHeaderBytes))
	}
	if len(proof) == 0 {
		return HeaderWithProof{}, contentkey.ContentError(contentkey.RuleContentTruncated, "proof: missing union selector")
	}
	out := HeaderWithProof{Header: append([]byte(nil), header...)}
	switch proof[0] {
	case 0:
		if len(proof) != 1 {
			return HeaderWithProof{}, contentkey.ContentError(contentkey.RuleContentFixed, "proof: selector 0 carries no value")
		}
	case 1:
		body := proof[1:]
		if len(body) != HeaderProofLen*32 {
			return HeaderWithProof{}, contentkey.ContentError(contentkey.RuleContentFixed,
				fmt.Sprintf("proof: %d bytes, want %d", len(body), HeaderProofLen*32))
		}
		var p [HeaderProofLen]primitives.Bytes32
		for i := range p {
			copy(p[i][:], body[i*32:])
		}
		out.Proof = &p
	default:
		return HeaderWithProof{}, contentkey.ContentError(contentkey.RuleContentSelector,
			fmt.Sprintf("proof: invalid union selector %d", proof[0]))
	}
	return out, nil
}

// CheckContent applies the container-level checks of k's content type to content. The RLP
// inside headers, transactions and receipts is not inspected.
func CheckContent(k contentkey.Key, content []byte) error {
	switch k.(type) {
	case BlockHeaderByHash:
		_, err := DecodeHeaderWithProof(content)
		return err
	case BlockBodyByHash:
		return checkBlockBody(content)
	case ReceiptsByHash:
		_, err := listItems(content, MaxReceipts, MaxReceiptBytes, "receipts")
		return err
	case EpochAccumulator:
		return checkEpochAccumulator(content)
	default:
		return fmt.Errorf("history: no content type for key %T", k)
	}
}

func checkBlockBody(b []byte) error {
	parts, err := splitContainer(b, 2, "block body")
	if err != nil {
		return err
	}
	if _, err := listItems(parts[0], MaxTransactions, MaxTransactionBytes, "transactions"); err != nil {
		return err
	}
	if len(parts[1]) > MaxUnclesBytes {
		return contentkey.ContentError(contentkey.RuleContentBound,
			fmt.Sprintf("uncles: %d bytes exceeds %d", len(parts[1]), MaxUnclesBytes))
	}
	return nil
}

func checkEpochAccumulator(b []byte) error {
	if len(b)%HeaderRecordBytes != 0 {
		return contentkey.ContentError(contentkey.RuleContentFixed,
			fmt.Sprintf("epoch accumulator: %d bytes is not a whole number of %d-byte records", len(b), HeaderRecordBytes))
	}
	if n := len(b) / HeaderRecordBytes; n > EpochSize {
		return contentkey.ContentError(contentkey.RuleContentBound,
			fmt.Sprintf("epoch accumulator: %d records exceeds %d", n, EpochSize))
	}
	return nil
}

// splitContainer cuts an SSZ container of n variable-size fields into its field bodies.
func splitContainer(b []byte, n int, what string) ([][]byte, error) {
	fixed := n * offsetBytes
	if len(b) < fixed {
		return nil, contentkey.ContentError(contentkey.RuleContentTruncated,
			fmt.Sprintf("%s: %d bytes is shorter than its %d offset bytes", what, len(b), fixed))
	}
	offs := make([]int, n+1)
	for i := 0; i < n; i++ {
		offs[i] = int(binary.LittleEndian.Uint32(b[i*offsetBytes:]))
	}
	offs[n] = len(b)
	if offs[0] != fixed {
		return nil, contentkey.ContentError(contentkey.RuleContentOffset,
			fmt.Sprintf("%s: first offset %d, want %d", what, offs[0], fixed))
	}
	if err := checkOffsets(offs, what); err != nil {
		return nil, err
	}
	out := make([][]byte, n)
	for i := range out {
		out[i] = b[offs[i]:offs[i+1]]
	}
	return out, nil
}

// listItems validates an SSZ list of variable-size items and returns the item count.
func listItems(b []byte, maxItems, maxItemBytes int, what string) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) < offsetBytes {
		return 0, contentkey.ContentError(contentkey.RuleContentTruncated, what+": truncated offset")
	}
	first := int(binary.LittleEndian.Uint32(b))
	if first%offsetBytes != 0 || first < offsetBytes || first > len(b) {
		return 0, contentkey.ContentError(contentkey.RuleContentOffset,
			fmt.Sprintf("%s: invalid first offset %d", what, first))
	}
	n := first / offsetBytes
	if n > maxItems {
		return 0, contentkey.ContentError(contentkey.RuleContentBound,
			fmt.Sprintf("%s: %d items exceeds %d", what, n, maxItems))
	}
	offs := make([]int, n+1)
	for i := 0; i < n; i++ {
		offs[i] = int(binary.LittleEndian.Uint32(b[i*offsetBytes:]))
	}
	offs[n] = len(b)
	if err := checkOffsets(offs, what); err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		if size := offs[i+1] - offs[i]; size > maxItemBytes {
			return 0, contentkey.ContentError(contentkey.RuleContentBound,
				fmt.Sprintf("%s: item %d is %d bytes, exceeds %d", what, i, size, maxItemBytes))
		}
	}
	return n, nil
}

// checkOffsets requires offs to be non-decreasing; the last entry is the buffer length.
func checkOffsets(offs []int, what string) error {
	for i := 1; i < len(offs); i++ {
		if offs[i] < offs[i-1] {
			return contentkey.ContentError(contentkey.RuleContentOffset,
				fmt.Sprintf("%s: offset %d out of order", what, offs[i-1]))
		}
	}
	return nil
}
