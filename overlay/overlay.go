// Package overlay declares the boundary to the overlay routing collaborator: the component that
// decides which peers to query for a content id and moves payloads across the network.
//
// The JSON-RPC bridge only ever talks to a Network. Implementations live in subpackages
// (memnet for in-process networks, grpcoverlay for a remote collaborator).
package overlay

import (
	"context"
	"errors"

	"ethportal.io/api/contentid"
	"ethportal.io/api/contentkey"
	"ethportal.io/api/primitives"
)

var (
	// ErrContentNotFound is returned when no reachable peer holds the requested content.
	ErrContentNotFound = errors.New("overlay: content not found")
	ErrUnknownPeer     = errors.New("overlay: unknown peer")
	ErrInvalidRequest  = errors.New("overlay: invalid request")
)

// ContentRef is an encoded content key paired with its content id.
type ContentRef struct {
	Key []byte
	ID  primitives.ContentID
}

func NewContentRef(k contentkey.Key) ContentRef {
	b := k.Encode()
	return ContentRef{Key: b, ID: contentid.FromEncoded(b)}
}

// Valid reports whether ID was derived from Key.
func (r ContentRef) Valid() bool {
	return len(r.Key) > 0 && contentid.FromEncoded(r.Key) == r.ID
}

type Pong struct {
	ENRSeq     uint64
	DataRadius primitives.U256
}

// FindContentResult carries either the content itself or the records of peers closer to it.
type FindContentResult struct {
	Content []byte
	ENRs    []primitives.ENR
}

type Bucket struct {
	// Distance is the log2 distance shared by every node in the bucket (1..256).
	Distance int
	Nodes    []primitives.NodeID
}

type RoutingTable struct {
	LocalNodeID primitives.NodeID
	Buckets     []Bucket
}

// Network is one sub-network as seen through the overlay collaborator.
//
// Errors other than the sentinels above are the collaborator's own and are surfaced to
// callers unchanged.
type Network interface {
	Protocol() primitives.ProtocolID

	RoutingTable(ctx context.Context) (RoutingTable, error)
	Radius(ctx context.Context) (primitives.U256, error)
	Ping(ctx context.Context, enr primitives.ENR) (Pong, error)
	FindNodes(ctx context.Context, enr primitives.ENR, distances []uint16) ([]primitives.ENR, error)
	FindContent(ctx context.Context, enr primitives.ENR, ref ContentRef) (FindContentResult, error)

	// RecursiveFindContent walks the network towards ref.ID until a peer returns the content.
	RecursiveFindContent(ctx context.Context, ref ContentRef) ([]byte, error)
	LocalContent(ctx context.Context, ref ContentRef) ([]byte, error)
	Store(ctx context.Context, ref ContentRef, content []byte) error
	// Offer reports whether the peer accepted the content.
	Offer(ctx context.Context, enr primitives.ENR, ref ContentRef, content []byte) (bool, error)
	// Gossip offers content to interested peers and returns how many accepted it.
	Gossip(ctx context.Context, ref ContentRef, content []byte) (int, error)
}
