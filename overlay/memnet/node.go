package memnet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"ethportal.io/api/contentid"
	"ethportal.io/api/overlay"
	"ethportal.io/api/primitives"
	"ethportal.io/api/storage"
)

// Node is one participant of a Net. It implements overlay.Network from its own point of view.
type Node struct {
	net    *Net
	id     primitives.NodeID
	enr    primitives.ENR
	seq    uint64
	radius primitives.U256

	// own is the radius-bound content database. cache holds content fetched by lookups.
	own   *storage.Memory
	cache *storage.Memory
}

var _ overlay.Network = (*Node)(nil)

func (n *Node) ID() primitives.NodeID { return n.id }

// held is what the node can serve: its database first, then its lookup cache.
func (n *Node) held() storage.MultiStore {
	return storage.MultiStore{Stores: []storage.ContentStore{n.own, n.cache}}
}

func (n *Node) ENR() primitives.ENR { return n.enr }

func (n *Node) Protocol() primitives.ProtocolID { return n.net.protocol }

func (n *Node) RoutingTable(ctx context.Context) (overlay.RoutingTable, error) {
	if err := ctx.Err(); err != nil {
		return overlay.RoutingTable{}, err
	}
	buckets := map[int][]primitives.NodeID{}
	for _, p := range n.net.peers(n, primitives.ContentID(n.id)) {
		d := contentid.XOR(n.id, p.id).Log2()
		buckets[d] = append(buckets[d], p.id)
	}
	rt := overlay.RoutingTable{LocalNodeID: n.id}
	for d, ids := range buckets {
		rt.Buckets = append(rt.Buckets, overlay.Bucket{Distance: d, Nodes: ids})
	}
	slices.SortFunc(rt.Buckets, func(a, b overlay.Bucket) int { return a.Distance - b.Distance })
	return rt, nil
}

func (n *Node) Radius(ctx context.Context) (primitives.U256, error) {
	return n.radius, ctx.Err()
}

func (n *Node) Ping(ctx context.Context, enr primitives.ENR) (overlay.Pong, error) {
	if err := ctx.Err(); err != nil {
		return overlay.Pong{}, err
	}
	p, err := n.net.lookup(enr)
	if err != nil {
		return overlay.Pong{}, err
	}
	return overlay.Pong{ENRSeq: p.seq, DataRadius: p.radius}, nil
}

// FindNodes asks the peer at enr for the nodes it knows at the given log2 distances from
// itself. Distance 0 names the peer itself.
func (n *Node) FindNodes(ctx context.Context, enr primitives.ENR, distances []uint16) ([]primitives.ENR, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := n.net.lookup(enr)
	if err != nil {
		return nil, err
	}
	var out []primitives.ENR
	if slices.Contains(distances, 0) {
		out = append(out, p.enr)
	}
	for _, q := range p.net.peers(p, primitives.ContentID(p.id)) {
		if len(out) == MaxENRs {
			break
		}
		if slices.Contains(distances, uint16(contentid.XOR(p.id, q.id).Log2())) {
			out = append(out, q.enr)
		}
	}
	return out, nil
}

func (n *Node) FindContent(ctx context.Context, enr primitives.ENR, ref overlay.ContentRef) (overlay.FindContentResult, error) {
	if err := ctx.Err(); err != nil {
		return overlay.FindContentResult{}, err
	}
	p, err := n.net.lookup(enr)
	if err != nil {
		return overlay.FindContentResult{}, err
	}
	return p.answerFindContent(ref), nil
}

// answerFindContent serves content when held, else the peers closer to it than this node.
func (n *Node) answerFindContent(ref overlay.ContentRef) overlay.FindContentResult {
	if b, err := n.held().Get(ref.ID); err == nil {
		return overlay.FindContentResult{Content: b}
	}
	own := contentid.XOR(primitives.ContentID(n.id), ref.ID)
	var enrs []primitives.ENR
	for _, q := range n.net.peers(n, ref.ID) {
		if len(enrs) == MaxENRs || contentid.XOR(primitives.ContentID(q.id), ref.ID).Cmp(own) >= 0 {
			break
		}
		enrs = append(enrs, q.enr)
	}
	return overlay.FindContentResult{ENRs: enrs}
}

func (n *Node) RecursiveFindContent(ctx context.Context, ref overlay.ContentRef) ([]byte, error) {
	if !ref.Valid() {
		return nil, overlay.ErrInvalidRequest
	}
	if b, err := n.held().Get(ref.ID); err == nil {
		return b, nil
	}

	queried := map[primitives.ENR]bool{n.enr: true}
	candidates := n.net.peers(n, ref.ID)
	for len(candidates) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := candidates[0]
		candidates = candidates[1:]
		if queried[next.enr] {
			continue
		}
		queried[next.enr] = true

		res := next.answerFindContent(ref)
		if res.Content != nil {
			n.net.log.Debug("memnet: content found",
				slog.String("network", n.net.protocol.Name()),
				slog.String("content_id", ref.ID.String()),
				slog.String("peer", next.id.String()),
				slog.Int("hops", len(queried)-1))
			if _, err := n.cache.Put(ref.Key, res.Content); err != nil {
				n.net.log.Warn("memnet: cache content",
					slog.String("content_id", ref.ID.String()),
					slog.String("err", err.Error()))
			}
			return res.Content, nil
		}
		for _, enr := range res.ENRs {
			if queried[enr] {
				continue
			}
			if p, err := n.net.lookup(enr); err == nil {
				candidates = append(candidates, p)
			}
		}
		sortByDistance(candidates, ref.ID)
	}
	return nil, overlay.ErrContentNotFound
}

func (n *Node) LocalContent(ctx context.Context, ref overlay.ContentRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := n.own.Get(ref.ID)
	if storage.IsNotFound(err) {
		return nil, overlay.ErrContentNotFound
	}
	return b, err
}

// Store writes to the local database regardless of radius, and to the closest peers when
// the Net replicates stores.
func (n *Node) Store(ctx context.Context, ref overlay.ContentRef, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ref.Valid() {
		return overlay.ErrInvalidRequest
	}
	if err := overlay.CheckContent(n.net.protocol, ref, content); err != nil {
		return err
	}
	_, written, err := n.replicas(ref.ID).PutAll(ref.Key, content)
	if err != nil {
		return err
	}
	if len(written) > 1 {
		n.net.log.Debug("memnet: store replicated",
			slog.String("network", n.net.protocol.Name()),
			slog.String("content_id", ref.ID.String()),
			slog.Int("copies", len(written)))
	}
	return nil
}

// replicas is the node's database followed by the databases of the Net.Replicas() peers
// closest to id.
func (n *Node) replicas(id primitives.ContentID) storage.ReplicatingStore {
	rs := storage.ReplicatingStore{Backends: []storage.NamedStore{{Name: n.id.String(), Store: n.own}}}
	k := n.net.Replicas()
	for _, p := range n.net.peers(n, id) {
		if len(rs.Backends) > k {
			break
		}
		rs.Backends = append(rs.Backends, storage.NamedStore{Name: p.id.String(), Store: p.own})
	}
	return rs
}

func (n *Node) Offer(ctx context.Context, enr primitives.ENR, ref overlay.ContentRef, content []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := n.net.lookup(enr)
	if err != nil {
		return false, err
	}
	return p.accept(ref, content)
}

// accept stores offered content that falls within the node's radius and is not yet held.
func (n *Node) accept(ref overlay.ContentRef, content []byte) (bool, error) {
	checked, err := overlay.DecodeRef(n.net.protocol, ref.Key)
	if err != nil || checked.ID != ref.ID {
		return false, overlay.ErrInvalidRequest
	}
	if err := overlay.CheckContent(n.net.protocol, ref, content); err != nil {
		return false, fmt.Errorf("%w: %v", overlay.ErrInvalidRequest, err)
	}
	if !contentid.XOR(primitives.ContentID(n.id), ref.ID).Within(n.radius) || n.own.Has(ref.ID) {
		return false, nil
	}
	if _, err := n.own.Put(ref.Key, content); err != nil {
		if errors.Is(err, storage.ErrImmutable) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (n *Node) Gossip(ctx context.Context, ref overlay.ContentRef, content []byte) (int, error) {
	if err := overlay.CheckContent(n.net.protocol, ref, content); err != nil {
		return 0, fmt.Errorf("%w: %v", overlay.ErrInvalidRequest, err)
	}
	accepted := 0
	for _, p := range n.net.peers(n, ref.ID) {
		if err := ctx.Err(); err != nil {
			return accepted, err
		}
		ok, err := p.accept(ref, content)
		if err != nil {
			return accepted, err
		}
		if ok {
			accepted++
		}
	}
	return accepted, nil
}

func sortByDistance(nodes []*Node, target primitives.ContentID) {
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		return contentid.XOR(primitives.ContentID(a.id), target).Cmp(contentid.XOR(primitives.ContentID(b.id), target))
	})
}
