// Package memnet is an in-process overlay: a set of nodes that share one address space and answer
// each other's requests by direct calls.
//
// Lookups follow the overlay's rules (closest peers first by XOR distance, content accepted only
// within a node's radius), so it stands in for the real collaborator in tests and local runs.
package memnet

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"

	"ethportal.io/api/overlay"
	"ethportal.io/api/primitives"
	"ethportal.io/api/storage"
)

// MaxENRs bounds the records returned by one FindContent or FindNodes reply.
const MaxENRs = 16

// Net is the shared address space of one sub-network.
type Net struct {
	protocol primitives.ProtocolID
	log      *slog.Logger

	mu       sync.RWMutex
	nodes    map[primitives.ENR]*Node
	order    []*Node
	replicas int
}

func New(protocol primitives.ProtocolID, log *slog.Logger) *Net {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Net{protocol: protocol, log: log, nodes: make(map[primitives.ENR]*Node)}
}

// AddNode joins a node identified by an uncompressed secp256k1 public key. Every node knows
// every other node of its Net.
func (n *Net) AddNode(pub []byte, radius primitives.U256) (*Node, error) {
	id, err := primitives.NodeIDFromPublicKey(pub)
	if err != nil {
		return nil, err
	}
	enr, err := primitives.ParseENR("enr:" + base64.RawURLEncoding.EncodeToString(append([]byte{0x01}, id[:]...)))
	if err != nil {
		return nil, err
	}
	node := &Node{net: n, id: id, enr: enr, seq: 1, radius: radius, own: storage.NewMemory(), cache: storage.NewMemory()}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, dup := n.nodes[enr]; dup {
		return nil, fmt.Errorf("memnet: node %s already joined", id)
	}
	n.nodes[enr] = node
	n.order = append(n.order, node)
	return node, nil
}

// SetReplicas makes Store also write to the k peers closest to the content id.
func (n *Net) SetReplicas(k int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replicas = max(k, 0)
}

func (n *Net) Replicas() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.replicas
}

func (n *Net) lookup(enr primitives.ENR) (*Node, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	node, ok := n.nodes[enr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", overlay.ErrUnknownPeer, enr)
	}
	return node, nil
}

// peers returns every node except self, sorted by distance to target.
func (n *Net) peers(self *Node, target primitives.ContentID) []*Node {
	n.mu.RLock()
	out := make([]*Node, 0, len(n.order))
	for _, p := range n.order {
		if p != self {
			out = append(out, p)
		}
	}
	n.mu.RUnlock()
	sortByDistance(out, target)
	return out
}
