package memnet

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"ethportal.io/api/cidutil"
	"ethportal.io/api/overlay"
	"ethportal.io/api/overlay/backends"
	"ethportal.io/api/primitives"
)

func init() {
	backends.MustRegister(backends.Backend{
		Name:        "memory",
		Description: "in-process overlay of simulated peers (no network I/O)",
		Usage:       backends.UsageCLI | backends.UsageDaemon,
		Options: []backends.Option{
			{Name: "peers", Default: "16", Usage: "number of simulated peers per network (for --backend=memory)"},
			{Name: "radius", Default: primitives.MaxU256.String(), Usage: "data radius of every simulated node (for --backend=memory)"},
			{Name: "seed", Default: "memnet", Usage: "seed for simulated node keys (for --backend=memory)"},
			{Name: "replicas", Default: "0", Usage: "closest peers that also receive Store writes (for --backend=memory)"},
		},
		Open: func(ctx context.Context, p backends.OpenParams) (map[primitives.ProtocolID]overlay.Network, func() error, error) {
			peers, err := strconv.Atoi(p.Options["peers"])
			if err != nil || peers < 0 {
				return nil, nil, fmt.Errorf("memnet: invalid peers %q", p.Options["peers"])
			}
			replicas, err := strconv.Atoi(p.Options["replicas"])
			if err != nil || replicas < 0 {
				return nil, nil, fmt.Errorf("memnet: invalid replicas %q", p.Options["replicas"])
			}
			radius, err := primitives.ParseU256(p.Options["radius"])
			if err != nil {
				return nil, nil, fmt.Errorf("memnet: invalid radius: %w", err)
			}
			out := make(map[primitives.ProtocolID]overlay.Network, len(p.Networks))
			for _, proto := range p.Networks {
				n, local, err := Build(proto, peers, radius, p.Options["seed"], p.Logger)
				if err != nil {
					return nil, nil, err
				}
				n.SetReplicas(replicas)
				out[proto] = local
			}
			return out, nil, nil
		},
	})
}

// Build creates a Net with a local node plus peers simulated nodes, all using radius.
// Node keys are derived from seed, so equal arguments yield equal networks.
func Build(protocol primitives.ProtocolID, peers int, radius primitives.U256, seed string, log *slog.Logger) (*Net, *Node, error) {
	n := New(protocol, log)
	var local *Node
	for i := 0; i <= peers; i++ {
		node, err := n.AddNode(SyntheticKey(seed, protocol, i), radius)
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			local = node
		}
	}
	return n, local, nil
}

// SyntheticKey returns a deterministic 64-byte stand-in for an uncompressed public key.
func SyntheticKey(seed string, protocol primitives.ProtocolID, i int) []byte {
	base := fmt.Sprintf("%s/%s/%d", seed, protocol.Name(), i)
	x := cidutil.SHA256([]byte(base + "/x"))
	y := cidutil.SHA256([]byte(base + "/y"))
	return append(x[:], y[:]...)
}
