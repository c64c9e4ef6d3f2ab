package grpcoverlay

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ethportal.io/api/overlay"
	"ethportal.io/api/overlay/backends"
	"ethportal.io/api/primitives"
)

func init() {
	backends.MustRegister(backends.Backend{
		Name:        "grpc",
		Description: "gRPC overlay client (talks to a collaborator serving portal.overlay.v1.Overlay)",
		Usage:       backends.UsageCLI | backends.UsageDaemon,
		Options: []backends.Option{
			{Name: "target", Usage: "gRPC target host:port (for --backend=grpc)"},
			{Name: "dial_timeout", Default: "5s", Usage: "Dial timeout (for --backend=grpc)"},
			{Name: "timeout", Default: "0s", Usage: "Per-RPC timeout (for --backend=grpc)"},
			{Name: "max_msg_bytes", Default: "0", Usage: "Max gRPC message size in bytes (send+recv); 0 uses grpc defaults"},
		},
		Open: func(ctx context.Context, p backends.OpenParams) (map[primitives.ProtocolID]overlay.Network, func() error, error) {
			target := strings.TrimSpace(p.Options["target"])
			if target == "" {
				return nil, nil, fmt.Errorf("missing --%s", backends.FlagName("grpc", "target"))
			}
			dialTimeout, err := time.ParseDuration(p.Options["dial_timeout"])
			if err != nil {
				return nil, nil, fmt.Errorf("grpcoverlay: dial_timeout: %w", err)
			}
			timeout, err := time.ParseDuration(p.Options["timeout"])
			if err != nil {
				return nil, nil, fmt.Errorf("grpcoverlay: timeout: %w", err)
			}
			maxMsg, err := strconv.Atoi(p.Options["max_msg_bytes"])
			if err != nil {
				return nil, nil, fmt.Errorf("grpcoverlay: max_msg_bytes: %w", err)
			}

			conn, err := Dial(target, DialOptions{Timeout: dialTimeout, MaxMsgBytes: maxMsg})
			if err != nil {
				return nil, nil, err
			}
			conn.Timeout = timeout
			out := make(map[primitives.ProtocolID]overlay.Network, len(p.Networks))
			for _, proto := range p.Networks {
				out[proto] = conn.Network(proto)
			}
			p.Logger.Info("grpcoverlay: connected", "target", target, "networks", len(out))
			return out, conn.Close, nil
		},
	})
}
