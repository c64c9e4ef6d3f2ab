package grpcoverlay

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"ethportal.io/api/overlay"
	"ethportal.io/api/primitives"
)

// Conn is a connection to an Overlay gRPC service. Network returns per-network views of it.
type Conn struct {
	cc    grpc.ClientConnInterface
	close func() error

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Conn, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Conn{cc: cc, close: cc.Close}, nil
}

// NewConn wraps an existing client connection. Closing the Conn does not close cc.
func NewConn(cc grpc.ClientConnInterface) *Conn {
	return &Conn{cc: cc}
}

func (c *Conn) Close() error {
	if c == nil || c.close == nil {
		return nil
	}
	return c.close()
}

// Network returns the overlay.Network for one sub-network served behind c.
func (c *Conn) Network(p primitives.ProtocolID) *Client {
	return &Client{conn: c, protocol: p}
}

// Client implements overlay.Network over the Overlay gRPC service.
type Client struct {
	conn     *Conn
	protocol primitives.ProtocolID
}

var _ overlay.Network = (*Client)(nil)

func (c *Client) Protocol() primitives.ProtocolID { return c.protocol }

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.conn.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.conn.Timeout)
}

func (c *Client) call(ctx context.Context, name string, fields map[string]any, out any) error {
	in, err := request(c.protocol, fields)
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	if err := c.conn.cc.Invoke(ctx, fullMethod(name), in, out); err != nil {
		return mapRPC(err)
	}
	return nil
}

func (c *Client) RoutingTable(ctx context.Context) (overlay.RoutingTable, error) {
	out := new(structpb.Struct)
	if err := c.call(ctx, "RoutingTable", nil, out); err != nil {
		return overlay.RoutingTable{}, err
	}
	var rt overlay.RoutingTable
	local, err := primitives.ParseNodeID(out.GetFields()[fieldLocalNode].GetStringValue())
	if err != nil {
		return overlay.RoutingTable{}, fmt.Errorf("grpcoverlay: routing table: %w", err)
	}
	rt.LocalNodeID = local
	for _, bv := range out.GetFields()[fieldBuckets].GetListValue().GetValues() {
		bf := bv.GetStructValue().GetFields()
		b := overlay.Bucket{Distance: int(bf[fieldDistance].GetNumberValue())}
		for _, nv := range bf[fieldNodes].GetListValue().GetValues() {
			id, err := primitives.ParseNodeID(nv.GetStringValue())
			if err != nil {
				return overlay.RoutingTable{}, fmt.Errorf("grpcoverlay: routing table: %w", err)
			}
			b.Nodes = append(b.Nodes, id)
		}
		rt.Buckets = append(rt.Buckets, b)
	}
	return rt, nil
}

func (c *Client) Radius(ctx context.Context) (primitives.U256, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.call(ctx, "Radius", nil, out); err != nil {
		return primitives.U256{}, err
	}
	var r primitives.U256
	if len(out.GetValue()) != len(r) {
		return r, fmt.Errorf("grpcoverlay: radius has %d bytes", len(out.GetValue()))
	}
	copy(r[:], out.GetValue())
	return r, nil
}

func (c *Client) Ping(ctx context.Context, enr primitives.ENR) (overlay.Pong, error) {
	out := new(structpb.Struct)
	if err := c.call(ctx, "Ping", map[string]any{fieldENR: enr.String()}, out); err != nil {
		return overlay.Pong{}, err
	}
	seq, err := strconv.ParseUint(out.GetFields()[fieldENRSeq].GetStringValue(), 10, 64)
	if err != nil {
		return overlay.Pong{}, fmt.Errorf("grpcoverlay: pong enrSeq: %w", err)
	}
	radius, err := primitives.ParseU256(out.GetFields()[fieldRadius].GetStringValue())
	if err != nil {
		return overlay.Pong{}, fmt.Errorf("grpcoverlay: pong dataRadius: %w", err)
	}
	return overlay.Pong{ENRSeq: seq, DataRadius: radius}, nil
}

func (c *Client) FindNodes(ctx context.Context, enr primitives.ENR, distances []uint16) ([]primitives.ENR, error) {
	ds := make([]any, len(distances))
	for i, d := range distances {
		ds[i] = float64(d)
	}
	out := new(structpb.ListValue)
	if err := c.call(ctx, "FindNodes", map[string]any{fieldENR: enr.String(), fieldDistances: ds}, out); err != nil {
		return nil, err
	}
	return parseENRList(out)
}

func (c *Client) FindContent(ctx context.Context, enr primitives.ENR, ref overlay.ContentRef) (overlay.FindContentResult, error) {
	out := new(structpb.Struct)
	if err := c.call(ctx, "FindContent", refFields(ref, map[string]any{fieldENR: enr.String()}), out); err != nil {
		return overlay.FindContentResult{}, err
	}
	if _, ok := out.GetFields()[fieldContent]; ok {
		b, err := hexField(out, fieldContent)
		if err != nil {
			return overlay.FindContentResult{}, err
		}
		return overlay.FindContentResult{Content: b}, nil
	}
	enrs, err := parseENRList(out.GetFields()[fieldENRs].GetListValue())
	if err != nil {
		return overlay.FindContentResult{}, err
	}
	return overlay.FindContentResult{ENRs: enrs}, nil
}

func (c *Client) RecursiveFindContent(ctx context.Context, ref overlay.ContentRef) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.call(ctx, "RecursiveFindContent", refFields(ref, nil), out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

func (c *Client) LocalContent(ctx context.Context, ref overlay.ContentRef) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.call(ctx, "LocalContent", refFields(ref, nil), out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

func (c *Client) Store(ctx context.Context, ref overlay.ContentRef, content []byte) error {
	fields := refFields(ref, map[string]any{fieldContent: primitives.EncodeHex(content)})
	return c.call(ctx, "Store", fields, new(emptypb.Empty))
}

func (c *Client) Offer(ctx context.Context, enr primitives.ENR, ref overlay.ContentRef, content []byte) (bool, error) {
	fields := refFields(ref, map[string]any{fieldENR: enr.String(), fieldContent: primitives.EncodeHex(content)})
	out := new(wrapperspb.BoolValue)
	if err := c.call(ctx, "Offer", fields, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *Client) Gossip(ctx context.Context, ref overlay.ContentRef, content []byte) (int, error) {
	fields := refFields(ref, map[string]any{fieldContent: primitives.EncodeHex(content)})
	out := new(wrapperspb.UInt32Value)
	if err := c.call(ctx, "Gossip", fields, out); err != nil {
		return 0, err
	}
	return int(out.GetValue()), nil
}
