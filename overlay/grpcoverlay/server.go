package grpcoverlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"ethportal.io/api/contentkey"
	"ethportal.io/api/overlay"
	"ethportal.io/api/primitives"
)

// DefaultMaxContentBytes bounds content carried by Store, Offer and Gossip requests.
const DefaultMaxContentBytes = 16 << 20

// Server exposes overlay.Networks over the Overlay gRPC service.
type Server struct {
	UnimplementedOverlayServer
	Networks map[primitives.ProtocolID]overlay.Network

	// MaxContentBytes applies when non-zero; otherwise DefaultMaxContentBytes.
	MaxContentBytes int
	Logger          *slog.Logger
}

func (s *Server) network(in *structpb.Struct) (overlay.Network, error) {
	if s == nil || len(s.Networks) == 0 {
		return nil, status.Error(codes.Unavailable, "missing overlay networks")
	}
	name, err := stringField(in, fieldNetwork)
	if err != nil {
		return nil, mapErr(err)
	}
	p, err := primitives.ParseNetwork(name)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	n, ok := s.Networks[p]
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "network %s is not served", p)
	}
	return n, nil
}

// ref decodes the key with the network's codec and re-derives its id; a caller-supplied id
// that disagrees is rejected.
func (s *Server) ref(n overlay.Network, in *structpb.Struct) (overlay.ContentRef, error) {
	key, err := hexField(in, fieldContentKey)
	if err != nil {
		return overlay.ContentRef{}, mapErr(err)
	}
	ref, err := overlay.DecodeRef(n.Protocol(), key)
	if err != nil {
		return overlay.ContentRef{}, mapErr(err)
	}
	if _, ok := in.GetFields()[fieldContentID]; ok {
		raw, err := hexField(in, fieldContentID)
		if err != nil {
			return overlay.ContentRef{}, mapErr(err)
		}
		if primitives.EncodeHex(raw) != ref.ID.String() {
			return overlay.ContentRef{}, status.Error(codes.InvalidArgument, "content id does not match content key")
		}
	}
	return ref, nil
}

// content decodes the request payload and applies the network's container checks for ref.
func (s *Server) content(n overlay.Network, ref overlay.ContentRef, in *structpb.Struct) ([]byte, error) {
	limit := s.MaxContentBytes
	if limit <= 0 {
		limit = DefaultMaxContentBytes
	}
	str, err := stringField(in, fieldContent)
	if err != nil {
		return nil, mapErr(err)
	}
	if len(str) > primitives.HexLen(limit) {
		return nil, status.Errorf(codes.InvalidArgument, "content exceeds %d bytes", limit)
	}
	b, err := primitives.DecodeHex(str)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "content: %v", err)
	}
	if err := overlay.CheckContent(n.Protocol(), ref, b); err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func (s *Server) RoutingTable(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	n, err := s.network(in)
	if err != nil {
		return nil, err
	}
	rt, err := n.RoutingTable(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	buckets := make([]any, 0, len(rt.Buckets))
	for _, b := range rt.Buckets {
		nodes := make([]any, len(b.Nodes))
		for i, id := range b.Nodes {
			nodes[i] = id.String()
		}
		buckets = append(buckets, map[string]any{fieldDistance: float64(b.Distance), fieldNodes: nodes})
	}
	out, err := structpb.NewStruct(map[string]any{
		fieldLocalNode: rt.LocalNodeID.String(),
		fieldBuckets:   buckets,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) Radius(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	n, err := s.network(in)
	if err != nil {
		return nil, err
	}
	r, err := n.Radius(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(r[:]), nil
}

func (s *Server) Ping(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	n, err := s.network(in)
	if err != nil {
		return nil, err
	}
	enr, err := enrField(in)
	if err != nil {
		return nil, mapErr(err)
	}
	pong, err := n.Ping(ctx, enr)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := structpb.NewStruct(map[string]any{
		// Decimal string: a float64 number cannot carry every uint64.
		fieldENRSeq: strconv.FormatUint(pong.ENRSeq, 10),
		fieldRadius: pong.DataRadius.String(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) FindNodes(ctx context.Context, in *structpb.Struct) (*structpb.ListValue, error) {
	n, err := s.network(in)
	if err != nil {
		return nil, err
	}
	enr, err := enrField(in)
	if err != nil {
		return nil, mapErr(err)
	}
	var distances []uint16
	for _, v := range in.GetFields()[fieldDistances].GetListValue().GetValues() {
		d := v.GetNumberValue()
		if d < 0 || d > 256 || d != math.Trunc(d) {
			return nil, status.Errorf(codes.InvalidArgument, "invalid distance %v", d)
		}
		distances = append(distances, uint16(d))
	}
	enrs, err := n.FindNodes(ctx, enr, distances)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := structpb.NewList(enrList(enrs))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) FindContent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	n, err := s.network(in)
	if err != nil {
		return nil, err
	}
	enr, err := enrField(in)
	if err != nil {
		return nil, mapErr(err)
	}
	ref, err := s.ref(n, in)
	if err != nil {
		return nil, err
	}
	res, err := n.FindContent(ctx, enr, ref)
	if err != nil {
		return nil, mapErr(err)
	}
	m := map[string]any{}
	if res.Content != nil {
		m[fieldContent] = primitives.EncodeHex(res.Content)
	} else {
		m[fieldENRs] = enrList(res.ENRs)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) RecursiveFindContent(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	n, err := s.network(in)
	if err != nil {
		return nil, err
	}
	ref, err := s.ref(n, in)
	if err != nil {
		return nil, err
	}
	b, err := n.RecursiveFindContent(ctx, ref)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) LocalContent(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	n, err := s.network(in)
	if err != nil {
		return nil, err
	}
	ref, err := s.ref(n, in)
	if err != nil {
		return nil, err
	}
	b, err := n.LocalContent(ctx, ref)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Store(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	n, err := s.network(in)
	if err != nil {
		return nil, err
	}
	ref, err := s.ref(n, in)
	if err != nil {
		return nil, err
	}
	content, err := s.content(n, ref, in)
	if err != nil {
		return nil, err
	}
	if err := n.Store(ctx, ref, content); err != nil {
		return nil, mapErr(err)
	}
	s.logger().Debug("grpcoverlay: stored content",
		slog.String("network", n.Protocol().Name()),
		slog.String("content_id", ref.ID.String()),
		slog.Int("bytes", len(content)))
	return &emptypb.Empty{}, nil
}

func (s *Server) Offer(ctx context.Context, in *structpb.Struct) (*wrapperspb.BoolValue, error) {
	n, err := s.network(in)
	if err != nil {
		return nil, err
	}
	enr, err := enrField(in)
	if err != nil {
		return nil, mapErr(err)
	}
	ref, err := s.ref(n, in)
	if err != nil {
		return nil, err
	}
	content, err := s.content(n, ref, in)
	if err != nil {
		return nil, err
	}
	ok, err := n.Offer(ctx, enr, ref, content)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bool(ok), nil
}

func (s *Server) Gossip(ctx context.Context, in *structpb.Struct) (*wrapperspb.UInt32Value, error) {
	n, err := s.network(in)
	if err != nil {
		return nil, err
	}
	ref, err := s.ref(n, in)
	if err != nil {
		return nil, err
	}
	content, err := s.content(n, ref, in)
	if err != nil {
		return nil, err
	}
	count, err := n.Gossip(ctx, ref, content)
	if err != nil {
		return nil, mapErr(err)
	}
	if count < 0 || uint64(count) > math.MaxUint32 {
		return nil, status.Error(codes.Internal, fmt.Sprintf("gossip count %d out of range", count))
	}
	return wrapperspb.UInt32(uint32(count)), nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var keyErr *contentkey.Error
	switch {
	case errors.Is(err, overlay.ErrContentNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, overlay.ErrUnknownPeer):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, overlay.ErrInvalidRequest), errors.As(err, &keyErr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}
