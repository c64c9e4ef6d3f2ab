// Package grpcoverlay carries the overlay collaborator boundary over gRPC.
//
// Messages are protobuf well-known types (Struct, wrappers, Empty) so this package does
// not require a protoc/codegen toolchain. Request structs always carry "network" (the
// sub-network name); key-bearing requests also carry "contentKey" and "contentId" as hex.
package grpcoverlay

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "portal.overlay.v1.Overlay"

// OverlayServer is the server API for the Overlay gRPC service.
type OverlayServer interface {
	RoutingTable(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Radius(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindNodes(context.Context, *structpb.Struct) (*structpb.ListValue, error)
	FindContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecursiveFindContent(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	LocalContent(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	Store(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Offer(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	Gossip(context.Context, *structpb.Struct) (*wrapperspb.UInt32Value, error)
}

// UnimplementedOverlayServer can be embedded to have forward compatible implementations.
type UnimplementedOverlayServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedOverlayServer) RoutingTable(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("RoutingTable")
}
func (UnimplementedOverlayServer) Radius(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("Radius")
}
func (UnimplementedOverlayServer) Ping(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("Ping")
}
func (UnimplementedOverlayServer) FindNodes(context.Context, *structpb.Struct) (*structpb.ListValue, error) {
	return nil, unimplemented("FindNodes")
}
func (UnimplementedOverlayServer) FindContent(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, unimplemented("FindContent")
}
func (UnimplementedOverlayServer) RecursiveFindContent(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("RecursiveFindContent")
}
func (UnimplementedOverlayServer) LocalContent(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented("LocalContent")
}
func (UnimplementedOverlayServer) Store(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, unimplemented("Store")
}
func (UnimplementedOverlayServer) Offer(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error) {
	return nil, unimplemented("Offer")
}
func (UnimplementedOverlayServer) Gossip(context.Context, *structpb.Struct) (*wrapperspb.UInt32Value, error) {
	return nil, unimplemented("Gossip")
}

// RegisterOverlayServer registers the Overlay service on a gRPC server.
func RegisterOverlayServer(s grpc.ServiceRegistrar, srv OverlayServer) {
	s.RegisterService(&Overlay_ServiceDesc, srv)
}

func fullMethod(name string) string { return "/" + serviceName + "/" + name }

// unary builds the MethodDesc for one request/response method.
func unary[Req, Resp proto.Message](name string, call func(OverlayServer, context.Context, Req) (Resp, error), newReq func() Req) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(OverlayServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(OverlayServer), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newStruct() *structpb.Struct { return new(structpb.Struct) }

// Overlay_ServiceDesc is the grpc.ServiceDesc for the Overlay service.
var Overlay_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*OverlayServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RoutingTable", OverlayServer.RoutingTable, newStruct),
		unary("Radius", OverlayServer.Radius, newStruct),
		unary("Ping", OverlayServer.Ping, newStruct),
		unary("FindNodes", OverlayServer.FindNodes, newStruct),
		unary("FindContent", OverlayServer.FindContent, newStruct),
		unary("RecursiveFindContent", OverlayServer.RecursiveFindContent, newStruct),
		unary("LocalContent", OverlayServer.LocalContent, newStruct),
		unary("Store", OverlayServer.Store, newStruct),
		unary("Offer", OverlayServer.Offer, newStruct),
		unary("Gossip", OverlayServer.Gossip, newStruct),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "overlay.proto",
}
