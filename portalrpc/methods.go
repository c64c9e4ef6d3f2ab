package portalrpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ethportal.io/api/model"
	"ethportal.io/api/overlay"
	"ethportal.io/api/primitives"
)

// Method is a method name without its "portal_<network>" prefix.
type Method string

const (
	RoutingTableInfo     Method = "RoutingTableInfo"
	Radius               Method = "Radius"
	Ping                 Method = "Ping"
	FindNodes            Method = "FindNodes"
	FindContent          Method = "FindContent"
	RecursiveFindContent Method = "RecursiveFindContent"
	LocalContent         Method = "LocalContent"
	Store                Method = "Store"
	Offer                Method = "Offer"
	Gossip               Method = "Gossip"
)

// Parameter names, shared by the positional and keyed forms.
const (
	ParamENR        = "enr"
	ParamDistances  = "distances"
	ParamContentKey = "contentKey"
	ParamContent    = "content"
)

// DiscoverMethod returns the method schemas of every network.
const DiscoverMethod = "rpc_discover"

const prefix = "portal_"

// methodSpec is one row of the method table: its ordered parameters, an example result value
// used for schema generation, and the collaborator call.
type methodSpec struct {
	name   Method
	params []string
	result any
	call   func(ctx context.Context, n overlay.Network, p Params) (any, error)
}

var methodTable = []methodSpec{
	{
		name:   RoutingTableInfo,
		result: model.RoutingTableInfo{},
		call: func(ctx context.Context, n overlay.Network, _ Params) (any, error) {
			rt, err := n.RoutingTable(ctx)
			if err != nil {
				return nil, err
			}
			out := model.RoutingTableInfo{LocalNodeID: rt.LocalNodeID, Buckets: []model.BucketInfo{}}
			for _, b := range rt.Buckets {
				out.Buckets = append(out.Buckets, model.BucketInfo{Distance: b.Distance, Nodes: b.Nodes})
			}
			return out, nil
		},
	},
	{
		name:   Radius,
		result: primitives.U256{},
		call: func(ctx context.Context, n overlay.Network, _ Params) (any, error) {
			return n.Radius(ctx)
		},
	},
	{
		name:   Ping,
		params: []string{ParamENR},
		result: model.PongInfo{},
		call: func(ctx context.Context, n overlay.Network, p Params) (any, error) {
			pong, err := n.Ping(ctx, p.ENR)
			if err != nil {
				return nil, err
			}
			return model.PongInfo{ENRSeq: pong.ENRSeq, DataRadius: pong.DataRadius}, nil
		},
	},
	{
		name:   FindNodes,
		params: []string{ParamENR, ParamDistances},
		result: []primitives.ENR{},
		call: func(ctx context.Context, n overlay.Network, p Params) (any, error) {
			enrs, err := n.FindNodes(ctx, p.ENR, p.Distances)
			if err != nil {
				return nil, err
			}
			if enrs == nil {
				enrs = []primitives.ENR{}
			}
			return enrs, nil
		},
	},
	{
		name:   FindContent,
		params: []string{ParamENR, ParamContentKey},
		result: model.ContentInfo{},
		call: func(ctx context.Context, n overlay.Network, p Params) (any, error) {
			res, err := n.FindContent(ctx, p.ENR, p.Ref)
			if err != nil {
				return notFoundAsNull(err)
			}
			if res.Content != nil {
				b := primitives.Bytes(res.Content)
				return model.ContentInfo{Content: &b}, nil
			}
			if len(res.ENRs) == 0 {
				return nil, nil
			}
			return model.ContentInfo{ENRs: res.ENRs}, nil
		},
	},
	{
		name:   RecursiveFindContent,
		params: []string{ParamContentKey},
		result: primitives.Bytes{},
		call: func(ctx context.Context, n overlay.Network, p Params) (any, error) {
			b, err := n.RecursiveFindContent(ctx, p.Ref)
			if err != nil {
				return notFoundAsNull(err)
			}
			return primitives.Bytes(b), nil
		},
	},
	{
		name:   LocalContent,
		params: []string{ParamContentKey},
		result: primitives.Bytes{},
		call: func(ctx context.Context, n overlay.Network, p Params) (any, error) {
			b, err := n.LocalContent(ctx, p.Ref)
			if err != nil {
				return notFoundAsNull(err)
			}
			return primitives.Bytes(b), nil
		},
	},
	{
		name:   Store,
		params: []string{ParamContentKey, ParamContent},
		result: true,
		call: func(ctx context.Context, n overlay.Network, p Params) (any, error) {
			if err := n.Store(ctx, p.Ref, p.Content); err != nil {
				return nil, err
			}
			return true, nil
		},
	},
	{
		name:   Offer,
		params: []string{ParamENR, ParamContentKey, ParamContent},
		result: true,
		call: func(ctx context.Context, n overlay.Network, p Params) (any, error) {
			return n.Offer(ctx, p.ENR, p.Ref, p.Content)
		},
	},
	{
		name:   Gossip,
		params: []string{ParamContentKey, ParamContent},
		result: 0,
		call: func(ctx context.Context, n overlay.Network, p Params) (any, error) {
			return n.Gossip(ctx, p.Ref, p.Content)
		},
	},
}

var methodsByName = func() map[Method]*methodSpec {
	m := make(map[Method]*methodSpec, len(methodTable))
	for i := range methodTable {
		m[methodTable[i].name] = &methodTable[i]
	}
	return m
}()

// notFoundAsNull turns the collaborator's not-found into a null result; every other
// error passes through.
func notFoundAsNull(err error) (any, error) {
	if errors.Is(err, overlay.ErrContentNotFound) {
		return nil, nil
	}
	return nil, err
}

// Methods lists the methods of one network in table order.
func Methods() []Method {
	out := make([]Method, len(methodTable))
	for i, m := range methodTable {
		out[i] = m.name
	}
	return out
}

// MethodName returns the full JSON-RPC name, e.g. portal_historyFindContent.
func MethodName(p primitives.ProtocolID, m Method) string {
	return prefix + p.Name() + string(m)
}

// ParseMethodName splits a full JSON-RPC name into its network and method.
func ParseMethodName(name string) (primitives.ProtocolID, Method, error) {
	rest, ok := strings.CutPrefix(name, prefix)
	if ok {
		for _, p := range primitives.Networks() {
			m, ok := strings.CutPrefix(rest, p.Name())
			if !ok {
				continue
			}
			if _, known := methodsByName[Method(m)]; known {
				return p, Method(m), nil
			}
		}
	}
	return primitives.ProtocolID{}, "", &Error{Kind: KindMethodNotFound, Message: fmt.Sprintf("method %q not found", name)}
}
