package grpcoverlay

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"ethportal.io/api/overlay"
	"ethportal.io/api/primitives"
)

const (
	fieldNetwork    = "network"
	fieldENR        = "enr"
	fieldDistances  = "distances"
	fieldContentKey = "contentKey"
	fieldContentID  = "contentId"
	fieldContent    = "content"
	fieldENRs       = "enrs"
	fieldENRSeq     = "enrSeq"
	fieldRadius     = "dataRadius"
	fieldLocalNode  = "localNodeId"
	fieldBuckets    = "buckets"
	fieldDistance   = "distance"
	fieldNodes      = "nodes"
)

func request(p primitives.ProtocolID, fields map[string]any) (*structpb.Struct, error) {
	m := map[string]any{fieldNetwork: p.Name()}
	for k, v := range fields {
		m[k] = v
	}
	return structpb.NewStruct(m)
}

func refFields(ref overlay.ContentRef, extra map[string]any) map[string]any {
	m := map[string]any{
		fieldContentKey: primitives.EncodeHex(ref.Key),
		fieldContentID:  ref.ID.String(),
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", overlay.ErrInvalidRequest, name)
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", overlay.ErrInvalidRequest, name)
	}
	return str.StringValue, nil
}

func hexField(s *structpb.Struct, name string) ([]byte, error) {
	str, err := stringField(s, name)
	if err != nil {
		return nil, err
	}
	b, err := primitives.DecodeHex(str)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", overlay.ErrInvalidRequest, name, err)
	}
	return b, nil
}

func enrField(s *structpb.Struct) (primitives.ENR, error) {
	str, err := stringField(s, fieldENR)
	if err != nil {
		return "", err
	}
	enr, err := primitives.ParseENR(str)
	if err != nil {
		return "", fmt.Errorf("%w: %v", overlay.ErrInvalidRequest, err)
	}
	return enr, nil
}

func enrList(enrs []primitives.ENR) []any {
	out := make([]any, len(enrs))
	for i, e := range enrs {
		out[i] = e.String()
	}
	return out
}

func parseENRList(l *structpb.ListValue) ([]primitives.ENR, error) {
	out := make([]primitives.ENR, 0, len(l.GetValues()))
	for _, v := range l.GetValues() {
		enr, err := primitives.ParseENR(v.GetStringValue())
		if err != nil {
			return nil, err
		}
		out = append(out, enr)
	}
	return out, nil
}
