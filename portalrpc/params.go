package portalrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"ethportal.io/api/contentkey"
	"ethportal.io/api/model"
	"ethportal.io/api/overlay"
	"ethportal.io/api/primitives"
)

// DefaultMaxContentBytes bounds the decoded "content" parameter.
const DefaultMaxContentBytes = 16 << 20

// maxDistance is the largest log2 distance in a 256-bit key space.
const maxDistance = 256

// Params holds the decoded parameters of one call. Only the fields named by the method's
// parameter list are set.
type Params struct {
	ENR        primitives.ENR
	Distances  []uint16
	ContentKey contentkey.Key
	// Ref is the encoded ContentKey together with its content id.
	Ref     overlay.ContentRef
	Content []byte
}

// Decoder turns raw JSON-RPC params into Params for one network. It holds no state besides
// its limits and may be shared.
type Decoder struct {
	// MaxContentBytes applies when non-zero; otherwise DefaultMaxContentBytes.
	MaxContentBytes int
}

func (d Decoder) maxContent() int {
	if d.MaxContentBytes > 0 {
		return d.MaxContentBytes
	}
	return DefaultMaxContentBytes
}

// DecodeParams validates raw against the method's parameter list. Params may be positional
// (array) or keyed (object); every listed parameter is required.
func (d Decoder) DecodeParams(p primitives.ProtocolID, m Method, raw json.RawMessage) (Params, error) {
	def, ok := methodsByName[m]
	if !ok {
		return Params{}, &Error{Kind: KindMethodNotFound, Message: fmt.Sprintf("method %q not found", m)}
	}
	values, err := splitParams(def.params, raw)
	if err != nil {
		return Params{}, err
	}
	codec, err := overlay.CodecFor(p)
	if err != nil {
		return Params{}, &Error{Kind: KindMethodNotFound, Message: err.Error(), Cause: err}
	}

	var out Params
	for i, name := range def.params {
		v := values[i]
		if isAbsent(v) {
			return Params{}, invalidParams(name, "missing required parameter")
		}
		switch name {
		case ParamENR:
			out.ENR, err = decodeENR(v)
		case ParamDistances:
			out.Distances, err = decodeDistances(v)
		case ParamContentKey:
			out.ContentKey, err = decodeContentKey(codec, v)
			if err == nil {
				out.Ref = overlay.NewContentRef(out.ContentKey)
			}
		case ParamContent:
			out.Content, err = decodeHexParam(name, v, d.maxContent())
		}
		if err != nil {
			return Params{}, err
		}
	}
	if slices.Contains(def.params, ParamContent) {
		if err := overlay.CheckContent(p, out.Ref, out.Content); err != nil {
			return Params{}, wrapInvalid(ParamContent, err)
		}
	}
	return out, nil
}

// splitParams returns one raw value per declared name, nil where absent.
func splitParams(names []string, raw json.RawMessage) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(names))
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}
	switch raw[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, wrapInvalid("", err)
		}
		if len(list) > len(names) {
			return nil, invalidParams("", fmt.Sprintf("expected at most %d params, got %d", len(names), len(list)))
		}
		copy(out, list)
	case '{':
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return nil, wrapInvalid("", err)
		}
		for k := range keyed {
			if !slices.Contains(names, k) {
				return nil, invalidParams(k, "unknown parameter")
			}
		}
		for i, name := range names {
			out[i] = keyed[name]
		}
	default:
		return nil, invalidParams("", "params must be an array or an object")
	}
	return out, nil
}

func isAbsent(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

func decodeString(param string, v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", invalidParams(param, "expected a string")
	}
	return s, nil
}

// decodeHexParam decodes a hex string, bounding its text length before decoding.
func decodeHexParam(param string, v json.RawMessage, max int) ([]byte, error) {
	s, err := decodeString(param, v)
	if err != nil {
		return nil, err
	}
	if len(s) > primitives.HexLen(max) {
		return nil, invalidParams(param, fmt.Sprintf("exceeds %d bytes", max))
	}
	b, err := primitives.DecodeHex(s)
	if err != nil {
		return nil, wrapInvalid(param, err)
	}
	return b, nil
}

func decodeENR(v json.RawMessage) (primitives.ENR, error) {
	s, err := decodeString(ParamENR, v)
	if err != nil {
		return "", err
	}
	enr, err := primitives.ParseENR(s)
	if err != nil {
		return "", wrapInvalid(ParamENR, err)
	}
	return enr, nil
}

func decodeDistances(v json.RawMessage) ([]uint16, error) {
	var ds []int
	if err := json.Unmarshal(v, &ds); err != nil {
		return nil, invalidParams(ParamDistances, "expected an array of integers")
	}
	if len(ds) > maxDistance+1 {
		return nil, invalidParams(ParamDistances, fmt.Sprintf("at most %d distances", maxDistance+1))
	}
	out := make([]uint16, 0, len(ds))
	for _, d := range ds {
		if d < 0 || d > maxDistance {
			return nil, invalidParams(ParamDistances, fmt.Sprintf("distance %d out of range 0..%d", d, maxDistance))
		}
		if slices.Contains(out, uint16(d)) {
			return nil, invalidParams(ParamDistances, fmt.Sprintf("duplicate distance %d", d))
		}
		out = append(out, uint16(d))
	}
	return out, nil
}

// decodeContentKey accepts the object form {"contentType","value"} or the flattened hex of
// the full encoded key.
func decodeContentKey(codec *contentkey.Codec, v json.RawMessage) (contentkey.Key, error) {
	v = bytes.TrimSpace(v)
	switch v[0] {
	case '"':
		b, err := decodeHexParam(ParamContentKey, v, codec.MaxKeyLen())
		if err != nil {
			return nil, err
		}
		k, err := codec.Decode(b)
		if err != nil {
			return nil, keyError(ParamContentKey, err)
		}
		return k, nil
	case '{':
		ck, err := decodeKeyObject(v)
		if err != nil {
			return nil, err
		}
		k, err := codec.DecodeValue(ck.ContentType, ck.Value)
		if err != nil {
			return nil, keyError(ParamContentKey, err)
		}
		return k, nil
	default:
		return nil, invalidParams(ParamContentKey, "expected an object or a hex string")
	}
}

// decodeKeyObject reads {"contentType","value"}. Member names must match exactly; the
// case-insensitive matching of struct decoding does not apply.
func decodeKeyObject(v json.RawMessage) (model.ContentKey, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(v, &fields); err != nil {
		return model.ContentKey{}, wrapInvalid(ParamContentKey, err)
	}
	for name := range fields {
		if name != "contentType" && name != "value" {
			return model.ContentKey{}, invalidParams(ParamContentKey, fmt.Sprintf("unknown field %q", name))
		}
	}
	var ck model.ContentKey
	if raw, ok := fields["contentType"]; ok && !isAbsent(raw) {
		if err := json.Unmarshal(raw, &ck.ContentType); err != nil {
			return model.ContentKey{}, invalidParams(ParamContentKey, "contentType must be a string")
		}
	}
	if ck.ContentType == "" {
		return model.ContentKey{}, invalidParams(ParamContentKey, "missing contentType")
	}
	ck.Value = fields["value"]
	if isAbsent(ck.Value) {
		return model.ContentKey{}, invalidParams(ParamContentKey, "missing value")
	}
	return ck, nil
}
