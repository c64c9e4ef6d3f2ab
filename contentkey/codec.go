// Package contentkey implements the canonical binary codec shared by every sub-network's
// content keys.
//
// A content key is a one-byte selector followed by the variant's fields in a fixed order.
// Fixed-width fields carry no prefix; trie paths carry a one-byte nibble count. Decoding is
// strict: unknown selectors, truncated or oversized input and unconsumed trailing bytes are
// rejected with a *Error of KindMalformed. Each network declares its closed variant set once,
// as a Codec, and every encode/decode/JSON site dispatches through that table.
package contentkey

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"ethportal.io/api/primitives"
)

// Selector is the one-byte discriminant that prefixes every encoded content key.
type Selector byte

// Key is a typed content key. Implementations are immutable value types.
type Key interface {
	Selector() Selector
	// Encode returns the selector followed by the variant's fields in wire order.
	Encode() []byte
}

// Variant describes one member of a network's closed content-key set.
type Variant struct {
	Selector Selector
	// Name is the JSON-RPC contentType.
	Name string
	// Fields are the JSON field names of the object form, in wire order.
	Fields []string
	// MaxLen bounds the encoded payload after the selector.
	MaxLen int

	Decode    func(r *Reader) Key
	Unmarshal func(raw []byte) (Key, error)
}

// Unmarshal decodes the JSON object form of a variant into its value type.
// It is the usual Variant.Unmarshal.
func Unmarshal[T Key](raw []byte) (Key, error) {
	var k T
	if err := json.Unmarshal(raw, &k); err != nil {
		return nil, err
	}
	return k, nil
}

// Codec is the static lookup table of one network's variants, keyed by selector and by name.
type Codec struct {
	network    string
	bySelector [256]*Variant
	byName     map[string]*Variant
	order      []*Variant
	maxLen     int
}

// NewCodec builds a network's variant table. Duplicate selectors or names are programming
// errors and panic.
func NewCodec(network string, variants ...Variant) *Codec {
	c := &Codec{network: network, byName: make(map[string]*Variant, len(variants))}
	for i := range variants {
		v := variants[i]
		if v.Name == "" || len(v.Fields) == 0 || v.Decode == nil || v.Unmarshal == nil {
			panic(fmt.Sprintf("contentkey: %s: incomplete variant 0x%02x", network, byte(v.Selector)))
		}
		if c.bySelector[v.Selector] != nil {
			panic(fmt.Sprintf("contentkey: %s: duplicate selector 0x%02x", network, byte(v.Selector)))
		}
		if _, dup := c.byName[v.Name]; dup {
			panic(fmt.Sprintf("contentkey: %s: duplicate content type %q", network, v.Name))
		}
		c.bySelector[v.Selector] = &v
		c.byName[v.Name] = &v
		c.order = append(c.order, &v)
		c.maxLen = max(c.maxLen, v.MaxLen)
	}
	return c
}

func (c *Codec) Network() string { return c.network }

// MaxKeyLen is the longest encoded key (selector included) any variant accepts.
func (c *Codec) MaxKeyLen() int { return 1 + c.maxLen }

// Variants returns the variant descriptors in declaration order.
func (c *Codec) Variants() []Variant {
	out := make([]Variant, 0, len(c.order))
	for _, v := range c.order {
		out = append(out, *v)
	}
	return out
}

// Variant looks up a variant by selector.
func (c *Codec) Variant(sel Selector) (Variant, bool) {
	v := c.bySelector[sel]
	if v == nil {
		return Variant{}, false
	}
	return *v, true
}

// Lookup resolves a JSON contentType. Unknown names are KindUnsupported.
func (c *Codec) Lookup(contentType string) (Variant, error) {
	v, ok := c.byName[contentType]
	if !ok {
		return Variant{}, newError(KindUnsupported, RuleUnknownType,
			fmt.Sprintf("content type %q is not supported on the %s network", contentType, c.network))
	}
	return *v, nil
}

// ContentType names k's variant, or "" if k's selector is not in this table.
func (c *Codec) ContentType(k Key) string {
	if v := c.bySelector[k.Selector()]; v != nil {
		return v.Name
	}
	return ""
}

// Encode returns the canonical bytes of k. Keys whose fields are out of range (see
// Validate on the variant's key type) are refused rather than encoded.
func (c *Codec) Encode(k Key) ([]byte, error) {
	if c.bySelector[k.Selector()] == nil {
		return nil, newError(KindUnsupported, RuleUnknownSel,
			fmt.Sprintf("selector 0x%02x is not a %s content key", byte(k.Selector()), c.network))
	}
	if v, ok := k.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			rule := RuleNibble
			if errors.Is(err, primitives.ErrLength) {
				rule = RuleLengthPrefix
			}
			return nil, wrapError(KindMalformed, rule, "invalid path", err)
		}
	}
	return k.Encode(), nil
}

// Decode parses canonical content-key bytes.
//
// Input longer than the variant's bound is rejected before any field is read.
func (c *Codec) Decode(b []byte) (Key, error) {
	if len(b) == 0 {
		return nil, newError(KindMalformed, RuleEmpty, "empty content key")
	}
	v := c.bySelector[b[0]]
	if v == nil {
		return nil, newError(KindMalformed, RuleUnknownSel,
			fmt.Sprintf("unknown %s content key selector 0x%02x", c.network, b[0]))
	}
	payload := b[1:]
	if len(payload) > v.MaxLen {
		return nil, newError(KindMalformed, RuleOversized,
			fmt.Sprintf("%s key payload has %d bytes, max %d", v.Name, len(payload), v.MaxLen))
	}
	r := NewReader(payload)
	k := v.Decode(r)
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return k, nil
}

// DecodeValue decodes the JSON-RPC form of a key: the variant's contentType plus either a hex
// string carrying the encoded fields (selector excluded) or an object naming every field.
func (c *Codec) DecodeValue(contentType string, value json.RawMessage) (Key, error) {
	v, err := c.Lookup(contentType)
	if err != nil {
		return nil, err
	}
	raw := bytes.TrimSpace(value)
	if len(raw) == 0 {
		return nil, newError(KindMalformed, RuleJSONValue, "missing content key value")
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, wrapError(KindMalformed, RuleJSONValue, "invalid "+v.Name+" value", err)
		}
		if len(s) > primitives.HexLen(v.MaxLen) {
			return nil, newError(KindMalformed, RuleOversized,
				fmt.Sprintf("%s value exceeds %d bytes", v.Name, v.MaxLen))
		}
		payload, err := primitives.DecodeHex(s)
		if err != nil {
			return nil, wrapError(KindMalformed, RuleJSONValue, "invalid "+v.Name+" value", err)
		}
		return c.Decode(append([]byte{byte(v.Selector)}, payload...))
	case '{':
		k, err := decodeObject(&v, raw)
		if err != nil {
			return nil, err
		}
		// JSON input is held to the same wire rules as bytes from a peer.
		return c.Decode(k.Encode())
	default:
		return nil, newError(KindMalformed, RuleJSONValue,
			v.Name+" value must be a hex string or an object")
	}
}

func decodeObject(v *Variant, raw []byte) (Key, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, wrapError(KindMalformed, RuleJSONValue, "invalid "+v.Name+" value", err)
	}
	for _, name := range v.Fields {
		f, ok := fields[name]
		if !ok || string(bytes.TrimSpace(f)) == "null" {
			return nil, newError(KindMalformed, RuleJSONValue,
				fmt.Sprintf("%s value is missing field %q", v.Name, name))
		}
	}
	for name := range fields {
		if !slices.Contains(v.Fields, name) {
			return nil, newError(KindMalformed, RuleJSONValue,
				fmt.Sprintf("%s value has unknown field %q", v.Name, name))
		}
	}
	k, err := v.Unmarshal(raw)
	if err != nil {
		return nil, wrapError(KindMalformed, RuleJSONValue, "invalid "+v.Name+" value", err)
	}
	return k, nil
}

// EncodeValue renders k in its JSON-RPC form. Single-field variants render as a hex string,
// the others as an object keyed by Variant.Fields.
func (c *Codec) EncodeValue(k Key) (string, json.RawMessage, error) {
	v := c.bySelector[k.Selector()]
	if v == nil {
		return "", nil, newError(KindUnsupported, RuleUnknownSel,
			fmt.Sprintf("selector 0x%02x is not a %s content key", byte(k.Selector()), c.network))
	}
	var (
		b   []byte
		err error
	)
	if len(v.Fields) == 1 {
		b, err = json.Marshal(primitives.EncodeHex(k.Encode()[1:]))
	} else {
		b, err = json.Marshal(k)
	}
	if err != nil {
		return "", nil, err
	}
	return v.Name, b, nil
}
