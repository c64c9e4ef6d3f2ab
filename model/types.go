package model

import (
	"encoding/json"

	"github.com/swaggest/jsonschema-go"

	"ethportal.io/api/primitives"
)

// ContentKey is the object form of a content key. Value is either the hex of the variant's
// fields (selector excluded) or an object naming every field.
type ContentKey struct {
	ContentType string          `json:"contentType"`
	Value       json.RawMessage `json:"value"`
}

func (ContentKey) JSONSchema() (jsonschema.Schema, error) {
	var value jsonschema.Schema
	value.WithDescription("hex of the variant's fields without selector, or an object naming every field")

	var contentType jsonschema.Schema
	contentType.WithType(jsonschema.String.Type())

	var object jsonschema.Schema
	object.WithType(jsonschema.Object.Type())
	object.WithProperties(map[string]jsonschema.SchemaOrBool{
		"contentType": contentType.ToSchemaOrBool(),
		"value":       value.ToSchemaOrBool(),
	})
	object.WithRequired("contentType", "value")

	flat, _ := primitives.Bytes{}.JSONSchema()
	flat.WithDescription("flattened hex of the full encoded content key")

	var s jsonschema.Schema
	s.WithOneOf(object.ToSchemaOrBool(), flat.ToSchemaOrBool())
	return s, nil
}

// ContentInfo is the result of a FindContent call: the content itself or closer peers.
type ContentInfo struct {
	Content *primitives.Bytes `json:"content,omitempty"`
	ENRs    []primitives.ENR  `json:"enrs,omitempty"`
}

type PongInfo struct {
	ENRSeq     uint64          `json:"enrSeq"`
	DataRadius primitives.U256 `json:"dataRadius"`
}

type BucketInfo struct {
	Distance int                 `json:"distance"`
	Nodes    []primitives.NodeID `json:"nodes"`
}

type RoutingTableInfo struct {
	LocalNodeID primitives.NodeID `json:"localNodeId"`
	Buckets     []BucketInfo      `json:"buckets"`
}

// ParamSchema describes one positional/keyed method parameter.
type ParamSchema struct {
	Name     string            `json:"name"`
	Required bool              `json:"required"`
	Schema   jsonschema.Schema `json:"schema"`
}

// MethodSchema is one entry of the method discovery document.
type MethodSchema struct {
	Name   string            `json:"name"`
	Params []ParamSchema     `json:"params"`
	Result jsonschema.Schema `json:"result"`
}
