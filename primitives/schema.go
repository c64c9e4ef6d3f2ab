package primitives

import (
	"fmt"

	"github.com/swaggest/jsonschema-go"
)

func hexSchema(desc, pattern string) jsonschema.Schema {
	var s jsonschema.Schema
	s.WithType(jsonschema.String.Type())
	s.WithPattern(pattern)
	s.WithDescription(desc)
	return s
}

func fixedHexSchema(desc string, n int) jsonschema.Schema {
	return hexSchema(desc, fmt.Sprintf("^0x[0-9a-fA-F]{%d}$", 2*n))
}

func (NodeID) JSONSchema() (jsonschema.Schema, error) {
	return fixedHexSchema("32-byte node id", IDLength), nil
}

func (ContentID) JSONSchema() (jsonschema.Schema, error) {
	return fixedHexSchema("32-byte content id", IDLength), nil
}

func (Bytes32) JSONSchema() (jsonschema.Schema, error) {
	return fixedHexSchema("32-byte hash", 32), nil
}

func (Address) JSONSchema() (jsonschema.Schema, error) {
	return fixedHexSchema("20-byte address", AddressLength), nil
}

func (U256) JSONSchema() (jsonschema.Schema, error) {
	return hexSchema("unsigned 256-bit integer, big-endian", "^0x([0-9a-fA-F]{2}){1,32}$"), nil
}

func (Nibbles) JSONSchema() (jsonschema.Schema, error) {
	return hexSchema("trie path, one nibble per byte", fmt.Sprintf("^0x(0[0-9a-fA-F]){0,%d}$", MaxNibbles)), nil
}

func (Bytes) JSONSchema() (jsonschema.Schema, error) {
	return hexSchema("hex-encoded bytes", "^0x([0-9a-fA-F]{2})*$"), nil
}

func (ENR) JSONSchema() (jsonschema.Schema, error) {
	return hexSchema("node record", "^enr:[A-Za-z0-9_-]+$"), nil
}
