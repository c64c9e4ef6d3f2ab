// Package model defines stable boundary types for the JSON-RPC layer.
//
// Wire identity (content-key bytes and content ids) is unaffected by any projection.
// These structs are the only types intended for direct JSON serialization by consumers;
// field names are fixed.
package model
