package model

import "encoding/json"

const Version = "2.0"

// Request is a JSON-RPC 2.0 request. A missing ID marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r Request) IsNotification() bool { return len(r.ID) == 0 }

// Response is a JSON-RPC 2.0 response. Exactly one of Result and Error is set; a nil
// result is carried as the JSON literal null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *CodedError     `json:"error,omitempty"`
}

var null = json.RawMessage("null")

func NewResult(id json.RawMessage, result json.RawMessage) Response {
	if len(result) == 0 {
		result = null
	}
	return Response{JSONRPC: Version, ID: orNull(id), Result: result}
}

func NewErrorResponse(id json.RawMessage, err *CodedError) Response {
	return Response{JSONRPC: Version, ID: orNull(id), Error: err}
}

func orNull(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return null
	}
	return id
}
