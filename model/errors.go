package model

import "fmt"

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

const (
	ErrParse          ErrorCode = -32700
	ErrInvalidRequest ErrorCode = -32600
	// ErrMethodNotFound also reports content types this build does not implement.
	ErrMethodNotFound ErrorCode = -32601
	ErrInvalidParams  ErrorCode = -32602
	ErrInternal       ErrorCode = -32603
	// ErrOverlay carries a failure of the overlay collaborator, message unchanged.
	ErrOverlay ErrorCode = -32000
)

// CodedError is a stable error with a machine-readable code and a human message.
type CodedError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// ErrorData is attached to errors raised while decoding a content key or payload.
type ErrorData struct {
	Kind   string `json:"kind"`
	RuleID string `json:"ruleId,omitempty"`
}
