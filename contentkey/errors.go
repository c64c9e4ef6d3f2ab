package contentkey

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	// KindMalformed: the bytes (or JSON value) do not form any known content key.
	KindMalformed Kind = "MalformedContentKey"
	// KindUnsupported: the named content type is not implemented by this build.
	KindUnsupported Kind = "UnsupportedVariant"
	// KindMalformedContent: a payload does not form the container its content type requires.
	KindMalformedContent Kind = "MalformedContent"
)

// Stable rule identifiers naming the violated decoding rule.
const (
	RuleEmpty        = "KEY-STR-001"
	RuleUnknownSel   = "KEY-SEL-001"
	RuleTruncated    = "KEY-LEN-001"
	RuleTrailing     = "KEY-LEN-002"
	RuleOversized    = "KEY-LEN-003"
	RuleLengthPrefix = "KEY-LEN-004"
	RuleNibble       = "KEY-VAL-001"
	RuleJSONValue    = "KEY-VAL-002"
	RuleUnknownType  = "KEY-TYPE-001"

	RuleContentTruncated = "CONTENT-LEN-001"
	RuleContentBound     = "CONTENT-LEN-002"
	RuleContentFixed     = "CONTENT-LEN-003"
	RuleContentOffset    = "CONTENT-OFF-001"
	RuleContentSelector  = "CONTENT-SEL-001"
)

// Error is the codec's structured error type.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg + ": " + cause.Error(), Cause: cause}
}

// ContentError reports a payload rejected by a content type's container checks.
func ContentError(ruleID, msg string) error {
	return newError(KindMalformedContent, ruleID, msg)
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
