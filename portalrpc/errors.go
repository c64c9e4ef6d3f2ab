package portalrpc

import (
	"errors"

	"ethportal.io/api/contentkey"
	"ethportal.io/api/model"
)

// Kind is a stable category for bridge errors.
type Kind string

const (
	KindInvalidParams  Kind = "InvalidParams"
	KindUnsupported    Kind = "UnsupportedVariant"
	KindMethodNotFound Kind = "MethodNotFound"
)

// Error is the bridge's structured error type. Param names the offending parameter when
// one is known.
type Error struct {
	Kind    Kind
	Param   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Param == "" {
		return e.Message
	}
	return e.Param + ": " + e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func invalidParams(param, msg string) error {
	return &Error{Kind: KindInvalidParams, Param: param, Message: msg}
}

func wrapInvalid(param string, cause error) error {
	return &Error{Kind: KindInvalidParams, Param: param, Message: cause.Error(), Cause: cause}
}

// keyError lifts a codec failure: unsupported content types keep their own kind, every
// malformed key is an invalid parameter.
func keyError(param string, err error) error {
	if contentkey.IsKind(err, contentkey.KindUnsupported) {
		return &Error{Kind: KindUnsupported, Param: param, Message: err.Error(), Cause: err}
	}
	return wrapInvalid(param, err)
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// ToCoded maps any error produced while serving a call onto a JSON-RPC error object.
// Errors that are not the bridge's own come from the overlay collaborator and keep their
// message unchanged.
func ToCoded(err error) *model.CodedError {
	if err == nil {
		return nil
	}
	var coded *model.CodedError
	if errors.As(err, &coded) {
		return coded
	}
	var e *Error
	if errors.As(err, &e) {
		out := model.NewError(model.ErrInvalidParams, e.Error())
		switch e.Kind {
		case KindUnsupported, KindMethodNotFound:
			out.Code = model.ErrMethodNotFound
		}
		data := model.ErrorData{Kind: string(e.Kind)}
		var keyErr *contentkey.Error
		if errors.As(err, &keyErr) {
			data.RuleID = keyErr.RuleID
			if e.Kind == KindInvalidParams {
				data.Kind = string(keyErr.Kind)
			}
		}
		out.Data = data
		return out
	}
	return model.NewError(model.ErrOverlay, err.Error())
}
