package portalrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ethportal.io/api/model"
	"ethportal.io/api/overlay"
	"ethportal.io/api/primitives"
)

// Handler dispatches decoded JSON-RPC calls: decode params, derive the content id, invoke the
// network's overlay collaborator, encode the result.
type Handler struct {
	networks map[primitives.ProtocolID]overlay.Network
	decoder  Decoder
	log      *slog.Logger
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

func WithMaxContentBytes(n int) Option {
	return func(h *Handler) { h.decoder.MaxContentBytes = n }
}

func NewHandler(networks map[primitives.ProtocolID]overlay.Network, opts ...Option) *Handler {
	h := &Handler{
		networks: make(map[primitives.ProtocolID]overlay.Network, len(networks)),
		log:      slog.New(slog.DiscardHandler),
	}
	for p, n := range networks {
		h.networks[p] = n
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Call runs one method and returns its JSON result. Errors are *model.CodedError.
func (h *Handler) Call(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, *model.CodedError) {
	start := time.Now()
	result, err := h.call(ctx, method, params)
	if err != nil {
		coded := ToCoded(err)
		h.log.DebugContext(ctx, "portalrpc: call failed",
			slog.String("method", method),
			slog.Int("code", int(coded.Code)),
			slog.String("error", coded.Message),
			slog.Duration("took", time.Since(start)))
		return nil, coded
	}
	h.log.DebugContext(ctx, "portalrpc: call",
		slog.String("method", method),
		slog.Duration("took", time.Since(start)))
	return result, nil
}

func (h *Handler) call(ctx context.Context, method string, raw json.RawMessage) (json.RawMessage, error) {
	if method == DiscoverMethod {
		schemas, err := MethodSchemas()
		if err != nil {
			return nil, model.NewError(model.ErrInternal, err.Error())
		}
		return EncodeResult(map[string]any{"methods": schemas})
	}

	p, m, err := ParseMethodName(method)
	if err != nil {
		return nil, err
	}
	n, ok := h.networks[p]
	if !ok {
		return nil, &Error{Kind: KindMethodNotFound, Message: fmt.Sprintf("network %s is not enabled", p)}
	}
	params, err := h.decoder.DecodeParams(p, m, raw)
	if err != nil {
		return nil, err
	}
	if params.ContentKey != nil {
		h.log.DebugContext(ctx, "portalrpc: content key",
			slog.String("method", method),
			slog.String("content_key", primitives.EncodeHex(params.Ref.Key)),
			slog.String("content_id", params.Ref.ID.String()))
	}

	result, err := methodsByName[m].call(ctx, n, params)
	if err != nil {
		return nil, err
	}
	out, err := EncodeResult(result)
	if err != nil {
		return nil, model.NewError(model.ErrInternal, err.Error())
	}
	return out, nil
}

// Serve answers one request envelope.
func (h *Handler) Serve(ctx context.Context, req model.Request) model.Response {
	if req.JSONRPC != model.Version || req.Method == "" {
		return model.NewErrorResponse(req.ID, model.NewError(model.ErrInvalidRequest, "invalid JSON-RPC 2.0 request"))
	}
	result, err := h.Call(ctx, req.Method, req.Params)
	if err != nil {
		return model.NewErrorResponse(req.ID, err)
	}
	return model.NewResult(req.ID, result)
}
