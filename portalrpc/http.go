package portalrpc

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ethportal.io/api/model"
)

// envelopeOverhead is the request body allowance on top of twice the content bound.
const envelopeOverhead = 64 << 10

// NewHTTPHandler serves JSON-RPC 2.0 over HTTP POST at "/" (single and batch requests)
// plus GET /healthz and GET /schema.
func NewHTTPHandler(h *Handler) http.Handler {
	m := chi.NewMux()

	m.Post("/", func(w http.ResponseWriter, r *http.Request) {
		limit := int64(2*h.decoder.maxContent() + envelopeOverhead)
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			writeJSON(w, h.log, http.StatusRequestEntityTooLarge,
				model.NewErrorResponse(nil, model.NewError(model.ErrInvalidRequest, err.Error())))
			return
		}
		resp, ok := h.serveBody(r, body)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, h.log, http.StatusOK, resp)
	})

	m.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok\n")
	})

	m.Get("/schema", func(w http.ResponseWriter, r *http.Request) {
		schemas, err := MethodSchemas()
		if err != nil {
			h.log.ErrorContext(r.Context(), "portalrpc: failed to build method schemas", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, h.log, http.StatusOK, map[string]any{"methods": schemas})
	})

	return m
}

// serveBody answers a single request or a batch. ok is false when nothing must be written
// back (only notifications).
func (h *Handler) serveBody(r *http.Request, body []byte) (any, bool) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(body, &batch); err != nil {
			return model.NewErrorResponse(nil, model.NewError(model.ErrParse, err.Error())), true
		}
		if len(batch) == 0 {
			return model.NewErrorResponse(nil, model.NewError(model.ErrInvalidRequest, "empty batch")), true
		}
		out := make([]model.Response, 0, len(batch))
		for _, raw := range batch {
			if resp, ok := h.serveOne(r, raw); ok {
				out = append(out, resp)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	}
	resp, ok := h.serveOne(r, body)
	return resp, ok
}

func (h *Handler) serveOne(r *http.Request, raw json.RawMessage) (model.Response, bool) {
	var req model.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		if _, isSyntax := err.(*json.SyntaxError); isSyntax {
			return model.NewErrorResponse(nil, model.NewError(model.ErrParse, err.Error())), true
		}
		return model.NewErrorResponse(nil, model.NewError(model.ErrInvalidRequest, err.Error())), true
	}
	resp := h.Serve(r.Context(), req)
	if req.IsNotification() && req.JSONRPC == model.Version {
		return model.Response{}, false
	}
	return resp, true
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("portalrpc: failed to encode response", slog.String("error", err.Error()))
	}
}
