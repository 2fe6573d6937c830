// Package transport implements the two HTTP protocol variants and the
// health endpoint.
//
// The unified endpoint (streamable.go) answers every request in the same
// HTTP exchange that carried it. The dual-channel variant (sse.go) accepts
// requests on a side channel and delivers results on a long-lived event
// stream. The two contracts must not be conflated: only the dual-channel
// transport ever delivers a result out of band.
package transport

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/agentboard/agentboard/internal/server"
	"github.com/agentboard/agentboard/internal/session"
)

// SessionHeader is the designated header carrying the opaque session token.
const SessionHeader = "Mcp-Session-Id"

// maxBodyBytes caps a single protocol message.
const maxBodyBytes = 4 << 20

// StreamableHTTP is the unified-endpoint transport: a single URL, one
// request/response exchange per call, session negotiated via header.
type StreamableHTTP struct {
	factory  *server.Factory
	registry *session.Registry
	log      *slog.Logger
}

// NewStreamableHTTP creates the unified-endpoint transport.
func NewStreamableHTTP(factory *server.Factory, registry *session.Registry, log *slog.Logger) *StreamableHTTP {
	return &StreamableHTTP{factory: factory, registry: registry, log: log}
}

// Routes mounts the transport's endpoints on r.
func (t *StreamableHTTP) Routes(r chi.Router) {
	r.Post("/mcp", t.handlePost)
	r.Delete("/mcp", t.handleDelete)
}

func (t *StreamableHTTP) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeRPCError(w, t.log, http.StatusBadRequest, -32700, "failed to read request body")
		return
	}

	var sess *session.Session
	sid := r.Header.Get(SessionHeader)
	switch sid {
	case "":
		// First contact: mint a session with its own handler instance and
		// hand the id back so subsequent requests can present it.
		sess = t.registry.Create(uuid.NewString(), session.KindStreamable, t.factory.NewHandler(), nil)
	default:
		var ok bool
		sess, ok = t.registry.Get(sid)
		if !ok {
			// A stale id is a client bug; minting a silent replacement
			// session here would mask it.
			nf := &session.NotFoundError{ID: sid}
			writeRPCError(w, t.log, http.StatusNotFound, -32001, nf.Error())
			return
		}
	}

	resp := sess.HandleMessage(r.Context(), body)

	w.Header().Set(SessionHeader, sess.ID)
	if resp == nil {
		// Notification: nothing to send back.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	out, err := json.Marshal(resp)
	if err != nil {
		writeRPCError(w, t.log, http.StatusInternalServerError, -32603, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	n, err := w.Write(out)
	// A response that appears to succeed but never reaches the wire is its
	// own defect class; verify and log the write outcome here, at the one
	// place that performs it.
	if err != nil || n != len(out) {
		t.log.Error("response write incomplete", "session", sess.ID, "written", n, "expected", len(out), "err", err)
		return
	}
	t.log.Debug("response sent", "session", sess.ID, "bytes", n)
}

func (t *StreamableHTTP) handleDelete(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(SessionHeader)
	if sid == "" {
		writeRPCError(w, t.log, http.StatusBadRequest, -32600, "missing "+SessionHeader+" header")
		return
	}
	if _, ok := t.registry.Get(sid); !ok {
		nf := &session.NotFoundError{ID: sid}
		writeRPCError(w, t.log, http.StatusNotFound, -32001, nf.Error())
		return
	}
	t.registry.Remove(sid)
	w.WriteHeader(http.StatusNoContent)
}

// writeRPCError rejects a request at the transport boundary with a JSON-RPC
// error body. These never reach the domain layer.
func writeRPCError(w http.ResponseWriter, log *slog.Logger, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{
		"jsonrpc": "2.0",
		"id":      nil,
		"error":   map[string]any{"code": code, "message": message},
	}
	out, err := json.Marshal(body)
	if err != nil {
		log.Error("failed to encode error response", "err", err)
		return
	}
	if _, err := w.Write(out); err != nil {
		log.Error("failed to write error response", "err", err)
	}
}
