package transport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/agentboard/agentboard/internal/server"
	"github.com/agentboard/agentboard/internal/session"
)

// SessionParam is the query parameter carrying the session token on the
// side channel. The header form is accepted equivalently.
const SessionParam = "sessionId"

// defaultKeepAlive is how often an inert comment is written to an idle
// stream so network intermediaries don't drop the connection.
const defaultKeepAlive = 25 * time.Second

var errSinkClosed = errors.New("stream closed")

// SSE is the dual-channel transport: a long-lived event stream per session
// plus a side channel for submitting messages. The side-channel response
// only acknowledges receipt; results are delivered as events on the stream.
type SSE struct {
	factory   *server.Factory
	registry  *session.Registry
	log       *slog.Logger
	keepAlive time.Duration
}

// NewSSE creates the dual-channel transport.
func NewSSE(factory *server.Factory, registry *session.Registry, log *slog.Logger) *SSE {
	return &SSE{factory: factory, registry: registry, log: log, keepAlive: defaultKeepAlive}
}

// Routes mounts the transport's endpoints on r.
func (t *SSE) Routes(r chi.Router) {
	r.Get("/sse", t.handleStream)
	r.Post("/messages", t.handleMessage)
}

// streamSink queues protocol results for delivery on the event stream.
// Send and Close may race with each other and with stream teardown.
type streamSink struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

func newStreamSink() *streamSink {
	return &streamSink{ch: make(chan []byte, 16), done: make(chan struct{})}
}

func (s *streamSink) Send(data []byte) error {
	select {
	case s.ch <- data:
		return nil
	case <-s.done:
		return errSinkClosed
	}
}

func (s *streamSink) Close() {
	s.once.Do(func() { close(s.done) })
}

// handleStream establishes the long-lived stream, creating the session.
// The first event tells the client where the side channel lives; every
// protocol result follows as a message event on this same stream.
func (t *SSE) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The stream must outlive any server-level write deadline for the
	// whole session.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	sink := newStreamSink()
	sess := t.registry.Create(uuid.NewString(), session.KindSSE, t.factory.NewHandler(), sink)
	defer t.registry.Remove(sess.ID)

	endpoint := fmt.Sprintf("/messages?%s=%s", SessionParam, sess.ID)
	if err := t.writeEvent(w, flusher, sess.ID, "endpoint", []byte(endpoint)); err != nil {
		return
	}

	ticker := time.NewTicker(t.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			// Client disconnect tears the session down (deferred Remove);
			// pending side-channel calls for this id now fail not-found.
			return
		case <-sink.done:
			return
		case data := <-sink.ch:
			if err := t.writeEvent(w, flusher, sess.ID, "message", data); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				t.log.Debug("keepalive write failed", "session", sess.ID, "err", err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent writes one SSE event and verifies the bytes actually went out.
func (t *SSE) writeEvent(w io.Writer, flusher http.Flusher, sid, event string, data []byte) error {
	n, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	if err != nil {
		t.log.Error("stream write failed", "session", sid, "event", event, "err", err)
		return err
	}
	flusher.Flush()
	t.log.Debug("event sent", "session", sid, "event", event, "bytes", n)
	return nil
}

// handleMessage is the side channel. It resolves the session, forwards the
// body to the session's handler, queues the result for the stream, and
// answers with a bare acknowledgment.
func (t *SSE) handleMessage(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get(SessionParam)
	if sid == "" {
		sid = r.Header.Get(SessionHeader)
	}
	if sid == "" {
		writeRPCError(w, t.log, http.StatusBadRequest, -32600, "missing session id")
		return
	}
	sess, ok := t.registry.Get(sid)
	if !ok {
		nf := &session.NotFoundError{ID: sid}
		writeRPCError(w, t.log, http.StatusNotFound, -32001, nf.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeRPCError(w, t.log, http.StatusBadRequest, -32700, "failed to read request body")
		return
	}

	resp := sess.HandleMessage(r.Context(), body)
	if resp != nil {
		out, err := json.Marshal(resp)
		if err != nil {
			writeRPCError(w, t.log, http.StatusInternalServerError, -32603, "failed to encode response")
			return
		}
		if err := sess.Sink.Send(out); err != nil {
			// Stream went away between Get and Send.
			nf := &session.NotFoundError{ID: sid}
			writeRPCError(w, t.log, http.StatusNotFound, -32001, nf.Error())
			return
		}
	}

	// The real result arrives on the stream; this response is only the
	// receipt.
	w.WriteHeader(http.StatusAccepted)
	if _, err := io.WriteString(w, "Accepted"); err != nil {
		t.log.Error("ack write failed", "session", sid, "err", err)
	}
}
