// Package session owns the mapping from session identifier to the
// per-client protocol handler. Both HTTP transports create, resolve, and
// tear down sessions exclusively through the Registry; they never hold the
// map themselves.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Kind identifies which transport owns a session.
type Kind string

const (
	KindStreamable Kind = "streamable-http"
	KindSSE        Kind = "sse"
)

// NotFoundError reports a request presenting an unrecognized session id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}

// Sink delivers asynchronous protocol results back to the client. Only the
// dual-channel transport provides one; the unified transport answers in the
// HTTP exchange itself.
type Sink interface {
	// Send queues one protocol message for delivery on the stream.
	Send(data []byte) error
	// Close releases the sink. Safe to call more than once.
	Close()
}

// Session binds one client connection to one protocol handler. The handler
// is exclusive to the session: concurrent sessions never share one because
// the protocol library keeps request-id bookkeeping on the instance.
type Session struct {
	ID        string
	Kind      Kind
	Sink      Sink
	CreatedAt time.Time

	handler *mcpserver.MCPServer
	mu      sync.Mutex
}

// Handler exposes the bound protocol handler (used by tests asserting
// isolation).
func (s *Session) Handler() *mcpserver.MCPServer { return s.handler }

// HandleMessage feeds one raw protocol message to the session's handler.
// Calls are serialized per session, so within a session requests are
// processed in the order received. Returns nil for notifications.
func (s *Session) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler.HandleMessage(ctx, raw)
}

// Registry is the concurrent session map. All methods are safe for
// concurrent use by multiple request-handling goroutines.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{sessions: make(map[string]*Session), log: log}
}

// Create registers a new session. Sink may be nil for transports that
// deliver results in-band.
func (r *Registry) Create(id string, kind Kind, handler *mcpserver.MCPServer, sink Sink) *Session {
	s := &Session{
		ID:        id,
		Kind:      kind,
		Sink:      sink,
		CreatedAt: time.Now(),
		handler:   handler,
	}
	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()
	r.log.Debug("session created", "id", id, "transport", string(kind), "active", n)
	return s
}

// Get resolves a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	return s, ok
}

// Remove tears a session down: the entry is dropped and its sink closed.
// Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	if !ok {
		return
	}
	if s.Sink != nil {
		s.Sink.Close()
	}
	r.log.Debug("session removed", "id", id, "transport", string(s.Kind), "active", n)
}

// ForEach visits every live session. The visitor must not call back into
// the registry.
func (r *Registry) ForEach(visit func(*Session)) {
	r.mu.RLock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()
	for _, s := range snapshot {
		visit(s)
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Shutdown tears down every session, closing all sinks. Used on process
// shutdown.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for id, s := range sessions {
		if s.Sink != nil {
			s.Sink.Close()
		}
		r.log.Debug("session closed on shutdown", "id", id)
	}
}
