package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/agentboard/agentboard/internal/server"
	"github.com/agentboard/agentboard/internal/session"
)

// Mode selects which protocol variant a process serves. Chosen once at
// startup, never dynamic.
type Mode string

const (
	ModeStreamable Mode = "streamable"
	ModeSSE        Mode = "sse"
	ModeDual       Mode = "dual"
)

// NewRouter builds the HTTP surface for the selected mode: the transport
// endpoints plus the health endpoint.
func NewRouter(mode Mode, factory *server.Factory, registry *session.Registry, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	h := newHealth(mode)
	r.Get("/healthz", h.handle)

	if mode == ModeStreamable || mode == ModeDual {
		NewStreamableHTTP(factory, registry, log).Routes(r)
	}
	if mode == ModeSSE || mode == ModeDual {
		NewSSE(factory, registry, log).Routes(r)
	}
	return r
}

// NewHTTPServer wraps the handler in an http.Server configured for
// long-lived protocol traffic: no write or idle timeouts, since composite
// operations must complete without truncation and the event stream lives
// for the whole session. Only the header read is bounded.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       0,
	}
}

// health serves the fixed-shape liveness document.
type health struct {
	mode    Mode
	started time.Time
}

func newHealth(mode Mode) *health {
	return &health{mode: mode, started: time.Now()}
}

func (h *health) handle(w http.ResponseWriter, r *http.Request) {
	doc := map[string]any{
		"status":         "ok",
		"transport":      string(h.mode),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}
	w.Header().Set("Content-Type", "application/json")
	out, err := json.Marshal(doc)
	if err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(out)
}
