package control

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/watchrig/rig/internal/events"
)

// Snapshot is whatever the caller wants describe/info/status to return;
// the control package never looks inside it.
type Snapshot = map[string]any

// Endpoint serves a rig's control protocol over a Unix socket.
type Endpoint struct {
	rigName      string
	socketPath   string
	log          zerolog.Logger
	describeFunc func() Snapshot
	destroyFunc  func()
	triggerFunc  func()
	bus          *events.Bus

	listener net.Listener
	server   *http.Server
}

// New builds an Endpoint bound to socketPath. destroyFunc and
// triggerFunc are called at most once per HTTP call; the caller (the rig
// core) is responsible for making repeated calls idempotent, since
// signal-driven shutdown may invoke the same logical action. bus feeds
// the /status/stream websocket; each lifecycle event published on it
// makes every connected client receive a fresh describe snapshot.
func New(rigName, socketPath string, describeFunc func() Snapshot, destroyFunc, triggerFunc func(), bus *events.Bus, log zerolog.Logger) *Endpoint {
	return &Endpoint{
		rigName:      rigName,
		socketPath:   socketPath,
		describeFunc: describeFunc,
		destroyFunc:  destroyFunc,
		triggerFunc:  triggerFunc,
		bus:          bus,
		log:          log.With().Str("component", "control").Logger(),
	}
}

// Start listens on the Unix socket and serves until ctx is cancelled or
// Close is called. It returns once the listener is accepting.
func (e *Endpoint) Start(ctx context.Context) error {
	_ = os.Remove(e.socketPath)
	ln, err := net.Listen("unix", e.socketPath)
	if err != nil {
		return err
	}
	e.listener = ln

	r := chi.NewRouter()
	r.Post("/destroy", e.handleDestroy)
	r.Post("/trigger", e.handleTrigger)
	r.Get("/describe", e.handleDescribe)
	r.Get("/info", e.handleDescribe)
	r.Get("/status", e.handleDescribe)
	r.Get("/status/stream", e.handleStream)

	e.server = &http.Server{Handler: r}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.server.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := e.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			e.log.Error().Err(err).Msg("control endpoint serve error")
		}
	}()

	return nil
}

// Close shuts down the listener and removes the socket file. Safe to call
// even if Start failed partway.
func (e *Endpoint) Close() error {
	if e.server != nil {
		_ = e.server.Close()
	}
	return os.Remove(e.socketPath)
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/msgpack")
	enc := msgpack.NewEncoder(w)
	_ = enc.Encode(resp)
}

func (e *Endpoint) handleDestroy(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, Response{Command: "destroy", Success: true})
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	e.destroyFunc()
}

func (e *Endpoint) handleTrigger(w http.ResponseWriter, r *http.Request) {
	e.triggerFunc()
	writeResponse(w, Response{Command: "trigger", Success: true})
}

func (e *Endpoint) handleDescribe(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, Response{Command: "describe", Success: true, Result: e.describeFunc()})
}
