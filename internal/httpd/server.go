// Package httpd exposes the capture store on a loopback HTTP
// listener: GET streams content by id, POST ingests a new capture
// incrementally, and /events is the live subscriber feed.
package httpd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/roach88/stash/internal/appstate"
	"github.com/roach88/stash/internal/broadcast"
	"github.com/roach88/stash/internal/preview"
)

// Server serves the HTTP surface. Construct with New and run with
// Serve; the listener is restricted to loopback addresses.
type Server struct {
	state  *appstate.State
	bus    *broadcast.Broadcaster
	render preview.RenderFunc
	addr   string
}

// New creates a server. addr must resolve to a loopback interface;
// anything else is refused at Serve time.
func New(state *appstate.State, bus *broadcast.Broadcaster, render preview.RenderFunc, addr string) *Server {
	return &Server{state: state, bus: bus, render: render, addr: addr}
}

// Handler returns the route table. Split out so tests can drive the
// surface through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Serve listens on the configured loopback address until ctx is
// cancelled, then drains with a short shutdown grace period.
func (s *Server) Serve(ctx context.Context) error {
	host, _, err := net.SplitHostPort(s.addr)
	if err != nil {
		return fmt.Errorf("listen address %q: %w", s.addr, err)
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("refusing non-loopback listen address %q", s.addr)
	}

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http serve: %w", err)
	}
}

// handleRoot dispatches the two path shapes: POST / begins a
// streaming ingestion, GET /{id} streams content.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/":
		s.handlePost(w, r)
	case r.Method == http.MethodGet && r.URL.Path != "/":
		s.handleGet(w, r)
	default:
		http.NotFound(w, r)
	}
}
