package httpd

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/roach88/stash/internal/blob"
	"github.com/roach88/stash/internal/framelog"
	"github.com/roach88/stash/internal/ingest"
)

// chunkSize is the read granularity for streamed uploads. Each read
// becomes one packet append and one streaming-update event.
const chunkSize = 64 * 1024

// handlePost begins a streaming ingestion packet attached to the
// currently selected stack, consumes the request body incrementally,
// and responds with the committed frame's id.
//
// Ingestion is best-effort: a failed chunk read is logged and the
// bytes received so far are still committed — an in-progress upload
// is never aborted on a bad chunk.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	packet, err := ingest.Begin(r.Context(), s.state, s.bus, s.render, nil)
	if err != nil {
		respondError(w, r, err)
		return
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := r.Body.Read(buf)
		if n > 0 {
			if appendErr := packet.Append(s.bus, buf[:n]); appendErr != nil {
				slog.Error("appending chunk failed", "id", packet.Frame.ID, "error", appendErr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Error("reading chunk from POST body", "id", packet.Frame.ID, "error", err)
			break
		}
	}

	committed, err := packet.EndStream(r.Context(), s.state, s.bus)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, committed.ID)
}

// respondError maps taxonomy errors to HTTP statuses: unknown
// resources are a 404, everything unexpected a generic 500. Storage
// failures are logged, never swallowed.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, framelog.ErrNotFound) || errors.Is(err, blob.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
