package httpd

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/roach88/stash/internal/appstate"
	"github.com/roach88/stash/internal/blob"
	"github.com/roach88/stash/internal/frame"
	"github.com/roach88/stash/internal/view"
)

// contentTypeFor maps stored mime types to response content types.
// Unknown mime types fall back to a generic binary type.
func contentTypeFor(mimeType string) string {
	switch mimeType {
	case "text/plain":
		return "text/plain; charset=utf-8"
	case "text/html":
		return "text/html; charset=utf-8"
	case "image/png":
		return "image/png"
	case "image/jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// handleGet streams the content behind /{id}. A malformed id segment
// is treated identically to an unknown one: 404, never a server
// error.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := frame.ParseID(strings.TrimPrefix(r.URL.Path, "/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var item view.Item
	var found bool
	s.state.WithLock(func(in *appstate.Inner) {
		item, found = in.View.Lookup(id)
	})
	if !found {
		http.NotFound(w, r)
		return
	}

	if item.IsStack() {
		s.getStack(w, r, item)
		return
	}
	s.getLeaf(w, r, item)
}

// getLeaf resolves the item's blob under the lock, then streams the
// bytes outside any lock so a large transfer never stalls writers.
func (s *Server) getLeaf(w http.ResponseWriter, r *http.Request, item view.Item) {
	if item.Hash == "" {
		// Provisional entry with no committed content yet.
		http.NotFound(w, r)
		return
	}

	var meta blob.Meta
	var rc io.ReadCloser
	var err error
	s.state.WithLock(func(in *appstate.Inner) {
		meta, err = in.Cache.GetMeta(item.Hash)
		if err != nil {
			return
		}
		rc, err = in.Cache.GetStream(item.Hash)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypeFor(meta.MimeType))
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("streaming blob failed", "id", item.ID, "error", err)
	}
}

// childContent is what getStack resolves per child inside the lock.
type childContent struct {
	meta blob.Meta
	hash string
}

// getStack streams the concatenation of the stack's children. When
// the request accepts HTML, each child is preview-rendered first.
// Children are newline-separated either way.
func (s *Server) getStack(w http.ResponseWriter, r *http.Request, stack view.Item) {
	wantHTML := strings.Contains(r.Header.Get("Accept"), "text/html")

	var children []childContent
	var err error
	s.state.WithLock(func(in *appstate.Inner) {
		for _, child := range in.View.Children(stack.ID) {
			if child.Hash == "" {
				continue // still provisional
			}
			var meta blob.Meta
			meta, err = in.Cache.GetMeta(child.Hash)
			if err != nil {
				return
			}
			children = append(children, childContent{meta: meta, hash: child.Hash})
		}
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if wantHTML {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}

	// Blob reads happen outside the lock.
	for _, child := range children {
		if wantHTML {
			data, err := s.readBlob(child.hash)
			if err != nil {
				slog.Error("reading stack child failed", "hash", child.hash, "error", err)
				continue
			}
			io.WriteString(w, s.render(data, child.meta.MimeType, child.meta.ContentType))
		} else {
			rc, err := s.openBlob(child.hash)
			if err != nil {
				slog.Error("reading stack child failed", "hash", child.hash, "error", err)
				continue
			}
			_, err = io.Copy(w, rc)
			rc.Close()
			if err != nil {
				slog.Error("streaming stack child failed", "hash", child.hash, "error", err)
				return
			}
		}
		io.WriteString(w, "\n")
	}
}

func (s *Server) openBlob(hash string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	var err error
	s.state.WithLock(func(in *appstate.Inner) {
		rc, err = in.Cache.GetStream(hash)
	})
	return rc, err
}

func (s *Server) readBlob(hash string) ([]byte, error) {
	rc, err := s.openBlob(hash)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
