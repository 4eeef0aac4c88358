package httpd

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// upgrader accepts only same-host upgrades; the listener is loopback
// anyway.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// handleEvents is the live feed: on connect the subscriber receives
// the accumulated backlog captured atomically at subscribe time, then
// every event published after it, each exactly once. A closed or
// failing socket deregisters only its own subscription.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	backlog, ch, cancel := s.bus.Subscribe()

	// Reader goroutine: we never expect client messages, but reading
	// is how gorilla surfaces the close handshake.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	defer func() {
		cancel()
		conn.Close()
	}()

	for _, ev := range backlog {
		data, err := ev.Encode()
		if err != nil {
			slog.Error("encoding backlog event", "error", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	// Live delivery until the subscription is cancelled (socket
	// closed) or a write fails.
	for ev := range ch {
		data, err := ev.Encode()
		if err != nil {
			slog.Error("encoding live event", "error", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
