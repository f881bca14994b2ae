package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/heal-ops/heal/internal/aggregator"
	"github.com/heal-ops/heal/internal/logging"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades to WebSocket and streams every new snapshot to
// the client, starting with the current one.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Get().Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	snaps := s.hub.Subscribe()
	defer s.hub.Unsubscribe(snaps)

	// Read pump: detect client disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if snap := s.hub.Latest(); snap != nil {
		if err := writeSnapshot(conn, snap); err != nil {
			return
		}
	}

	// Write pump: send snapshots as JSON.
	for {
		select {
		case <-done:
			return
		case snap, ok := <-snaps:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := writeSnapshot(conn, snap); err != nil {
				logging.Get().Warn("websocket write failed", "err", err)
				return
			}
		}
	}
}

func writeSnapshot(conn *websocket.Conn, snap *aggregator.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(snap)
}
