package conversation

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prescripto/medibot-backend/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeTimeout = 10 * time.Second

// handleEvents streams conversation events (messages, typing, speaking,
// audio) over a websocket until the client disconnects.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(w, r)
	if ctrl == nil {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to upgrade connection")
		return
	}
	defer conn.Close()

	events, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	// Drain client frames so close handshakes and pings are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case event := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("[conversation] websocket write failed: %v", err)
				return
			}
		}
	}
}
