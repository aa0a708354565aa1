package live

import (
	"github.com/gorilla/websocket"

	"github.com/netsentinel/console/backend/internal/logger"
)

// ClientMessage is the subscribe protocol a connected viewer speaks.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Topic  Topic  `json:"topic"`  // "traffic" or "alerts"
}

// HandleConn pumps hub events to one websocket connection and applies
// subscribe/unsubscribe messages read from it. Blocks until the peer
// disconnects; cleanup is silent.
func (h *Hub) HandleConn(conn *websocket.Conn) {
	sub := h.NewSubscription(64)
	defer h.Drop(sub)

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Action {
			case "subscribe":
				h.Subscribe(sub, msg.Topic)
			case "unsubscribe":
				h.Unsubscribe(sub, msg.Topic)
			}
		}
	}()

	for {
		select {
		case evt, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				logger.Log().WithError(err).Debug("websocket write failed, dropping viewer")
				return
			}
		case <-done:
			return
		}
	}
}
