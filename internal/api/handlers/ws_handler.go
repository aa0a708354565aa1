package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/netsentinel/console/backend/internal/api/middleware"
	"github.com/netsentinel/console/backend/internal/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cookie auth already ran; cross-origin dashboards are expected.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub *live.Hub
}

func NewWSHandler(hub *live.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Serve upgrades the connection and hands it to the hub. Returns when the
// viewer disconnects.
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		middleware.GetRequestLogger(c).WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.hub.HandleConn(conn)
}
