package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Shivansh47201/vartalap/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restricted by CORS middleware upstream
	},
}

// Handler upgrades HTTP requests onto the hub
type Handler struct {
	hub *Hub
}

// NewHandler creates a WebSocket handler over the hub
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeWS upgrades the request and starts the connection's pumps. Identity
// is bound later by the client's register event.
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h.hub, conn)
	if h.hub.metrics != nil {
		h.hub.metrics.WebSocketConnected()
	}

	go client.writePump()
	go client.readPump()
}
