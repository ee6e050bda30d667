package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Shivansh47201/vartalap/internal/domain"
	"github.com/Shivansh47201/vartalap/pkg/constants"
	"github.com/Shivansh47201/vartalap/pkg/logger"
)

// Client is one WebSocket connection attached to the hub. userID is empty
// until the connection sends its register event.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	userID string

	closeOnce sync.Once
}

// newClient wraps a live connection. Tests construct clients directly with
// a nil conn and drain send themselves.
func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// enqueue hands one frame to the write pump without blocking. A full
// buffer means the reader is too slow; the frame is dropped.
func (c *Client) enqueue(raw []byte) bool {
	select {
	case c.send <- raw:
		return true
	default:
		logger.Warn("client send buffer full, dropping frame", zap.String("user_id", c.userID))
		return false
	}
}

// closeSend terminates the write pump. Safe to call more than once.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump consumes frames from the connection and dispatches them until
// the connection drops
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.closeSend()
		c.conn.Close()
		if c.hub.metrics != nil {
			c.hub.metrics.WebSocketDisconnected()
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(constants.WebSocketPingInterval))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(constants.WebSocketPingInterval))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("websocket read error", zap.Error(err), zap.String("user_id", c.userID))
			}
			return
		}

		var env domain.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.Debug("invalid envelope, skipping", zap.Error(err))
			continue
		}
		if c.hub.metrics != nil {
			c.hub.metrics.RecordWebSocketMessage(env.Event, "in")
		}
		c.dispatch(env)
	}
}

// dispatch routes one inbound envelope to the hub
func (c *Client) dispatch(env domain.Envelope) {
	switch env.Event {
	case domain.EventRegister:
		var p domain.RegisterPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		c.hub.Register(c, p.UserID)

	case domain.EventConversationJoin:
		var p domain.ConversationRoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		c.hub.JoinRoom(c, p.ConversationID)

	case domain.EventConversationLeave:
		var p domain.ConversationRoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		c.hub.LeaveRoom(c, p.ConversationID)

	case domain.EventTyping:
		var p domain.TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		c.hub.RelayTyping(c.userID, p)

	case domain.EventCallOffer, domain.EventCallAnswer, domain.EventCallICECandidate,
		domain.EventCallEnd, domain.EventCallReject:
		var sig domain.CallSignal
		if err := json.Unmarshal(env.Data, &sig); err != nil {
			return
		}
		c.hub.RelaySignal(c.userID, env.Event, sig)

	default:
		logger.Debug("unknown event", zap.String("event", env.Event))
	}
}

// writePump drains the send buffer to the connection and keeps it alive
// with periodic pings
func (c *Client) writePump() {
	ticker := time.NewTicker(constants.WebSocketPingInterval * 9 / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
