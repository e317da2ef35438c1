package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Client struct {
	hub  *Hub
	id   string
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()

		c.hub.log.Info("ws connection closed", zap.String("client_id", c.id))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg clientMsg
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("ws read failed", zap.String("client_id", c.id), zap.Error(err))
			}
			break
		}

		c.hub.log.Debug("ws message received",
			zap.String("client_id", c.id),
			zap.String("type", msg.Type),
		)

		switch msg.Type {
		case TypePing:
			c.hub.sendTo(c, Envelope{Type: TypePong, Payload: ChangePayload{Seq: c.hub.Seq()}})

		default:
			c.hub.log.Warn("unknown ws message type",
				zap.String("client_id", c.id),
				zap.String("type", msg.Type),
			)
			c.hub.sendTo(c, Envelope{Type: TypeError, Payload: map[string]string{"message": "unknown message type"}})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.Warn("ws write failed", zap.String("client_id", c.id), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Warn("ws ping failed", zap.String("client_id", c.id), zap.Error(err))
				return
			}
		}
	}
}
