package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ryoevisu/kaishop-backend/pkg/config"
)

// connection is one authenticated websocket client.
type connection struct {
	ws         *websocket.Conn
	send       chan []byte
	identityID uuid.UUID
	admin      bool
}

func newConnection(ws *websocket.Conn, identityID uuid.UUID, admin bool, bufferSize int) *connection {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	return &connection{
		ws:         ws,
		send:       make(chan []byte, bufferSize),
		identityID: identityID,
		admin:      admin,
	}
}

// readLoop keeps the connection alive and drains anything the client sends.
// The only meaningful inbound event is authenticate, which the handler has
// already consumed, so everything after it is discarded. Returning tears the
// connection down.
func (c *connection) readLoop(ctx context.Context, hub *Hub, cfg config.RealtimeConfig) {
	defer func() {
		hub.unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(int64(cfg.MaxMessageBytes))
	_ = c.ws.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop drains the send channel and keeps the peer alive with pings.
func (c *connection) writeLoop(cfg config.RealtimeConfig) {
	pingInterval := cfg.PongTimeout * 9 / 10
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readAuthenticate consumes the first client frame and extracts the bearer
// token from the authenticate envelope.
func readAuthenticate(ws *websocket.Conn, cfg config.RealtimeConfig) (string, error) {
	ws.SetReadLimit(int64(cfg.MaxMessageBytes))
	if err := ws.SetReadDeadline(time.Now().Add(cfg.PongTimeout)); err != nil {
		return "", err
	}

	_, raw, err := ws.ReadMessage()
	if err != nil {
		return "", err
	}

	var envelope struct {
		Event string `json:"event"`
		Data  string `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", errInvalidAuthFrame
	}
	if envelope.Event != EventAuthenticate || envelope.Data == "" {
		return "", errInvalidAuthFrame
	}
	return envelope.Data, nil
}
