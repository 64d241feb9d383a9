package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vikasprajapat2/nexa/pkg/bus"
	"github.com/vikasprajapat2/nexa/pkg/logger"
)

const (
	wsChannel   = "ws"
	wsWriteWait = 10 * time.Second
	wsReadLimit = 64 << 10
)

type wsClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(v)
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(time.Second))
	_ = c.conn.Close()
}

// wsHandler publishes each {"command": ...} frame to the bus. Replies come
// back through RunOutbound, addressed by connection id.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCF("gateway", "WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	conn.SetReadLimit(wsReadLimit)

	client := &wsClient{id: "ws-" + uuid.NewString(), conn: conn}
	s.clientsMu.Lock()
	s.clients[client.id] = client
	s.clientsMu.Unlock()
	logger.DebugCF("gateway", "WebSocket client connected", map[string]interface{}{"client": client.id})

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client.id)
		s.clientsMu.Unlock()
		_ = conn.Close()
	}()

	for {
		var req commandRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnCF("gateway", "WebSocket read error", map[string]interface{}{
					"client": client.id,
					"error":  err.Error(),
				})
			}
			return
		}
		err := s.bus.PublishInbound(bus.InboundMessage{
			Channel:  wsChannel,
			SenderID: client.id,
			ChatID:   client.id,
			Content:  req.Command,
		})
		if err != nil {
			_ = client.send(commandResponse{Reply: "Sorry, I could not process that right now.", Source: "error"})
		}
	}
}

// RunOutbound forwards bus replies to their WebSocket clients until ctx is
// done or the bus closes.
func (s *Server) RunOutbound(ctx context.Context) {
	for {
		msg, ok := s.bus.SubscribeOutbound(ctx)
		if !ok {
			return
		}
		if msg.Channel != wsChannel {
			continue
		}
		s.clientsMu.RLock()
		client, exists := s.clients[msg.ChatID]
		s.clientsMu.RUnlock()
		if !exists {
			continue
		}
		if err := client.send(commandResponse{Reply: msg.Content, Source: msg.Source}); err != nil {
			logger.WarnCF("gateway", "WebSocket write failed", map[string]interface{}{
				"client": client.id,
				"error":  err.Error(),
			})
		}
	}
}
