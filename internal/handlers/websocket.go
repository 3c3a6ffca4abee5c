package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"wakie/go-backend/internal/models"
	"wakie/go-backend/internal/services"
	"wakie/go-backend/pkg/log"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 64
)

type wsInbound struct {
	Type    string              `json:"type"`
	Payload jsoniter.RawMessage `json:"payload"`
}

type wsClient struct {
	hub        *Hub
	conn       *websocket.Conn
	id         string
	authorized bool

	mu     sync.Mutex
	closed bool
	send   chan models.WebSocketMessage
}

// enqueue drops the message when the client is gone or too slow.
func (c *wsClient) enqueue(msg models.WebSocketMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		log.Warn(log.Fields{"client": c.id, "type": msg.Type}, "[handlers.Hub] send buffer full, dropping message")
		return false
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks control WebSocket clients. The channel carries operator
// commands and their acknowledgements, never drowsiness state.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*wsClient
	control  *ThresholdControl
	metrics  *services.Metrics
	upgrader websocket.Upgrader
}

func NewHub(control *ThresholdControl, metrics *services.Metrics, allowedOrigins string) *Hub {
	h := &Hub{
		clients: make(map[string]*wsClient),
		control: control,
		metrics: metrics,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	control.OnChange(h.broadcastThreshold)
	return h
}

func originChecker(allowed string) func(r *http.Request) bool {
	allowed = strings.TrimSpace(allowed)
	if allowed == "" || allowed == "*" {
		return func(*http.Request) bool { return true }
	}
	origins := make(map[string]struct{})
	for _, o := range strings.Split(allowed, ",") {
		origins[strings.TrimSpace(o)] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := origins[origin]
		return ok
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(controlTokenHeader)
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "[handlers.Hub] websocket upgrade failed")
		return
	}

	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	client := &wsClient{
		hub:        h,
		conn:       conn,
		id:         clientID,
		authorized: h.control.Authorize(token),
		send:       make(chan models.WebSocketMessage, wsSendBuffer),
	}

	h.mu.Lock()
	if old, ok := h.clients[clientID]; ok {
		old.close()
		old.conn.Close()
		h.decrement()
	}
	h.clients[clientID] = client
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.IncrementWebSocketConnections()
	}

	log.Info(log.Fields{"client": clientID, "authorized": client.authorized}, "[handlers.Hub] client connected")

	go client.writePump()
	go client.readPump()

	client.enqueue(models.WebSocketMessage{
		Type:      models.MessageWelcome,
		ClientID:  clientID,
		Timestamp: time.Now().Unix(),
		Payload: map[string]interface{}{
			"message":       "Connected to drowsiness monitor control channel",
			"ear_threshold": h.control.Current().EarThreshold,
		},
	})
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		c.close()
		c.conn.Close()
		h.decrement()
		log.Debug(log.Fields{"client": id}, "[handlers.Hub] connection closed")
	}
	h.clients = make(map[string]*wsClient)
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		h.decrement()
	}
	h.mu.Unlock()

	c.close()
	log.Info(log.Fields{"client": c.id}, "[handlers.Hub] client disconnected")
}

// decrement must be called with h.mu held, once per removed client.
func (h *Hub) decrement() {
	if h.metrics != nil {
		h.metrics.DecrementWebSocketConnections()
	}
}

func (h *Hub) broadcastThreshold(value float64) {
	msg := models.WebSocketMessage{
		Type:      models.MessageThresholdUpdated,
		Timestamp: time.Now().Unix(),
		Payload:   map[string]float64{"ear_threshold": value},
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue(msg)
	}
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn(log.Fields{"client": c.id, "error": err.Error()}, "[handlers.Hub] read failed")
			}
			return
		}

		var msg wsInbound
		if err := jsonAPI.Unmarshal(data, &msg); err != nil {
			c.sendError("malformed message")
			continue
		}
		log.Debug(log.Fields{"client": c.id, "type": msg.Type}, "[handlers.Hub] message received")

		switch msg.Type {
		case models.MessagePing:
			c.enqueue(models.WebSocketMessage{
				Type:      models.MessagePong,
				ClientID:  c.id,
				Timestamp: time.Now().Unix(),
			})

		case models.MessageSetEarThreshold:
			if !c.authorized {
				c.sendError("control token required")
				continue
			}
			var payload models.SetEarThresholdPayload
			if err := jsonAPI.Unmarshal(msg.Payload, &payload); err != nil || payload.Value == nil {
				c.sendError("payload must be {\"value\": number}")
				continue
			}
			// Listeners, this client included, get THRESHOLD_UPDATED.
			c.hub.control.SetEarThreshold(context.Background(), *payload.Value)

		default:
			c.sendError("unknown message type: " + msg.Type)
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := jsonAPI.Marshal(msg)
			if err != nil {
				log.Error(log.Fields{"client": c.id, "error": err.Error()}, "[handlers.Hub] encode failed")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) sendError(reason string) {
	c.enqueue(models.WebSocketMessage{
		Type:      models.MessageError,
		ClientID:  c.id,
		Timestamp: time.Now().Unix(),
		Payload:   map[string]string{"error": reason},
	})
}
