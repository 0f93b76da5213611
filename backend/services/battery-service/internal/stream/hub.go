package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"batterypower/backend/services/battery-service/internal/models"
)

// Event kinds pushed to stream subscribers.
const (
	EventReading = "reading"
	EventLoad    = "load"
)

// Event is one frame of the live stream.
type Event struct {
	Event   string          `json:"event"`
	Reading *models.Reading `json:"reading,omitempty"`
	Count   int             `json:"count,omitempty"`
	SentAt  time.Time       `json:"sent_at"`
}

// Hub tracks websocket subscribers and broadcasts reading events to them.
type Hub struct {
	mu           sync.RWMutex
	clients      map[string]*Client
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewHub builds a hub.
func NewHub(pingInterval, writeTimeout time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Hub{
		clients:      make(map[string]*Client),
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is HTTP handler for GET /battery/stream.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(uuid.NewString(), conn, h)
	h.add(client)
	h.logger.Info("stream subscriber connected", zap.String("client_id", client.id))

	go client.writePump()
	go client.readPump()
}

// PublishReading broadcasts a recorded reading.
func (h *Hub) PublishReading(reading models.Reading) {
	h.broadcast(Event{Event: EventReading, Reading: &reading, Count: 1, SentAt: time.Now().UTC()})
}

// PublishLoad broadcasts the outcome of a data file load.
func (h *Hub) PublishLoad(count int, latest models.Reading) {
	h.broadcast(Event{Event: EventLoad, Reading: &latest, Count: count, SentAt: time.Now().UTC()})
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
}

func (h *Hub) broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode stream event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue(payload)
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}
