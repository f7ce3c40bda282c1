// Package websocket pushes processing events to connected browsers:
// upload acknowledgements, transform progress and completion, and chart
// updates after a drill or metric switch.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"efscli/internal/infrastructure"
	"efscli/internal/metrics"
	"efscli/pkg/contracts/events"
)

// Message type constants, re-exported from the shared event contract.
const (
	TypeConnection        = events.TypeConnection
	TypeDatasetUploaded   = events.TypeDatasetUploaded
	TypeTransformProgress = events.TypeTransformProgress
	TypeTransformComplete = events.TypeTransformComplete
	TypeChartUpdate       = events.TypeChartUpdate
	TypeError             = events.TypeError
)

// Hub maintains the set of active clients and broadcasts messages to
// them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub instance.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start launches the hub loop. Calling Start twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop terminates the hub loop.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		h.running = false
		close(h.quit)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			metrics.WebSocketClients.Set(float64(count))
			h.logger.Info("client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			msg, err := json.Marshal(events.New(TypeConnection, map[string]interface{}{
				"status":    "connected",
				"client_id": client.id,
			}))
			if err == nil {
				select {
				case client.send <- msg:
				default:
					h.logger.Warn("connection message dropped, client buffer full",
						slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			metrics.WebSocketClients.Set(float64(count))
			h.logger.Info("client unregistered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop the client rather than
					// block the hub loop.
					h.mu.Lock()
					if _, ok := h.clients[client]; ok {
						close(client.send)
						delete(h.clients, client)
					}
					h.mu.Unlock()
					h.logger.Warn("client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
		}
	}
}

// BroadcastDatasetUploaded announces a freshly parsed dataset.
func (h *Hub) BroadcastDatasetUploaded(datasetID string, rowCount int) {
	h.broadcastJSON(events.New(TypeDatasetUploaded, map[string]interface{}{
		"dataset_id": datasetID,
		"row_count":  rowCount,
	}))
}

// BroadcastTransformProgress reports stage-level transform progress.
func (h *Hub) BroadcastTransformProgress(datasetID, stage string, progress int) {
	h.broadcastJSON(events.New(TypeTransformProgress, map[string]interface{}{
		"dataset_id": datasetID,
		"stage":      stage,
		"progress":   progress,
	}))
}

// BroadcastTransformComplete announces a finished transform run.
func (h *Hub) BroadcastTransformComplete(datasetID string, stats interface{}) {
	h.broadcastJSON(events.New(TypeTransformComplete, map[string]interface{}{
		"dataset_id": datasetID,
		"stats":      stats,
	}))
}

// BroadcastChartUpdate pushes a rebuilt chart after a drill, metric
// switch or reset.
func (h *Hub) BroadcastChartUpdate(datasetID string, chart interface{}) {
	h.broadcastJSON(events.New(TypeChartUpdate, map[string]interface{}{
		"dataset_id": datasetID,
		"chart":      chart,
	}))
}

// BroadcastError pushes an error notification to all clients.
func (h *Hub) BroadcastError(message string) {
	h.broadcastJSON(events.New(TypeError, map[string]interface{}{
		"message": message,
	}))
}

func (h *Hub) broadcastJSON(message events.Envelope) {
	jsonData, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("error marshaling message",
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- jsonData:
	case <-h.quit:
	}
}
