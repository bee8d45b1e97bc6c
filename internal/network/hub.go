package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/metrics"
	"github.com/gorilla/websocket"
)

// Dispatcher runs a function on the simulation goroutine. *engine.Engine satisfies it.
type Dispatcher interface {
	Do(ctx context.Context, fn func(*engine.Engine) error) error
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex

	engine         Dispatcher
	actionInterval time.Duration
	metrics        *metrics.Collector
	logger         *logger.Logger
}

// NewHub initializes a new WebSocket Hub. Each client may act at most once per actionInterval.
func NewHub(d Dispatcher, actionInterval time.Duration, m *metrics.Collector, log *logger.Logger) *Hub {
	return &Hub{
		broadcast:      make(chan []byte, 256),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		clients:        make(map[*Client]bool),
		engine:         d,
		actionInterval: actionInterval,
		metrics:        m,
		logger:         log,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
// Once it returns, registering fails and unregistering is a no-op.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("websocket hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("websocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("websocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					// Too slow to keep up; drop the client rather than stall everyone.
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordWSConnection(-1)
					h.metrics.RecordWSDrop()
					h.logger.Warn("dropped slow websocket client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// sendTo queues msg for one client. It reports false when the client is gone
// or its queue is full.
func (h *Hub) sendTo(c *Client, msg []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return false
	}
	select {
	case c.send <- msg:
		h.metrics.RecordWSMessage(false)
		return true
	default:
		h.metrics.RecordWSDrop()
		return false
	}
}

// ClientCount reports how many clients are registered.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Subscribe forwards every event appended to el to the connected clients.
func (h *Hub) Subscribe(el *events.EventLog) *events.Subscription {
	return el.Subscribe(h.BroadcastEvent)
}

// BroadcastEvent serializes a GameEvent and queues it for all connected clients.
// It never blocks the caller, which is usually the simulation goroutine.
func (h *Hub) BroadcastEvent(event events.GameEvent) {
	payload, err := json.Marshal(ServerMessage{Kind: KindEvent, Event: &event})
	if err != nil {
		h.logger.Error("failed to serialize event for broadcast", "type", event.Type, "error", err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.metrics.RecordWSDrop()
		h.logger.Warn("broadcast queue full, event dropped", "type", event.Type)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // The UI may be served from another origin during development.
	},
}

// ServeWS upgrades the request and starts the client's pumps. The client's
// first message is the current state.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.metrics.RecordWSError()
		h.logger.Warn("failed to upgrade websocket connection", "error", err)
		return
	}

	client := NewClient(h, conn)
	// Queued before registering, while nothing else can close the send channel.
	client.queueState(r.Context())
	if !client.Register() {
		h.logger.Warn("websocket hub stopped, refusing client")
		conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
