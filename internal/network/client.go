package network

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
	// Time an action may wait for the simulation goroutine.
	actionTimeout = 5 * time.Second
)

// Message kinds sent to clients.
const (
	KindEvent  = "EVENT"
	KindResult = "ACTION_RESULT"
	KindState  = "STATE"
)

// ServerMessage is the envelope of everything the server pushes.
type ServerMessage struct {
	Kind   string            `json:"kind"`
	Event  *events.GameEvent `json:"event,omitempty"`
	Result *ActionResult     `json:"result,omitempty"`
	State  *engine.Snapshot  `json:"state,omitempty"`
}

// Client is one connected player UI.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	lastActionTime time.Time
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Register adds the client to the hub. It reports false when the hub has stopped.
func (c *Client) Register() bool {
	select {
	case c.hub.register <- c:
		return true
	case <-c.hub.done:
		return false
	}
}

// Unregister removes the client from the hub, if the hub is still running.
func (c *Client) Unregister() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// ReadPump reads player actions until the connection closes.
func (c *Client) ReadPump() {
	defer func() {
		c.Unregister()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.metrics.RecordWSError()
				c.hub.logger.Warn("websocket read failed", "error", err)
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Warn("failed to parse player action", "error", err)
			c.reply(ActionResult{Error: ErrBadPayload.Error()})
			continue
		}

		c.reply(c.handlePlayerAction(action))
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) ActionResult {
	if c.hub.actionInterval > 0 && time.Since(c.lastActionTime) < c.hub.actionInterval {
		c.hub.logger.Debug("rate limit exceeded", "action", action.Type)
		return failed(action, ErrRateLimited)
	}
	c.lastActionTime = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	return Dispatch(ctx, c.hub.engine, action)
}

func (c *Client) reply(result ActionResult) {
	msg, err := json.Marshal(ServerMessage{Kind: KindResult, Result: &result})
	if err != nil {
		c.hub.logger.Error("failed to serialize action result", "error", err)
		return
	}
	c.hub.sendTo(c, msg)
}

// queueState puts the current snapshot at the head of the send queue.
func (c *Client) queueState(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	var snap engine.Snapshot
	err := c.hub.engine.Do(ctx, func(e *engine.Engine) error {
		snap = e.Snapshot()
		return nil
	})
	if err != nil {
		c.hub.logger.Warn("could not read state for new client", "error", err)
		return
	}
	msg, err := json.Marshal(ServerMessage{Kind: KindState, State: &snap})
	if err != nil {
		return
	}
	c.send <- msg
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One JSON document per frame.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.metrics.RecordWSError()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
