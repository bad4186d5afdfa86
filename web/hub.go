package web

import (
	"context"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// AgentController defines the interface that the web package uses to interact with the agent.
// This is used to avoid circular dependencies between the web and main packages.
type AgentController interface {
	// State returns a JSON-encoded representation of the current agent state.
	State() ([]byte, error)
	Pause()
	Resume()
	IsPaused() bool
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte
}

// Hub maintains the set of active clients and broadcasts messages to the clients.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound state snapshots.
	broadcast chan []byte

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	// agent is used to fetch state.
	agent AgentController
}

// NewHub creates a new Hub.
func NewHub(agent AgentController) *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
		agent:      agent,
	}
}

// Run starts the hub's event loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastFullState fetches the current state from the agent and broadcasts it to all clients.
// This method is called by the agent on every refresh.
func (h *Hub) BroadcastFullState() {
	if h == nil {
		return
	}
	state, err := h.agent.State()
	if err != nil {
		log.Printf("error getting agent state for broadcast: %v", err)
		return
	}
	select {
	case h.broadcast <- state:
	case <-h.done:
	}
}

// attach registers a client and queues the current state as its first message.
func (h *Hub) attach(conn *websocket.Conn) (*Client, bool) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 16)}
	// Queue before registering: once registered, Run owns and may close send.
	if state, err := h.agent.State(); err == nil {
		client.send <- state
	}
	select {
	case h.register <- client:
	case <-h.done:
		return nil, false
	}
	return client, true
}

func (c *Client) detach() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// readPump discards inbound messages and detaches the client when the
// connection fails.
func (c *Client) readPump() {
	defer func() {
		c.detach()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards queued messages to the connection and keeps it alive
// with pings.
func (c *Client) writePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
