package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only ever send small control messages
	maxMessageSize = 4 * 1024

	sendBuffer = 64
)

// Client is one websocket connection of a signed-in user
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
	UID  string
}

func NewClient(hub *Hub, conn *websocket.Conn, uid string) *Client {
	return &Client{
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
		UID:  uid,
	}
}

// WebSocketMessage is the standard message format for WebSocket communication
type WebSocketMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ReadPump answers pings and notices when the peer goes away
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		var wsMessage WebSocketMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			log.Printf("Error unmarshalling WebSocket message: %v", err)
			continue
		}
		if wsMessage.Type != "ping" {
			continue
		}

		c.Hub.Reply(c, WebSocketMessage{
			Type: "pong",
			Data: map[string]string{"timestamp": time.Now().Format(time.RFC3339)},
		})
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type envelope struct {
	owner   string
	client  *Client
	message []byte
}

type countRequest struct {
	owner string
	reply chan int
}

// Hub tracks the connected clients of every owner and fans snapshots out
// to the connections of that owner only
type Hub struct {
	clients    map[string]map[*Client]bool
	publish    chan envelope
	register   chan *Client
	unregister chan *Client
	count      chan countRequest
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		publish:    make(chan envelope),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan countRequest),
		done:       make(chan struct{}),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish sends a message to every connection of owner
func (h *Hub) Publish(owner string, message WebSocketMessage) {
	h.send(envelope{owner: owner}, message)
}

// Reply sends a message to a single connection
func (h *Hub) Reply(client *Client, message WebSocketMessage) {
	h.send(envelope{owner: client.UID, client: client}, message)
}

func (h *Hub) send(env envelope, message WebSocketMessage) {
	b, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshalling WebSocket message: %v", err)
		return
	}
	env.message = b
	select {
	case h.publish <- env:
	case <-h.done:
	}
}

// Connected returns how many connections owner has open
func (h *Hub) Connected(owner string) int {
	req := countRequest{owner: owner, reply: make(chan int, 1)}
	select {
	case h.count <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) drop(client *Client) {
	conns := h.clients[client.UID]
	if !conns[client] {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.UID)
	}
	close(client.Send)
}

// Run starts the hub's main loop. When ctx ends every connection is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for client := range conns {
					h.drop(client)
				}
			}
			return
		case client := <-h.register:
			if h.clients[client.UID] == nil {
				h.clients[client.UID] = make(map[*Client]bool)
			}
			h.clients[client.UID][client] = true
			log.Printf("Client connected: %s", client.UID)
		case client := <-h.unregister:
			if h.clients[client.UID][client] {
				h.drop(client)
				log.Printf("Client disconnected: %s", client.UID)
			}
		case req := <-h.count:
			req.reply <- len(h.clients[req.owner])
		case env := <-h.publish:
			for client := range h.clients[env.owner] {
				if env.client != nil && client != env.client {
					continue
				}
				select {
				case client.Send <- env.message:
				default:
					log.Printf("Client send buffer full, removing client: %s", client.UID)
					h.drop(client)
				}
			}
		}
	}
}
