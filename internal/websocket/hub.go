package websocket

import (
	"log"
	"sync"
)

// Hub keeps every open connection per user and fans notification messages
// out to them.
type Hub struct {
	clients map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// onRead is called when a client acknowledges a notification.
	onRead func(userID, notificationID string)
}

// Message is the frame written to the client.
type Message struct {
	UserID  string                 `json:"user_id,omitempty"`
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

const (
	MessageTypeNotification = "notification"
	MessageTypePong         = "pong"
)

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// OnRead sets the callback for read receipts sent over the socket.
func (h *Hub) OnRead(fn func(userID, notificationID string)) {
	h.onRead = fn
}

// Run serialises registration and delivery. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			n := len(h.clients[client.UserID])
			h.mu.Unlock()
			log.Printf("Client registered: UserID=%s, Total clients for user: %d", client.UserID, n)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			log.Printf("Client unregistered: UserID=%s", client.UserID)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[message.UserID] {
				select {
				case client.send <- message:
				default:
					// A client that cannot keep up is dropped.
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.UserID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.UserID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.remove(client)
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastToUser queues a notification for every connection of userID.
// Users without a connection simply miss the push; the notification is
// still stored.
func (h *Hub) BroadcastToUser(userID string, payload map[string]interface{}) {
	message := &Message{
		UserID:  userID,
		Type:    MessageTypeNotification,
		Payload: payload,
	}

	select {
	case h.broadcast <- message:
	default:
		log.Printf("Broadcast channel full, dropping message for user: %s", userID)
	}
}

// ClientCount returns the number of open connections for a user.
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
