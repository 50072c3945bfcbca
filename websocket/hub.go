package websocket

import (
	"log"
	"sync"
	"time"

	"retmusic/types"
)

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	BroadcastSearchProgress(searchID, msgType string, tier types.SourceTier, message string, count int)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
}

// hub maintains the set of active clients and broadcasts search
// progress messages to them
type hub struct {
	// Registered clients mapped by search ID
	clients map[string]map[*Client]bool

	// Broadcast channel for sending messages to all clients of a search
	broadcast chan types.SearchProgressMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.SearchProgressMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.searchID] == nil {
				h.clients[client.searchID] = make(map[*Client]bool)
			}
			h.clients[client.searchID][client] = true
			h.mu.Unlock()
			log.Printf("WebSocket client connected for search %s", client.searchID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.searchID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.searchID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected for search %s", client.searchID)

		case message := <-h.broadcast:
			h.mu.Lock()
			// Send to clients watching this specific search
			if clients, ok := h.clients[message.SearchID]; ok {
				for client := range clients {
					select {
					case client.send <- message:
					default:
						close(client.send)
						delete(clients, client)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, message.SearchID)
				}
			}

			// Also send to "all" clients for any search update
			if allClients, ok := h.clients["all"]; ok {
				for client := range allClients {
					select {
					case client.send <- message:
					default:
						close(client.send)
						delete(allClients, client)
					}
				}
				if len(allClients) == 0 {
					delete(h.clients, "all")
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastSearchProgress sends a progress message to all clients of a
// specific search
func (h *hub) BroadcastSearchProgress(searchID, msgType string, tier types.SourceTier, message string, count int) {
	progressMsg := types.SearchProgressMessage{
		SearchID:  searchID,
		Type:      msgType,
		Tier:      tier,
		Message:   message,
		Count:     count,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- progressMsg:
	default:
		log.Printf("WebSocket broadcast channel full, dropping message for search %s", searchID)
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	h.unregister <- client
}
