package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Server-to-client message types
const (
	MsgTyping    MessageType = "typing"
	MsgReply     MessageType = "reply"
	MsgCompleted MessageType = "completed"
	MsgError     MessageType = "error"
)

// Client-to-server message types
const (
	MsgStudentMessage MessageType = "message"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub manages WebSocket connections, one per chat session. A session that
// reconnects replaces its previous connection.
type Hub struct {
	conns map[string]*Connection // sessionID -> conn

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
}

// Connection represents one chat client's WebSocket connection
type Connection struct {
	SessionID string
	Send      chan []byte
	Hub       *Hub
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		conns:      make(map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
	}
}

// Run processes registration events. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if old, ok := h.conns[conn.SessionID]; ok && old != conn {
				close(old.Send)
			}
			h.conns[conn.SessionID] = conn
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.conns[conn.SessionID]; ok && current == conn {
				delete(h.conns, conn.SessionID)
				close(conn.Send)
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a connection to the hub
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection from the hub
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// SendToSession delivers one typed message to a session's connection, if any
func (h *Hub) SendToSession(sessionID string, msgType MessageType, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: marshaling %s payload: %v", msgType, err)
		return
	}
	data, err := json.Marshal(Message{Type: msgType, Payload: raw})
	if err != nil {
		log.Printf("ws: marshaling %s envelope: %v", msgType, err)
		return
	}

	h.mu.RLock()
	conn, ok := h.conns[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case conn.Send <- data:
	default:
		log.Printf("ws: send buffer full for session %s, dropping %s", sessionID, msgType)
	}
}
