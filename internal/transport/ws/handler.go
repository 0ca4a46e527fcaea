package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/richn23/student-voice/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	turnTimeout = 90 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced at the REST layer; chat links are public
	},
}

// Handler handles WebSocket chat connections
type Handler struct {
	hub     *Hub
	manager *service.ConversationManager
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, manager *service.ConversationManager) *Handler {
	return &Handler{hub: hub, manager: manager}
}

// studentMessage is the payload of a client "message" frame
type studentMessage struct {
	Text string `json:"text"`
}

// ChatWS handles GET /v1/ws/chat/{sessionId}
func (h *Handler) ChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.manager.ValidateSessionToken(token)
	if err != nil || claims.SessionID != sessionID {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		SessionID: sessionID,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
	}
	h.hub.Register(conn)

	log.Printf("Session %s connected via WebSocket", sessionID)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: session %s read error: %v", conn.SessionID, err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.hub.SendToSession(conn.SessionID, MsgError, map[string]string{"error": "invalid message"})
			continue
		}
		if msg.Type != MsgStudentMessage {
			continue
		}
		var payload studentMessage
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Text == "" {
			h.hub.SendToSession(conn.SessionID, MsgError, map[string]string{"error": "empty message"})
			continue
		}

		h.handleTurn(conn.SessionID, payload.Text)
	}
}

// handleTurn runs one conversation turn and streams the lifecycle to the
// client: typing indicator first, then the reply or an error.
func (h *Handler) handleTurn(sessionID, text string) {
	h.hub.SendToSession(sessionID, MsgTyping, map[string]bool{"typing": true})

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	turn, err := h.manager.Message(ctx, sessionID, text)
	if err != nil {
		h.hub.SendToSession(sessionID, MsgError, map[string]string{"error": "assistant is unavailable, please try again"})
		return
	}
	h.hub.SendToSession(sessionID, MsgReply, turn)
	if turn.Done {
		h.hub.SendToSession(sessionID, MsgCompleted, map[string]interface{}{
			"answered": turn.Answered,
			"total":    turn.Total,
		})
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case data, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := wsConn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
