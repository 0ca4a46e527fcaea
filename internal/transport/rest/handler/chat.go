package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/richn23/student-voice/internal/model"
	"github.com/richn23/student-voice/internal/service"
	"github.com/richn23/student-voice/internal/transport/rest/middleware"
)

// ChatHandler handles chatbot session endpoints
type ChatHandler struct {
	manager *service.ConversationManager
}

// NewChatHandler creates a new chat handler
func NewChatHandler(manager *service.ConversationManager) *ChatHandler {
	return &ChatHandler{manager: manager}
}

// MessageRequest is one turn of student input. Exactly one of the fields is
// expected; widget selections arrive as value or choices.
type MessageRequest struct {
	Message string   `json:"message,omitempty"`
	Value   *int     `json:"value,omitempty"`
	Choices []string `json:"choices,omitempty"`
}

func (r *MessageRequest) text() string {
	switch {
	case r.Value != nil:
		return strconv.Itoa(*r.Value)
	case len(r.Choices) > 0:
		return strings.Join(r.Choices, ", ")
	default:
		return strings.TrimSpace(r.Message)
	}
}

// Start handles POST /v1/chat/sessions
func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	result, err := h.manager.StartSession(r.Context(), req.Token, req.Language)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotChatbot):
			writeError(w, http.StatusConflict, "this link does not deliver via chatbot")
		case errors.Is(err, service.ErrLanguageDisabled):
			writeError(w, http.StatusBadRequest, "language selection is not enabled")
		default:
			writeError(w, http.StatusNotFound, "deployment not found")
		}
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Message handles POST /v1/chat/sessions/{sessionId}/messages
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if sessionID != middleware.GetSessionID(r.Context()) {
		writeError(w, http.StatusForbidden, "token does not match session")
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text := req.text()
	if text == "" {
		writeError(w, http.StatusBadRequest, "empty message")
		return
	}

	turn, err := h.manager.Message(r.Context(), sessionID, text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, service.ErrSessionCompleted):
			writeError(w, http.StatusConflict, "session already completed")
		default:
			writeError(w, http.StatusBadGateway, "assistant is unavailable, please try again")
		}
		return
	}
	writeJSON(w, http.StatusOK, turn)
}
