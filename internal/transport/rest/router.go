package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/richn23/student-voice/internal/repository"
	"github.com/richn23/student-voice/internal/service"
	"github.com/richn23/student-voice/internal/transport/rest/handler"
	"github.com/richn23/student-voice/internal/transport/rest/middleware"
	"github.com/richn23/student-voice/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Manager     *service.ConversationManager
	AuthService *service.AuthService
	Surveys     repository.SurveyRepo
	WSHub       *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	runnerHandler := handler.NewRunnerHandler(c.Manager, c.Surveys)
	chatHandler := handler.NewChatHandler(c.Manager)
	wsHandler := ws.NewHandler(c.WSHub, c.Manager)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/runner/{token}", runnerHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/chat/sessions", chatHandler.Start).Methods("POST", "OPTIONS")

	// WebSocket route (public with token in query param)
	v1.HandleFunc("/ws/chat/{sessionId}", wsHandler.ChatWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Session routes (require the session token minted at start)
	sessionRoutes := v1.NewRoute().Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("/chat/sessions/{sessionId}/messages", chatHandler.Message).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
