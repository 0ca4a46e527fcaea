package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/richn23/student-voice/internal/cache"
	"github.com/richn23/student-voice/internal/config"
	"github.com/richn23/student-voice/internal/generator"
	"github.com/richn23/student-voice/internal/repository"
	"github.com/richn23/student-voice/internal/service"
	"github.com/richn23/student-voice/internal/transport/rest"
	"github.com/richn23/student-voice/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.Load()

	// Generator config
	aiConfig := config.DefaultAIConfig()
	log.Printf("AI Config:")
	log.Printf("  Default: %s", aiConfig.Models.Default)
	log.Printf("  Fast:    %s", aiConfig.Models.Fast)
	if aiConfig.IsEnabled() {
		log.Println("  API Key: configured ✓")
	} else {
		log.Println("  API Key: NOT SET (chat turns will be refused)")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := strings.TrimPrefix(cfg.RedisAddr, "redis://")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// WebSocket hub
	wsHub := ws.NewHub()
	go wsHub.Run()
	log.Println("WebSocket hub started")

	// Repositories
	surveyRepo := repository.NewSurveyRepo(db)
	deploymentRepo := repository.NewDeploymentRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	responseRepo := repository.NewResponseRepo(db)

	// Caches
	deploymentCache := cache.NewDeploymentCache(rdb)
	overlayCache := cache.NewOverlayCache(rdb)

	// Services
	gen := generator.NewAnthropicClient(aiConfig)
	translator := service.NewTranslator(gen, overlayCache)
	authSvc := service.NewAuthService(cfg.JWTSecret)
	manager := service.NewConversationManager(service.ManagerDeps{
		Surveys:     surveyRepo,
		Deployments: deploymentRepo,
		Sessions:    sessionRepo,
		Responses:   responseRepo,
		DeployCache: deploymentCache,
		Generator:   gen,
		Translator:  translator,
		Auth:        authSvc,
	})

	// Router
	container := &rest.Container{
		Manager:     manager,
		AuthService: authSvc,
		Surveys:     surveyRepo,
		WSHub:       wsHub,
	}
	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  GET  /v1/runner/{token}")
		log.Println("  POST /v1/chat/sessions")
		log.Println("  POST /v1/chat/sessions/{sessionId}/messages")
		log.Println("  WS   /v1/ws/chat/{sessionId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Server stopped")
}
