package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/align-alt-therapy/align-backend/internal/config"
	"github.com/align-alt-therapy/align-backend/internal/database"
	"github.com/align-alt-therapy/align-backend/internal/handlers"
	"github.com/align-alt-therapy/align-backend/internal/routes"
	"github.com/align-alt-therapy/align-backend/internal/services"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Connect to PostgreSQL
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB (play history)
	if err := database.ConnectMongo(cfg.MongoURI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer database.DisconnectMongo()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.EnsurePlayEventIndexes(ctx); err != nil {
		log.Printf("Warning: failed to ensure play event indexes: %v", err)
	}

	// Cloudinary is optional in development
	if cfg.CloudinaryName != "" {
		if err := handlers.InitCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret); err != nil {
			log.Printf("Warning: failed to initialize Cloudinary: %v", err)
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	}

	// Background workers
	services.StartTokenCleanup(24)
	services.StartSupportSubscriber(ctx)

	router := routes.New(cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("✅ Server listening on port %s (env: %s)", cfg.Port, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}

	log.Println("Server stopped")
}
