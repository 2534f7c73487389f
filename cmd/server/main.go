package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mealquest/backend/config"
	httpDelivery "github.com/mealquest/backend/internal/delivery/http"
	"github.com/mealquest/backend/internal/infrastructure/kvstore"
	"github.com/mealquest/backend/internal/infrastructure/spoonacular"
	"github.com/mealquest/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.NewLogger(cfg.Log, os.Stdout)

	log.Printf("Starting MealQuest Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Storage: %s", cfg.Storage.Type)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	store, err := kvstore.Open(ctx, cfg.Storage, logger)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Type, err)
	}
	defer store.Close()

	recipeClient := spoonacular.NewClient(cfg.Spoonacular.APIKey, cfg.Spoonacular.BaseURL)
	recipeClient.SetLogger(logger)
	recipeClient.SetTimeout(cfg.Spoonacular.Timeout)
	recipeClient.SetRateLimit(cfg.Spoonacular.RequestsPerSecond, cfg.Spoonacular.Burst)
	recipeClient.SetMaxRetries(cfg.Spoonacular.MaxRetries)

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		recipeClient.SetDebug(true)
		log.Printf("Spoonacular client debug mode enabled")
	}

	keyHint := cfg.Spoonacular.APIKey
	if len(keyHint) > 4 {
		keyHint = keyHint[:4]
	}
	log.Printf("Spoonacular API configured: %s (key: %s...)", cfg.Spoonacular.BaseURL, keyHint)

	// Initialize usecase layer
	sessions := usecase.NewSessionManager(recipeClient, store, usecase.SessionManagerConfig{
		PageSize:         cfg.Search.PageSize,
		PersistFavorites: cfg.Session.PersistFavorites,
		IdleTTL:          cfg.Session.IdleTTL,
		Logger:           logger,
	})
	go sessions.RunSweeper(ctx, cfg.Session.SweepInterval)

	log.Printf("Search: page size %d, persist favorites %v", cfg.Search.PageSize, cfg.Session.PersistFavorites)
	log.Printf("Sessions: idle TTL %s", cfg.Session.IdleTTL)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(sessions, logger)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// cancels open event streams on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	log.Printf("Server listening on %s", addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Server stopped")
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
