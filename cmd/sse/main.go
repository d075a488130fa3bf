package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arogya-hms/backend/internal/adapters/database"
	"github.com/arogya-hms/backend/internal/adapters/events"
	"github.com/arogya-hms/backend/internal/api/handlers"
	"github.com/arogya-hms/backend/internal/api/middleware"
	"github.com/arogya-hms/backend/internal/application/services"
	"github.com/arogya-hms/backend/internal/infrastructure/clients/postgres"
	"github.com/arogya-hms/backend/internal/infrastructure/clients/redis"
	"github.com/arogya-hms/backend/internal/infrastructure/observability"
	"github.com/arogya-hms/backend/pkg/config"
	"github.com/arogya-hms/backend/pkg/secrets"
)

func main() {
	// Pull secrets into the environment before config reads it.
	vaultResult, err := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv(""))
	if err != nil {
		log.Printf("Warning: Failed to load Vault secrets: %v", err)
	} else if vaultResult.Enabled {
		log.Printf("Loaded %d secrets from Vault path %s", vaultResult.Loaded, vaultResult.Path)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-stream", cfg.Env)

	log.Println("Starting stream server...")

	// Initialize database client (needed for queue snapshots on connect)
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client (required for cross-process event delivery)
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis client initialized successfully")

	// Initialize event bus for real-time updates
	eventBus := events.NewRedisEventBus(redisClient)
	log.Println("Event bus initialized successfully")

	// Queue snapshots are read-only here; the API server owns all writes
	appointmentAdapter := database.NewAppointmentAdapter(pgClient)
	queueStatusAdapter := database.NewQueueStatusAdapter(pgClient)
	doctorAdapter := database.NewDoctorAdapter(pgClient)
	queueService := services.NewQueueService(appointmentAdapter, queueStatusAdapter, doctorAdapter, eventBus)

	// Initialize stream handler
	streamHandler := handlers.NewQueueStreamHandler(eventBus, queueService)
	log.Println("Stream handler initialized successfully")

	authMiddleware := middleware.NewAuthMiddleware(&cfg.Auth)

	// Set up router
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Doctor queue rooms are open: waiting-room displays poll them without
	// a session. Patient appointment rooms require one.
	mux.HandleFunc("GET /api/stream/queue/{id}", streamHandler.StreamDoctorQueue)
	mux.Handle("GET /api/stream/appointments",
		authMiddleware.RequireAuth(http.HandlerFunc(streamHandler.StreamPatientAppointments)))

	// Stream stats endpoint
	mux.HandleFunc("GET /api/stream/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"connected_clients": %d}`, streamHandler.ClientCount())
	})

	// Apply middleware
	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.StreamPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,  // Longer timeout for SSE
		WriteTimeout: 0,                 // No timeout for SSE streaming
		IdleTimeout:  120 * time.Second, // Allow long-lived connections
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Stream server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Stream server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stream server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if err := eventBus.Close(); err != nil {
		log.Printf("Error closing event bus: %v", err)
	}

	log.Println("Stream server stopped")
}
