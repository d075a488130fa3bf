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

	"github.com/arogya-hms/backend/internal/adapters/cache"
	"github.com/arogya-hms/backend/internal/adapters/database"
	"github.com/arogya-hms/backend/internal/adapters/events"
	"github.com/arogya-hms/backend/internal/api/handlers"
	"github.com/arogya-hms/backend/internal/api/middleware"
	"github.com/arogya-hms/backend/internal/api/routes"
	"github.com/arogya-hms/backend/internal/application/services"
	"github.com/arogya-hms/backend/internal/domain/providers"
	"github.com/arogya-hms/backend/internal/domain/repositories"
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

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - caching and live updates degrade
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		eventBus = events.NewLocalEventBus()
		log.Println("Event bus running in-process (Redis not available)")
	}

	// Initialize adapters
	userAdapter := database.NewUserAdapter(pgClient)
	doctorAdapter := database.NewDoctorAdapter(pgClient)
	availabilityAdapter := database.NewAvailabilityAdapter(pgClient)
	appointmentAdapter := database.NewAppointmentAdapter(pgClient)
	queueStatusAdapter := database.NewQueueStatusAdapter(pgClient)
	medicalRecordAdapter := database.NewMedicalRecordAdapter(pgClient)
	familyMemberAdapter := database.NewFamilyMemberAdapter(pgClient)

	// Departments are near-static; wrap with caching when Redis is up
	var departmentAdapter repositories.DepartmentRepository = database.NewDepartmentAdapter(pgClient)
	if cacheProvider != nil {
		departmentAdapter = database.NewCachedDepartmentAdapter(departmentAdapter, cacheProvider)
		log.Println("Department adapter wrapped with caching layer")
	}

	// Initialize services
	queueService := services.NewQueueService(appointmentAdapter, queueStatusAdapter, doctorAdapter, eventBus)
	slotService := services.NewSlotService(doctorAdapter, availabilityAdapter, appointmentAdapter)
	bookingService := services.NewBookingService(appointmentAdapter, doctorAdapter, departmentAdapter, availabilityAdapter, queueService)
	consultationService := services.NewConsultationService(appointmentAdapter, doctorAdapter, medicalRecordAdapter, queueService)
	doctorService := services.NewDoctorService(doctorAdapter, availabilityAdapter, appointmentAdapter)
	adminService := services.NewAdminService(userAdapter, doctorAdapter, departmentAdapter)
	patientService := services.NewPatientService(userAdapter, familyMemberAdapter, medicalRecordAdapter, doctorAdapter)

	// Initialize handlers
	appointmentHandler := handlers.NewAppointmentHandler(bookingService, consultationService, appointmentAdapter, doctorAdapter)
	doctorHandler := handlers.NewDoctorHandler(doctorService, slotService)
	queueHandler := handlers.NewQueueHandler(queueService)
	departmentHandler := handlers.NewDepartmentHandler(departmentAdapter)
	patientHandler := handlers.NewPatientHandler(patientService)
	adminHandler := handlers.NewAdminHandler(adminService)

	authMiddleware := middleware.NewAuthMiddleware(&cfg.Auth)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		appointmentHandler,
		doctorHandler,
		queueHandler,
		departmentHandler,
		patientHandler,
		adminHandler,
		authMiddleware,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

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

	log.Println("Server stopped")
}
