package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicreport/config"
	"civicreport/middleware"
	"civicreport/repository"
	"civicreport/routes"
	"civicreport/schema"
	"civicreport/service"
	"civicreport/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.LoadConfig()

	dsn, err := cfg.Database.DSN()
	if err != nil {
		log.Fatalf("Invalid database configuration: %v", err)
	}
	db, err := repository.Open(cfg.Database.Driver, dsn, cfg.Database.PoolSize())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Printf("Database connection established (driver: %s)", cfg.Database.Driver)

	if cfg.Database.RunMigrations {
		if err := schema.Migrate(db, cfg.Database.Driver); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	}
	// Refuse to start against a schema the workflows cannot run on
	if err := schema.ValidateRequiredColumns(db, cfg.Database.Driver, nil); err != nil {
		log.Fatalf("Schema validation failed: %v", err)
	}

	store := repository.NewStore(db)
	locks := service.NewIncidentLocks()
	services := routes.Services{
		Escalation:   service.NewEscalationService(store, locks, service.SystemClock),
		Coordination: service.NewCoordinationService(store, locks, service.SystemClock),
		Assignment:   service.NewAssignmentService(store, locks, service.SystemClock),
		Priority:     service.NewPriorityService(store, locks, service.SystemClock),
	}

	var priorityWorker *worker.PriorityWorker
	if cfg.Sweep.Enabled {
		priorityWorker = worker.NewPriorityWorker(
			services.Priority,
			cfg.Sweep.Schedule,
			time.Duration(cfg.Sweep.Timeout)*time.Second,
		)
		if err := priorityWorker.Start(); err != nil {
			log.Fatalf("Failed to start priority worker: %v", err)
		}
	} else {
		log.Println("Priority worker DISABLED")
	}

	router := routes.SetupRoutes(services, db, cfg.Auth.JWTSecret, cfg.Auth.AdminToken)
	if cfg.Auth.AdminToken == "" {
		log.Println("Warning: ADMIN_TOKEN not set, admin routes are disabled")
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           middleware.CORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if priorityWorker != nil {
		priorityWorker.Stop()
	}
	log.Println("Server stopped")
}
