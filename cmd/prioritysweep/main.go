// prioritysweep runs one priority recompute over every incident and exits.
// Use it from an external timer (system cron, Kubernetes CronJob) when PRIORITY_SWEEP_ENABLED=false.
// Usage: from project root, run: go run ./cmd/prioritysweep
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"civicreport/config"
	"civicreport/repository"
	"civicreport/schema"
	"civicreport/service"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found")
	}
	cfg := config.LoadConfig()

	dsn, err := cfg.Database.DSN()
	if err != nil {
		log.Fatalf("Invalid database configuration: %v", err)
	}
	db, err := repository.Open(cfg.Database.Driver, dsn, cfg.Database.PoolSize())
	if err != nil {
		log.Fatalf("DB open: %v", err)
	}
	defer db.Close()
	if err := schema.ValidateRequiredColumns(db, cfg.Database.Driver, nil); err != nil {
		log.Fatalf("Schema validation failed: %v", err)
	}

	store := repository.NewStore(db)
	priorityService := service.NewPriorityService(store, service.NewIncidentLocks(), service.SystemClock)

	ctx := context.Background()
	if cfg.Sweep.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Sweep.Timeout)*time.Second)
		defer cancel()
	}

	result, err := priorityService.UpdateAllPriorities(ctx)
	if err != nil {
		log.Fatalf("[PRIORITY_SWEEP] Sweep failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
	if result.Failed > 0 {
		os.Exit(1)
	}
}
