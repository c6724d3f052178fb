package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"civicreport/models"

	"github.com/robfig/cron/v3"
)

// Sweeper runs one batch priority recompute
type Sweeper interface {
	UpdateAllPriorities(ctx context.Context) (*models.SweepResult, error)
}

// PriorityWorker is a background worker that periodically recomputes every priority record
type PriorityWorker struct {
	sweeper  Sweeper
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
}

// NewPriorityWorker creates a new priority worker. schedule is a standard 5-field cron spec or a
// descriptor such as "@every 15m"; each run is bounded by timeout (0 = no bound).
func NewPriorityWorker(sweeper Sweeper, schedule string, timeout time.Duration) *PriorityWorker {
	return &PriorityWorker{
		sweeper:  sweeper,
		schedule: schedule,
		timeout:  timeout,
	}
}

// Start schedules the sweep and runs it once immediately
func (w *PriorityWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		log.Println("Priority worker is already running")
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.schedule, w.RunOnce); err != nil {
		return fmt.Errorf("invalid priority sweep schedule %q: %w", w.schedule, err)
	}
	w.cron = c
	w.running = true
	c.Start()
	log.Printf("Priority worker started (schedule: %s)", w.schedule)

	go w.RunOnce()
	return nil
}

// Stop stops scheduling and waits for an in-flight sweep to finish
func (w *PriorityWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	c := w.cron
	w.mu.Unlock()

	log.Println("Stopping priority worker...")
	<-c.Stop().Done()
	log.Println("Priority worker stopped")
}

// RunOnce performs a single sweep. Safe to call concurrently with scheduled runs.
func (w *PriorityWorker) RunOnce() {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	result, err := w.sweeper.UpdateAllPriorities(ctx)
	if err != nil {
		log.Printf("[PRIORITY_SWEEP] Error updating priorities: %v", err)
		return
	}
	if result.Failed > 0 {
		log.Printf("[PRIORITY_SWEEP] %d records failed: %v", result.Failed, result.FailedIDs)
	}
}
