package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"civicreport/models"
)

// PriorityService owns the SLA and priority records
type PriorityService struct {
	store  Store
	locks  *IncidentLocks
	clock  Clock
	sweeps singleflight.Group
}

// NewPriorityService creates a new priority service
func NewPriorityService(store Store, locks *IncidentLocks, clock Clock) *PriorityService {
	if clock == nil {
		clock = SystemClock
	}
	return &PriorityService{store: store, locks: locks, clock: clock}
}

// GetPriority returns the priority record of an incident with its trigger log
func (s *PriorityService) GetPriority(ctx context.Context, incidentID int64) (*models.IncidentPriority, error) {
	p, err := s.store.GetPriority(ctx, incidentID)
	if err != nil {
		return nil, translate(err, "priority record")
	}
	return p, nil
}

// RecomputePriority recalculates SLA and priority for one incident, creating the record when absent
func (s *PriorityService) RecomputePriority(ctx context.Context, incidentID int64) (*models.IncidentPriority, error) {
	return s.mutate(ctx, incidentID, func(*models.IncidentPriority) error { return nil })
}

// UpdateCommunitySupport sets the externally supplied support counters and recalculates
func (s *PriorityService) UpdateCommunitySupport(ctx context.Context, incidentID int64, req models.CommunitySupportRequest) (*models.IncidentPriority, error) {
	if req.SignatureWeight < 0 || req.UpvoteWeight < 0 {
		return nil, validationFailed("signature_weight and upvote_weight must be non-negative")
	}
	return s.mutate(ctx, incidentID, func(p *models.IncidentPriority) error {
		p.SignatureWeight = req.SignatureWeight
		p.UpvoteWeight = req.UpvoteWeight
		return nil
	})
}

func (s *PriorityService) mutate(ctx context.Context, incidentID int64, apply func(*models.IncidentPriority) error) (*models.IncidentPriority, error) {
	unlock := s.locks.Lock(incidentID)
	defer unlock()

	var result *models.IncidentPriority
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		incident, err := tx.GetIncident(ctx, incidentID)
		if err != nil {
			return translate(err, "incident")
		}
		p, err := loadOrNewPriority(ctx, tx, incidentID)
		if err != nil {
			return err
		}
		if err := apply(p); err != nil {
			return err
		}
		Recompute(p, incident.Snapshot(), s.clock())
		if err := tx.SavePriority(ctx, p); err != nil {
			return fmt.Errorf("failed to save priority: %w", err)
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateAllPriorities recomputes every priority record. A failing record is counted and logged,
// never aborts the batch. Overlapping calls share a single run; the run keeps the first caller's
// deadline but not its cancellation, so a caller that goes away only stops waiting.
func (s *PriorityService) UpdateAllPriorities(ctx context.Context) (*models.SweepResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("priority sweep not started: %w", err)
	}
	ch := s.sweeps.DoChan("priority-sweep", func() (interface{}, error) {
		runCtx := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithDeadline(runCtx, deadline)
			defer cancel()
		}
		return s.sweep(runCtx)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("stopped waiting for priority sweep: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Printf("[PRIORITY_SWEEP] Joined an in-flight sweep")
		}
		return res.Val.(*models.SweepResult), nil
	}
}

func (s *PriorityService) sweep(ctx context.Context) (*models.SweepResult, error) {
	started := time.Now()
	now := s.clock()
	result := &models.SweepResult{StartedAt: now}

	records, err := s.store.ListPrioritiesWithIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list priority records: %w", err)
	}
	result.Total = len(records)

	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("priority sweep interrupted after %d records: %w", i, err)
		}
		p := records[i].Priority
		Recompute(&p, records[i].Incident, now)
		if err := s.store.UpdateComputedPriority(ctx, &p); err != nil {
			log.Printf("[PRIORITY_SWEEP] Failed to update priority for incident %d: %v", p.IncidentID, err)
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, p.IncidentID)
			continue
		}
		result.Updated++
	}

	result.Duration = time.Since(started)
	log.Printf("[PRIORITY_SWEEP] Updated %d/%d priority records (%d failed) in %s",
		result.Updated, result.Total, result.Failed, result.Duration)
	return result, nil
}
