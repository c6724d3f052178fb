package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"civicreport/models"
	"civicreport/utils"
)

// triggerMatchWindow pairs a trail step with the trigger recorded alongside it
const triggerMatchWindow = time.Minute

// EscalationService handles hierarchical escalation of incidents between officers
type EscalationService struct {
	store Store
	locks *IncidentLocks
	clock Clock
}

// NewEscalationService creates a new escalation service
func NewEscalationService(store Store, locks *IncidentLocks, clock Clock) *EscalationService {
	if clock == nil {
		clock = SystemClock
	}
	return &EscalationService{store: store, locks: locks, clock: clock}
}

// GetEscalationPaths returns the legal escalation routes out of the requesting officer's custody
func (s *EscalationService) GetEscalationPaths(ctx context.Context, incidentID, userID int64) (*models.EscalationPaths, error) {
	c, err := loadCustody(ctx, s.store, incidentID, userID)
	if err != nil {
		return nil, err
	}

	level, ok := HierarchyFor(c.officer.EscalationLevel)
	if !ok {
		return nil, validationFailed("invalid escalation level %d", c.officer.EscalationLevel)
	}

	priority, err := s.store.GetPriority(ctx, incidentID)
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load priority: %w", err)
	}

	var paths []models.EscalationPath
	if level.HasNext() {
		nextLevel, err := s.store.ListActiveOfficers(ctx, models.OfficerFilter{
			DepartmentIDs:   []int64{c.officer.DepartmentID},
			EscalationLevel: level.NextLevel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list next level officers: %w", err)
		}
		paths = append(paths, models.EscalationPath{
			Type:              models.EscalationHierarchy,
			Description:       level.Description,
			TargetLevel:       level.NextLevel,
			TargetLevelName:   LevelName(level.NextLevel),
			AvailableOfficers: officerSummaries(nextLevel),
		})
	}

	crossDept, err := s.store.ListActiveOfficers(ctx, models.OfficerFilter{
		ExcludeDepartmentID: c.officer.DepartmentID,
		MinEscalationLevel:  c.officer.EscalationLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list inter-department officers: %w", err)
	}
	paths = append(paths, models.EscalationPath{
		Type:              models.EscalationInterdepartment,
		Description:       "Inter-department coordination",
		TargetLevel:       c.officer.EscalationLevel,
		TargetLevelName:   "Same Level - Different Department",
		AvailableOfficers: officerSummaries(crossDept),
	})

	return &models.EscalationPaths{
		Incident:        c.incident.Summary(),
		CurrentOfficer:  officerSummary(c.officer),
		EscalationPaths: paths,
		Triggers:        DetectTriggers(c.incident, priority, level),
		Hierarchy:       level,
	}, nil
}

// EscalateIncident hands the incident's primary custody from the requesting officer to the target officer.
//
// Everything happens in one transaction: the current assignment is superseded, a new current
// assignment is created, the incident moves to ESCALATED, a trigger is appended and the priority
// is recomputed with the escalation bonus. Any failure leaves no partial writes.
func (s *EscalationService) EscalateIncident(ctx context.Context, incidentID, userID int64, req models.EscalateRequest) (*models.EscalationRecord, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if req.TargetOfficerID <= 0 || req.EscalationType == "" || req.Reason == "" {
		return nil, validationFailed("target officer, escalation type, and reason are required")
	}
	if _, ok := escalationTypes[req.EscalationType]; !ok {
		return nil, validationFailed("invalid escalation type %q", req.EscalationType)
	}

	unlock := s.locks.Lock(incidentID)
	defer unlock()

	var record *models.EscalationRecord
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		c, err := loadCustody(ctx, tx, incidentID, userID)
		if err != nil {
			return err
		}
		if !c.incident.IsOpen() {
			return validationFailed("incident %d is %s and cannot be escalated", incidentID, c.incident.Status)
		}

		target, err := tx.GetOfficerByID(ctx, req.TargetOfficerID)
		if err != nil {
			return translate(err, "target officer")
		}
		if err := assignable(target); err != nil {
			return err
		}
		if target.OfficerID == c.officer.OfficerID {
			return validationFailed("cannot escalate an incident to yourself")
		}
		if err := ValidateEscalationTarget(req.EscalationType, c.officer, target); err != nil {
			return err
		}

		now := s.clock()
		note := fmt.Sprintf("Escalated to %s - %s", target.Name, req.Reason)
		if prev := c.assignment.Notes.String; c.assignment.Notes.Valid && prev != "" {
			note = prev + "\n" + note
		}
		if err := tx.SupersedeAssignment(ctx, c.assignment.AssignmentID, now, note); err != nil {
			if errors.Is(err, models.ErrStaleRecord) {
				return conflict("assignment %d is no longer current", c.assignment.AssignmentID)
			}
			return fmt.Errorf("failed to supersede assignment: %w", err)
		}

		next := &models.Assignment{
			IncidentID:        incidentID,
			AssigneeOfficerID: target.OfficerID,
			AssignedByUserID:  userID,
			Role:              primaryRole("", target),
			Status:            models.AssignmentAssigned,
			IsCurrent:         true,
			StartedAt:         now,
			Notes:             escalationNotes(req),
		}
		if err := createAssignment(ctx, tx, next); err != nil {
			return err
		}

		c.incident.Status = models.IncidentEscalated
		c.incident.EscalatedAt = sql.NullTime{Time: now, Valid: true}
		c.incident.EscalatedFrom = sql.NullInt64{Int64: c.officer.OfficerID, Valid: true}
		c.incident.EscalatedTo = sql.NullInt64{Int64: target.OfficerID, Valid: true}
		c.incident.CurrentAssignmentID = sql.NullInt64{Int64: next.AssignmentID, Valid: true}
		if err := updateIncident(ctx, tx, c.incident); err != nil {
			return err
		}

		priority, err := recordEvent(ctx, tx, c.incident, models.EscalationTrigger{
			Trigger:     models.TriggerType(req.EscalationType),
			TriggeredAt: now,
			TriggeredBy: sql.NullInt64{Int64: userID, Valid: true},
			Reason:      req.Reason,
		}, EscalationBonus)
		if err != nil {
			return err
		}

		record = &models.EscalationRecord{
			Reference:       utils.GenerateReference("ESC", now),
			IncidentID:      incidentID,
			FromOfficer:     officerSummary(c.officer),
			ToOfficer:       officerSummary(target),
			EscalationType:  req.EscalationType,
			Reason:          req.Reason,
			EscalatedAt:     now,
			NewAssignmentID: next.AssignmentID,
			PriorityScore:   priority.PriorityScore,
			UrgencyLevel:    priority.UrgencyLevel,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ESCALATION] Incident %d escalated from officer %d (Level %d) to officer %d (Level %d) type=%s ref=%s",
		incidentID, record.FromOfficer.OfficerID, record.FromOfficer.EscalationLevel,
		record.ToOfficer.OfficerID, record.ToOfficer.EscalationLevel, record.EscalationType, record.Reference)
	return record, nil
}

func escalationNotes(req models.EscalateRequest) sql.NullString {
	var parts []string
	if s := strings.TrimSpace(req.AttemptedSolutions); s != "" {
		parts = append(parts, "Attempted solutions: "+s)
	}
	if s := strings.TrimSpace(req.UrgencyJustification); s != "" {
		parts = append(parts, "Urgency: "+s)
	}
	if len(parts) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.Join(parts, "\n"), Valid: true}
}

// GetEscalationHistory returns the full custody trail of an incident in creation order
func (s *EscalationService) GetEscalationHistory(ctx context.Context, incidentID int64) (*models.EscalationHistory, error) {
	if _, err := s.store.GetIncident(ctx, incidentID); err != nil {
		return nil, translate(err, "incident")
	}

	assignments, err := s.store.ListAssignmentsByIncident(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	triggers, err := s.store.ListTriggers(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalation triggers: %w", err)
	}

	officers := make(map[int64]*models.Officer)
	history := &models.EscalationHistory{
		IncidentID:   incidentID,
		Trail:        make([]models.TrailStep, 0, len(assignments)),
		Triggers:     triggers,
		CurrentLevel: models.LevelField,
	}
	for i, a := range assignments {
		officer, ok := officers[a.AssigneeOfficerID]
		if !ok {
			officer, err = s.store.GetOfficerByID(ctx, a.AssigneeOfficerID)
			if err != nil {
				return nil, translate(err, "assigned officer")
			}
			officers[a.AssigneeOfficerID] = officer
		}

		history.Trail = append(history.Trail, models.TrailStep{
			Step:              i + 1,
			Assignment:        a,
			Officer:           officerSummary(officer),
			AssignedByUserID:  a.AssignedByUserID,
			EscalationTrigger: matchTrigger(triggers, a.StartedAt),
		})
		if !a.IsCoordinator() {
			history.CurrentLevel = officer.EscalationLevel
		}
	}
	return history, nil
}

// matchTrigger returns the first trigger recorded within a minute of at
func matchTrigger(triggers []models.EscalationTrigger, at time.Time) *models.EscalationTrigger {
	for i := range triggers {
		d := triggers[i].TriggeredAt.Sub(at)
		if d < 0 {
			d = -d
		}
		if d < triggerMatchWindow {
			t := triggers[i]
			return &t
		}
	}
	return nil
}

// GetPendingEscalations returns the requesting officer's work queue: current primary assignments
// still in ASSIGNED held by officers at or below the requester's level, highest priority first
func (s *EscalationService) GetPendingEscalations(ctx context.Context, userID int64, filter models.PendingFilter, page models.Page) (*models.PendingEscalations, error) {
	officer, err := requestingOfficer(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	page = page.Normalize()

	assignments, err := s.store.ListCurrentAssignments(ctx, models.AssignmentFilter{
		Status:             models.AssignmentAssigned,
		MaxAssigneeLevel:   officer.EscalationLevel,
		AssigneeDepartment: filter.DepartmentID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending assignments: %w", err)
	}

	officers := make(map[int64]*models.Officer)
	entries := make([]models.PendingEscalation, 0, len(assignments))
	for _, a := range assignments {
		priority, err := s.store.GetPriority(ctx, a.IncidentID)
		if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load priority: %w", err)
		}
		if filter.Urgency != "" && (priority == nil || priority.UrgencyLevel != filter.Urgency) {
			continue
		}

		incident, err := s.store.GetIncident(ctx, a.IncidentID)
		if err != nil {
			return nil, translate(err, "incident")
		}
		assignee, ok := officers[a.AssigneeOfficerID]
		if !ok {
			if assignee, err = s.store.GetOfficerByID(ctx, a.AssigneeOfficerID); err != nil {
				return nil, translate(err, "assigned officer")
			}
			officers[a.AssigneeOfficerID] = assignee
		}

		entry := models.PendingEscalation{
			AssignmentID:   a.AssignmentID,
			AssignedAt:     a.StartedAt,
			CurrentOfficer: officerSummary(assignee),
			Incident:       incident.Summary(),
		}
		if priority != nil {
			summary := priority.Summary()
			entry.Priority = &summary
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := entries[i].Priority, entries[j].Priority
		switch {
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return pi.Score > pj.Score
		}
	})

	start, end := page.Bounds(len(entries))
	return &models.PendingEscalations{
		Incidents:  entries[start:end],
		Pagination: page.PaginationFor(len(entries)),
		Officer:    officerSummary(officer),
	}, nil
}
