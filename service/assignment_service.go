package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"civicreport/models"
)

// assignmentTransitions lists the legal moves of an assignment; COMPLETED and REJECTED are terminal
var assignmentTransitions = map[models.AssignmentStatus][]models.AssignmentStatus{
	models.AssignmentAssigned:   {models.AssignmentAccepted, models.AssignmentRejected},
	models.AssignmentAccepted:   {models.AssignmentInProgress, models.AssignmentCompleted},
	models.AssignmentInProgress: {models.AssignmentCompleted},
}

// AssignmentService handles initial dispatch and the assignee-driven assignment lifecycle
type AssignmentService struct {
	store Store
	locks *IncidentLocks
	clock Clock
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(store Store, locks *IncidentLocks, clock Clock) *AssignmentService {
	if clock == nil {
		clock = SystemClock
	}
	return &AssignmentService{store: store, locks: locks, clock: clock}
}

// DispatchIncident creates the first primary assignment of an incident and its priority record
func (s *AssignmentService) DispatchIncident(ctx context.Context, incidentID, userID int64, req models.DispatchRequest) (*models.DispatchResult, error) {
	if req.OfficerID <= 0 {
		return nil, validationFailed("officer_id is required")
	}
	if strings.EqualFold(strings.TrimSpace(req.Role), models.RoleCoordinator) {
		return nil, validationFailed("dispatch cannot create a coordinator assignment")
	}

	unlock := s.locks.Lock(incidentID)
	defer unlock()

	var result *models.DispatchResult
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		incident, err := tx.GetIncident(ctx, incidentID)
		if err != nil {
			return translate(err, "incident")
		}
		if incident.CurrentAssignmentID.Valid {
			return conflict("incident %d already has a current assignment", incidentID)
		}
		if !incident.IsOpen() {
			return validationFailed("incident %d is %s and cannot be dispatched", incidentID, incident.Status)
		}

		officer, err := tx.GetOfficerByID(ctx, req.OfficerID)
		if err != nil {
			return translate(err, "officer")
		}
		if err := assignable(officer); err != nil {
			return err
		}

		now := s.clock()
		a := &models.Assignment{
			IncidentID:        incidentID,
			AssigneeOfficerID: officer.OfficerID,
			AssignedByUserID:  userID,
			Role:              primaryRole(req.Role, officer),
			Status:            models.AssignmentAssigned,
			IsCurrent:         true,
			StartedAt:         now,
		}
		if err := createAssignment(ctx, tx, a); err != nil {
			return err
		}

		incident.Status = models.IncidentAssigned
		incident.CurrentAssignmentID = sql.NullInt64{Int64: a.AssignmentID, Valid: true}
		if err := updateIncident(ctx, tx, incident); err != nil {
			return err
		}

		p, err := loadOrNewPriority(ctx, tx, incidentID)
		if err != nil {
			return err
		}
		Recompute(p, incident.Snapshot(), now)
		if err := tx.SavePriority(ctx, p); err != nil {
			return fmt.Errorf("failed to save priority: %w", err)
		}

		result = &models.DispatchResult{
			IncidentID:   incidentID,
			AssignmentID: a.AssignmentID,
			Officer:      officerSummary(officer),
			Priority:     p.Summary(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ESCALATION] Incident %d dispatched to officer %d (assignment %d)", incidentID, req.OfficerID, result.AssignmentID)
	return result, nil
}

// UpdateAssignmentStatus moves an assignment along its lifecycle on behalf of its assignee.
//
// For the primary assignment: accepting an ESCALATED incident returns it to ASSIGNED,
// completing resolves the incident and rejecting releases custody so it can be dispatched again.
// Coordinator assignments never change the incident status.
func (s *AssignmentService) UpdateAssignmentStatus(ctx context.Context, assignmentID, userID int64, req models.AssignmentStatusRequest) (*models.Assignment, error) {
	next := models.AssignmentStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	if next == "" {
		return nil, validationFailed("status is required")
	}

	existing, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, translate(err, "assignment")
	}

	unlock := s.locks.Lock(existing.IncidentID)
	defer unlock()

	var updated *models.Assignment
	err = s.store.WithinTx(ctx, func(tx Tx) error {
		officer, err := requestingOfficer(ctx, tx, userID)
		if err != nil {
			return err
		}
		a, err := tx.GetAssignment(ctx, assignmentID)
		if err != nil {
			return translate(err, "assignment")
		}
		if a.AssigneeOfficerID != officer.OfficerID {
			return unauthorized("only the assigned officer can update this assignment")
		}
		if !a.IsCurrent {
			return conflict("assignment %d is no longer current", assignmentID)
		}
		if !canTransition(a.Status, next) {
			return validationFailed("invalid status transition: cannot change from %s to %s", a.Status, next)
		}

		now := s.clock()
		a.Status = next
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			if a.Notes.Valid && a.Notes.String != "" {
				notes = a.Notes.String + "\n" + notes
			}
			a.Notes = sql.NullString{String: notes, Valid: true}
		}
		terminal := next == models.AssignmentCompleted || next == models.AssignmentRejected
		if terminal {
			a.ResolvedAt = sql.NullTime{Time: now, Valid: true}
		}

		incident, err := tx.GetIncident(ctx, a.IncidentID)
		if err != nil {
			return translate(err, "incident")
		}
		primary := !a.IsCoordinator() && incident.CurrentAssignmentID.Valid &&
			incident.CurrentAssignmentID.Int64 == a.AssignmentID

		switch {
		case a.IsCoordinator():
			if terminal {
				a.IsCurrent = false
			}
		case !primary:
			return conflict("assignment %d is not the current assignment of incident %d", assignmentID, a.IncidentID)
		case next == models.AssignmentAccepted && incident.Status == models.IncidentEscalated:
			incident.Status = models.IncidentAssigned
		case next == models.AssignmentCompleted:
			incident.Status = models.IncidentResolved
			incident.ResolvedAt = sql.NullTime{Time: now, Valid: true}
		case next == models.AssignmentRejected:
			a.IsCurrent = false
			incident.Status = models.IncidentNew
			incident.CurrentAssignmentID = sql.NullInt64{}
		}

		if err := tx.UpdateAssignmentStatus(ctx, a); err != nil {
			return fmt.Errorf("failed to update assignment: %w", err)
		}
		if primary {
			if err := updateIncident(ctx, tx, incident); err != nil {
				return err
			}
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ESCALATION] Assignment %d on incident %d moved to %s by officer user %d",
		assignmentID, updated.IncidentID, updated.Status, userID)
	return updated, nil
}

func canTransition(from, to models.AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
