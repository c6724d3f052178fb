package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"civicreport/models"
)

// translate maps store sentinels onto domain kinds; other errors pass through as infrastructure failures
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrRecordNotFound):
		return notFound("%s not found", what)
	case errors.Is(err, models.ErrStaleRecord):
		return conflict("%s was modified concurrently, retry the request", what)
	default:
		return fmt.Errorf("failed to load %s: %w", what, err)
	}
}

// officerSummary is the public view of o
func officerSummary(o *models.Officer) models.OfficerSummary {
	return models.OfficerSummary{
		OfficerID:       o.OfficerID,
		Name:            o.Name,
		Designation:     o.Designation,
		Phone:           o.Phone.String,
		EscalationLevel: o.EscalationLevel,
		LevelName:       LevelName(o.EscalationLevel),
		DepartmentID:    o.DepartmentID,
		DepartmentName:  o.Department.Name,
	}
}

// primaryRole picks the role for a primary-chain assignment; it never yields the coordinator tag
func primaryRole(requested string, o *models.Officer) string {
	for _, role := range []string{strings.TrimSpace(requested), strings.TrimSpace(o.Designation)} {
		if role != "" && !strings.EqualFold(role, models.RoleCoordinator) {
			return role
		}
	}
	return LevelName(o.EscalationLevel)
}

// assignable rejects officers who cannot take custody
func assignable(o *models.Officer) error {
	if !o.IsActive {
		return validationFailed("officer %d is inactive", o.OfficerID)
	}
	if !o.Department.IsActive {
		return validationFailed("department %d of officer %d is inactive", o.DepartmentID, o.OfficerID)
	}
	return nil
}

func officerSummaries(officers []models.Officer) []models.OfficerSummary {
	out := make([]models.OfficerSummary, 0, len(officers))
	for i := range officers {
		out = append(out, officerSummary(&officers[i]))
	}
	return out
}

// requestingOfficer resolves the acting user to an officer profile
func requestingOfficer(ctx context.Context, r Reader, userID int64) (*models.Officer, error) {
	officer, err := r.GetOfficerByUserID(ctx, userID)
	if err != nil {
		return nil, translate(err, "officer profile")
	}
	if !officer.IsActive {
		return nil, unauthorized("officer profile is inactive")
	}
	return officer, nil
}

// custody is an incident together with the requesting officer's current primary assignment on it
type custody struct {
	incident   *models.Incident
	officer    *models.Officer
	assignment *models.Assignment
}

// loadCustody requires the requesting user to be the officer holding the incident's current primary assignment
func loadCustody(ctx context.Context, r Reader, incidentID, userID int64) (*custody, error) {
	officer, err := requestingOfficer(ctx, r, userID)
	if err != nil {
		return nil, err
	}
	incident, err := r.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, translate(err, "incident")
	}
	if !incident.CurrentAssignmentID.Valid {
		return nil, unauthorized("you are not assigned to this incident")
	}
	assignment, err := r.GetAssignment(ctx, incident.CurrentAssignmentID.Int64)
	if err != nil {
		return nil, translate(err, "current assignment")
	}
	if assignment.AssigneeOfficerID != officer.OfficerID || !assignment.IsCurrent {
		return nil, unauthorized("you are not assigned to this incident")
	}
	return &custody{incident: incident, officer: officer, assignment: assignment}, nil
}

// loadOrNewPriority returns the incident's priority record, or a fresh unsaved one
func loadOrNewPriority(ctx context.Context, r Reader, incidentID int64) (*models.IncidentPriority, error) {
	p, err := r.GetPriority(ctx, incidentID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return models.NewIncidentPriority(incidentID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load priority: %w", err)
	}
	return p, nil
}

// recordEvent appends a trigger, recomputes SLA then priority, adds the bonus and persists the record
func recordEvent(ctx context.Context, tx Tx, incident *models.Incident, trigger models.EscalationTrigger, bonus float64) (*models.IncidentPriority, error) {
	p, err := loadOrNewPriority(ctx, tx, incident.IncidentID)
	if err != nil {
		return nil, err
	}

	Recompute(p, incident.Snapshot(), trigger.TriggeredAt)
	applyBonus(p, bonus)
	if err := tx.SavePriority(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save priority: %w", err)
	}

	trigger.IncidentID = incident.IncidentID
	if err := tx.AppendTrigger(ctx, &trigger); err != nil {
		return nil, fmt.Errorf("failed to append escalation trigger: %w", err)
	}
	p.Triggers = append(p.Triggers, trigger)
	return p, nil
}

// updateIncident writes the incident under its version guard
func updateIncident(ctx context.Context, tx Tx, incident *models.Incident) error {
	if err := tx.UpdateIncident(ctx, incident); err != nil {
		if errors.Is(err, models.ErrStaleRecord) {
			return conflict("incident %d was modified concurrently, retry the request", incident.IncidentID)
		}
		return fmt.Errorf("failed to update incident: %w", err)
	}
	return nil
}

// createAssignment inserts a; a lost race on the current-primary guard is a conflict
func createAssignment(ctx context.Context, tx Tx, a *models.Assignment) error {
	if err := tx.CreateAssignment(ctx, a); err != nil {
		if errors.Is(err, models.ErrStaleRecord) {
			return conflict("incident %d already has a current assignment", a.IncidentID)
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}
