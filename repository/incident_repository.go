package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"civicreport/models"
)

const incidentColumns = `
	incident_id, title, description, category_id, severity, estimated_cost, status,
	reported_by_user_id, current_assignment_id, escalated_at, escalated_from, escalated_to,
	coordinating_departments, coordination_initiated_by, coordination_initiated_at,
	resolved_at, version, created_at, updated_at`

func scanIncident(row rowScanner) (*models.Incident, error) {
	var inc models.Incident
	var coordinating sql.NullString
	err := row.Scan(
		&inc.IncidentID,
		&inc.Title,
		&inc.Description,
		&inc.CategoryID,
		&inc.Severity,
		&inc.EstimatedCost,
		&inc.Status,
		&inc.ReportedByUserID,
		&inc.CurrentAssignmentID,
		&inc.EscalatedAt,
		&inc.EscalatedFrom,
		&inc.EscalatedTo,
		&coordinating,
		&inc.CoordinationInitiatedBy,
		&inc.CoordinationInitiatedAt,
		&inc.ResolvedAt,
		&inc.Version,
		&inc.CreatedAt,
		&inc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if coordinating.Valid && coordinating.String != "" {
		if err := json.Unmarshal([]byte(coordinating.String), &inc.CoordinatingDepartments); err != nil {
			return nil, fmt.Errorf("failed to decode coordinating_departments of incident %d: %w", inc.IncidentID, err)
		}
	}
	return &inc, nil
}

func encodeDepartmentIDs(ids []int64) (sql.NullString, error) {
	if ids == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode coordinating departments: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// GetIncident retrieves an incident by ID
func (r queries) GetIncident(ctx context.Context, incidentID int64) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE incident_id = ?`
	inc, err := scanIncident(r.q.QueryRowContext(ctx, query, incidentID))
	if err != nil {
		return nil, notFound(err, "incident", incidentID)
	}
	return inc, nil
}

// CreateIncident inserts an incident reported by the intake system. Zero values get
// the intake defaults: status NEW, severity 1, version 1, created now.
func (r queries) CreateIncident(ctx context.Context, inc *models.Incident) error {
	if inc.Status == "" {
		inc.Status = models.IncidentNew
	}
	if inc.Severity == 0 {
		inc.Severity = 1
	}
	if inc.CreatedAt.IsZero() {
		inc.CreatedAt = r.now().UTC()
	}
	inc.Version = 1

	coordinating, err := encodeDepartmentIDs(inc.CoordinatingDepartments)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO incidents (
			title, description, category_id, severity, estimated_cost, status,
			reported_by_user_id, coordinating_departments, version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.q.ExecContext(ctx, query,
		inc.Title,
		inc.Description,
		inc.CategoryID,
		inc.Severity,
		inc.EstimatedCost,
		inc.Status,
		inc.ReportedByUserID,
		coordinating,
		inc.Version,
		inc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert incident: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get incident ID: %w", err)
	}
	inc.IncidentID = id
	return nil
}

// UpdateIncident writes the workflow-owned columns guarded by the optimistic version
func (r queries) UpdateIncident(ctx context.Context, inc *models.Incident) error {
	coordinating, err := encodeDepartmentIDs(inc.CoordinatingDepartments)
	if err != nil {
		return err
	}

	now := r.now().UTC()
	query := `
		UPDATE incidents SET
			status = ?,
			current_assignment_id = ?,
			escalated_at = ?,
			escalated_from = ?,
			escalated_to = ?,
			coordinating_departments = ?,
			coordination_initiated_by = ?,
			coordination_initiated_at = ?,
			resolved_at = ?,
			version = version + 1,
			updated_at = ?
		WHERE incident_id = ? AND version = ?
	`
	result, err := r.q.ExecContext(ctx, query,
		inc.Status,
		inc.CurrentAssignmentID,
		inc.EscalatedAt,
		inc.EscalatedFrom,
		inc.EscalatedTo,
		coordinating,
		inc.CoordinationInitiatedBy,
		inc.CoordinationInitiatedAt,
		inc.ResolvedAt,
		now,
		inc.IncidentID,
		inc.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident %d: %w", inc.IncidentID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("incident %d at version %d: %w", inc.IncidentID, inc.Version, models.ErrStaleRecord)
	}

	inc.Version++
	inc.UpdatedAt = sql.NullTime{Time: now, Valid: true}
	return nil
}
