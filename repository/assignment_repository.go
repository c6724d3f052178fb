package repository

import (
	"context"
	"fmt"
	"time"

	"civicreport/models"
)

const assignmentColumns = `
	a.assignment_id, a.incident_id, a.assignee_officer_id, a.assigned_by_user_id, a.role, a.status,
	a.is_current, a.started_at, a.resolved_at, a.notes, a.coordination_type, a.coordination_message,
	a.created_at`

func scanAssignment(row rowScanner) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(
		&a.AssignmentID,
		&a.IncidentID,
		&a.AssigneeOfficerID,
		&a.AssignedByUserID,
		&a.Role,
		&a.Status,
		&a.IsCurrent,
		&a.StartedAt,
		&a.ResolvedAt,
		&a.Notes,
		&a.CoordinationType,
		&a.CoordinationMessage,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r queries) listAssignments(ctx context.Context, query string, args ...interface{}) ([]models.Assignment, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}

// GetAssignment retrieves an assignment by ID
func (r queries) GetAssignment(ctx context.Context, assignmentID int64) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments a WHERE a.assignment_id = ?`
	a, err := scanAssignment(r.q.QueryRowContext(ctx, query, assignmentID))
	if err != nil {
		return nil, notFound(err, "assignment", assignmentID)
	}
	return a, nil
}

// ListAssignmentsByIncident returns the full custody trail of an incident, oldest first
func (r queries) ListAssignmentsByIncident(ctx context.Context, incidentID int64) ([]models.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments a
		WHERE a.incident_id = ?
		ORDER BY a.started_at ASC, a.assignment_id ASC
	`
	return r.listAssignments(ctx, query, incidentID)
}

// ListCurrentAssignments returns current primary assignments matching filter
func (r queries) ListCurrentAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments a
		JOIN officers o ON o.officer_id = a.assignee_officer_id
		WHERE a.is_current = TRUE AND a.role <> ?
	`
	args := []interface{}{models.RoleCoordinator}

	if filter.Status != "" {
		query += ` AND a.status = ?`
		args = append(args, filter.Status)
	}
	if filter.MaxAssigneeLevel > 0 {
		query += ` AND o.escalation_level <= ?`
		args = append(args, filter.MaxAssigneeLevel)
	}
	if filter.AssigneeDepartment > 0 {
		query += ` AND o.department_id = ?`
		args = append(args, filter.AssigneeDepartment)
	}
	if filter.AssigneeOfficerID > 0 {
		query += ` AND a.assignee_officer_id = ?`
		args = append(args, filter.AssigneeOfficerID)
	}
	query += ` ORDER BY a.assignment_id ASC`

	return r.listAssignments(ctx, query, args...)
}

// CreateAssignment appends a custody record. A second current primary assignment for the
// same incident violates the unique guard and is reported as models.ErrStaleRecord.
func (r queries) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.StartedAt
	}
	query := `
		INSERT INTO assignments (
			incident_id, assignee_officer_id, assigned_by_user_id, role, status, is_current,
			started_at, resolved_at, notes, coordination_type, coordination_message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.q.ExecContext(ctx, query,
		a.IncidentID,
		a.AssigneeOfficerID,
		a.AssignedByUserID,
		a.Role,
		a.Status,
		a.IsCurrent,
		a.StartedAt,
		a.ResolvedAt,
		a.Notes,
		a.CoordinationType,
		a.CoordinationMessage,
		a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("incident %d already has a current assignment: %w", a.IncidentID, models.ErrStaleRecord)
		}
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get assignment ID: %w", err)
	}
	a.AssignmentID = id
	return nil
}

// SupersedeAssignment retires a current assignment when a new one takes over
func (r queries) SupersedeAssignment(ctx context.Context, assignmentID int64, resolvedAt time.Time, note string) error {
	query := `
		UPDATE assignments
		SET is_current = FALSE, resolved_at = ?, notes = ?
		WHERE assignment_id = ? AND is_current = TRUE
	`
	result, err := r.q.ExecContext(ctx, query, resolvedAt, note, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to supersede assignment %d: %w", assignmentID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("assignment %d is not current: %w", assignmentID, models.ErrStaleRecord)
	}
	return nil
}

// UpdateAssignmentStatus writes the lifecycle columns of an assignment
func (r queries) UpdateAssignmentStatus(ctx context.Context, a *models.Assignment) error {
	query := `
		UPDATE assignments
		SET status = ?, resolved_at = ?, notes = ?, is_current = ?
		WHERE assignment_id = ?
	`
	result, err := r.q.ExecContext(ctx, query, a.Status, a.ResolvedAt, a.Notes, a.IsCurrent, a.AssignmentID)
	if err != nil {
		return fmt.Errorf("failed to update assignment %d: %w", a.AssignmentID, err)
	}
	if _, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	return nil
}
