package repository

import (
	"context"
	"fmt"

	"civicreport/models"
)

// officerSelect always joins the department so Officer.Department is populated
const officerSelect = `
	SELECT
		o.officer_id, o.user_id, o.department_id, o.name, o.phone, o.designation,
		o.employee_id, o.jurisdiction_id, o.escalation_level, o.is_active, o.created_at,
		d.department_id, d.name, d.code, d.description, d.hierarchy_level, d.parent_id,
		d.max_budget, d.is_active, d.created_at
	FROM officers o
	JOIN departments d ON d.department_id = o.department_id`

func scanOfficer(row rowScanner) (*models.Officer, error) {
	var o models.Officer
	err := row.Scan(
		&o.OfficerID,
		&o.UserID,
		&o.DepartmentID,
		&o.Name,
		&o.Phone,
		&o.Designation,
		&o.EmployeeID,
		&o.JurisdictionID,
		&o.EscalationLevel,
		&o.IsActive,
		&o.CreatedAt,
		&o.Department.DepartmentID,
		&o.Department.Name,
		&o.Department.Code,
		&o.Department.Description,
		&o.Department.HierarchyLevel,
		&o.Department.ParentID,
		&o.Department.MaxBudget,
		&o.Department.IsActive,
		&o.Department.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOfficerByID retrieves an officer with its department
func (r queries) GetOfficerByID(ctx context.Context, officerID int64) (*models.Officer, error) {
	o, err := scanOfficer(r.q.QueryRowContext(ctx, officerSelect+` WHERE o.officer_id = ?`, officerID))
	if err != nil {
		return nil, notFound(err, "officer", officerID)
	}
	return o, nil
}

// GetOfficerByUserID retrieves the officer profile of an authenticated user
func (r queries) GetOfficerByUserID(ctx context.Context, userID int64) (*models.Officer, error) {
	o, err := scanOfficer(r.q.QueryRowContext(ctx, officerSelect+` WHERE o.user_id = ?`, userID))
	if err != nil {
		return nil, notFound(err, "officer for user", userID)
	}
	return o, nil
}

// ListActiveOfficers returns active officers of active departments matching filter,
// ordered by escalation level then officer ID
func (r queries) ListActiveOfficers(ctx context.Context, filter models.OfficerFilter) ([]models.Officer, error) {
	query := officerSelect + ` WHERE o.is_active = TRUE AND d.is_active = TRUE`
	var args []interface{}

	if len(filter.DepartmentIDs) > 0 {
		query += ` AND o.department_id IN (` + inPlaceholders(len(filter.DepartmentIDs)) + `)`
		for _, id := range filter.DepartmentIDs {
			args = append(args, id)
		}
	}
	if filter.ExcludeDepartmentID > 0 {
		query += ` AND o.department_id <> ?`
		args = append(args, filter.ExcludeDepartmentID)
	}
	if filter.EscalationLevel > 0 {
		query += ` AND o.escalation_level = ?`
		args = append(args, filter.EscalationLevel)
	}
	if filter.MinEscalationLevel > 0 {
		query += ` AND o.escalation_level >= ?`
		args = append(args, filter.MinEscalationLevel)
	}
	query += ` ORDER BY o.escalation_level ASC, o.officer_id ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query officers: %w", err)
	}
	defer rows.Close()

	var officers []models.Officer
	for rows.Next() {
		o, err := scanOfficer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan officer: %w", err)
		}
		officers = append(officers, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating officers: %w", err)
	}
	return officers, nil
}

// CreateOfficer inserts an officer profile; the department must already exist
func (r queries) CreateOfficer(ctx context.Context, o *models.Officer) error {
	if o.EscalationLevel == 0 {
		o.EscalationLevel = models.LevelField
	}
	query := `
		INSERT INTO officers (
			user_id, department_id, name, phone, designation, employee_id,
			jurisdiction_id, escalation_level, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.q.ExecContext(ctx, query,
		o.UserID,
		o.DepartmentID,
		o.Name,
		o.Phone,
		o.Designation,
		o.EmployeeID,
		o.JurisdictionID,
		o.EscalationLevel,
		o.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to insert officer for user %d: %w", o.UserID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get officer ID: %w", err)
	}
	o.OfficerID = id
	return nil
}
