package repository

import (
	"context"
	"fmt"

	"civicreport/models"
)

const departmentColumns = `
	department_id, name, code, description, hierarchy_level, parent_id, max_budget, is_active, created_at`

func scanDepartment(row rowScanner) (*models.Department, error) {
	var d models.Department
	err := row.Scan(
		&d.DepartmentID,
		&d.Name,
		&d.Code,
		&d.Description,
		&d.HierarchyLevel,
		&d.ParentID,
		&d.MaxBudget,
		&d.IsActive,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDepartment retrieves a department by ID, active or not
func (r queries) GetDepartment(ctx context.Context, departmentID int64) (*models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE department_id = ?`
	d, err := scanDepartment(r.q.QueryRowContext(ctx, query, departmentID))
	if err != nil {
		return nil, notFound(err, "department", departmentID)
	}
	return d, nil
}

// ListActiveDepartments returns active departments among ids, or every active department when ids is empty
func (r queries) ListActiveDepartments(ctx context.Context, ids []int64) ([]models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE is_active = TRUE`
	args := make([]interface{}, 0, len(ids))
	if len(ids) > 0 {
		query += ` AND department_id IN (` + inPlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += ` ORDER BY department_id ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	var departments []models.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, *d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating departments: %w", err)
	}
	return departments, nil
}

// CreateDepartment inserts a department node of the jurisdiction tree
func (r queries) CreateDepartment(ctx context.Context, d *models.Department) error {
	if d.HierarchyLevel == 0 {
		d.HierarchyLevel = models.HierarchyVillage
	}
	query := `
		INSERT INTO departments (name, code, description, hierarchy_level, parent_id, max_budget, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.q.ExecContext(ctx, query,
		d.Name, d.Code, d.Description, d.HierarchyLevel, d.ParentID, d.MaxBudget, d.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to insert department %s: %w", d.Code, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get department ID: %w", err)
	}
	d.DepartmentID = id
	return nil
}
