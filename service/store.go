package service

import (
	"context"
	"time"

	"civicreport/models"
)

// Reader is the read side of the persistence layer.
// Lookups of a missing row return an error wrapping models.ErrRecordNotFound.
type Reader interface {
	GetIncident(ctx context.Context, incidentID int64) (*models.Incident, error)

	GetOfficerByID(ctx context.Context, officerID int64) (*models.Officer, error)
	GetOfficerByUserID(ctx context.Context, userID int64) (*models.Officer, error)
	// ListActiveOfficers orders by escalation_level, officer_id
	ListActiveOfficers(ctx context.Context, filter models.OfficerFilter) ([]models.Officer, error)

	GetDepartment(ctx context.Context, departmentID int64) (*models.Department, error)
	// ListActiveDepartments returns active departments among ids (all active departments when ids is empty), ordered by id
	ListActiveDepartments(ctx context.Context, ids []int64) ([]models.Department, error)

	// GetPriority returns the record with its trigger log in insertion order
	GetPriority(ctx context.Context, incidentID int64) (*models.IncidentPriority, error)
	ListPrioritiesWithIncidents(ctx context.Context) ([]models.PriorityWithIncident, error)
	ListTriggers(ctx context.Context, incidentID int64) ([]models.EscalationTrigger, error)

	GetAssignment(ctx context.Context, assignmentID int64) (*models.Assignment, error)
	// ListAssignmentsByIncident returns the full trail ordered by creation
	ListAssignmentsByIncident(ctx context.Context, incidentID int64) ([]models.Assignment, error)
	// ListCurrentAssignments returns current primary (non-coordinator) assignments
	ListCurrentAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
}

// Tx is a unit of work; every write of one workflow goes through the same Tx
type Tx interface {
	Reader

	// CreateAssignment inserts a and sets a.AssignmentID
	CreateAssignment(ctx context.Context, a *models.Assignment) error
	// SupersedeAssignment clears is_current, stamps resolved_at and replaces notes on a current assignment;
	// models.ErrStaleRecord if it was no longer current
	SupersedeAssignment(ctx context.Context, assignmentID int64, resolvedAt time.Time, note string) error
	// UpdateAssignmentStatus writes status, resolved_at, notes and is_current
	UpdateAssignmentStatus(ctx context.Context, a *models.Assignment) error
	// UpdateIncident writes the mutable incident columns guarded by inc.Version and bumps it;
	// models.ErrStaleRecord if the row changed since it was read
	UpdateIncident(ctx context.Context, inc *models.Incident) error
	// SavePriority inserts when PriorityID is zero, updates otherwise
	SavePriority(ctx context.Context, p *models.IncidentPriority) error
	// AppendTrigger adds one entry to the trigger log and sets t.TriggerID
	AppendTrigger(ctx context.Context, t *models.EscalationTrigger) error
}

// Store is the persistence layer consumed by the services
type Store interface {
	Reader

	// WithinTx runs fn in a transaction, committing when fn returns nil
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	// UpdateComputedPriority rewrites only the calculator-owned columns of one record
	UpdateComputedPriority(ctx context.Context, p *models.IncidentPriority) error
}
