package models

import (
	"database/sql"
	"time"
)

// AssignmentStatus represents the progress of one custody record
type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "ASSIGNED"
	AssignmentAccepted   AssignmentStatus = "ACCEPTED"
	AssignmentInProgress AssignmentStatus = "IN_PROGRESS"
	AssignmentCompleted  AssignmentStatus = "COMPLETED"
	AssignmentRejected   AssignmentStatus = "REJECTED"
)

// RoleCoordinator tags parallel coordination assignments
const RoleCoordinator = "COORDINATOR"

// Assignment is one officer's custody of one incident over an interval (immutable trail entry)
type Assignment struct {
	AssignmentID        int64            `db:"assignment_id" json:"assignment_id"`
	IncidentID          int64            `db:"incident_id" json:"incident_id"`
	AssigneeOfficerID   int64            `db:"assignee_officer_id" json:"assignee_officer_id"`
	AssignedByUserID    int64            `db:"assigned_by_user_id" json:"assigned_by_user_id"`
	Role                string           `db:"role" json:"role"`
	Status              AssignmentStatus `db:"status" json:"status"`
	IsCurrent           bool             `db:"is_current" json:"is_current"`
	StartedAt           time.Time        `db:"started_at" json:"started_at"`
	ResolvedAt          sql.NullTime     `db:"resolved_at" json:"resolved_at"`
	Notes               sql.NullString   `db:"notes" json:"notes"`
	CoordinationType    sql.NullString   `db:"coordination_type" json:"coordination_type,omitempty"`
	CoordinationMessage sql.NullString   `db:"coordination_message" json:"coordination_message,omitempty"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
}

// IsCoordinator reports whether the assignment belongs to the parallel coordination set
func (a *Assignment) IsCoordinator() bool {
	return a.Role == RoleCoordinator
}

// AssignmentFilter narrows ListCurrentAssignments (primary chain only)
type AssignmentFilter struct {
	Status             AssignmentStatus
	MaxAssigneeLevel   int
	AssigneeDepartment int64
	AssigneeOfficerID  int64
}
