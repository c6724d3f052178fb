package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// IncidentStatus represents the lifecycle status of an incident
type IncidentStatus string

const (
	IncidentNew          IncidentStatus = "NEW"
	IncidentAssigned     IncidentStatus = "ASSIGNED"
	IncidentEscalated    IncidentStatus = "ESCALATED"
	IncidentCoordinating IncidentStatus = "COORDINATING"
	IncidentResolved     IncidentStatus = "RESOLVED"
	IncidentClosed       IncidentStatus = "CLOSED"
)

// Incident represents a reported civic issue.
// CurrentAssignmentID is the single current pointer of the primary handling chain;
// Version guards every write to the row.
type Incident struct {
	IncidentID              int64               `db:"incident_id" json:"incident_id"`
	Title                   string              `db:"title" json:"title"`
	Description             string              `db:"description" json:"description"`
	CategoryID              string              `db:"category_id" json:"category_id"`
	Severity                int                 `db:"severity" json:"severity"`
	EstimatedCost           decimal.NullDecimal `db:"estimated_cost" json:"estimated_cost"`
	Status                  IncidentStatus      `db:"status" json:"status"`
	ReportedByUserID        sql.NullInt64       `db:"reported_by_user_id" json:"reported_by_user_id"`
	CurrentAssignmentID     sql.NullInt64       `db:"current_assignment_id" json:"current_assignment_id"`
	EscalatedAt             sql.NullTime        `db:"escalated_at" json:"escalated_at"`
	EscalatedFrom           sql.NullInt64       `db:"escalated_from" json:"escalated_from"`
	EscalatedTo             sql.NullInt64       `db:"escalated_to" json:"escalated_to"`
	CoordinatingDepartments []int64             `db:"coordinating_departments" json:"coordinating_departments"`
	CoordinationInitiatedBy sql.NullInt64       `db:"coordination_initiated_by" json:"coordination_initiated_by"`
	CoordinationInitiatedAt sql.NullTime        `db:"coordination_initiated_at" json:"coordination_initiated_at"`
	ResolvedAt              sql.NullTime        `db:"resolved_at" json:"resolved_at"`
	Version                 int64               `db:"version" json:"-"`
	CreatedAt               time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt               sql.NullTime        `db:"updated_at" json:"updated_at"`
}

// IncidentSnapshot is the read-only view the priority engine consumes
type IncidentSnapshot struct {
	ID            int64
	CategoryID    string
	Severity      int
	CreatedAt     time.Time
	EstimatedCost decimal.NullDecimal
}

// Snapshot returns the engine view of the incident
func (i *Incident) Snapshot() IncidentSnapshot {
	return IncidentSnapshot{
		ID:            i.IncidentID,
		CategoryID:    i.CategoryID,
		Severity:      i.Severity,
		CreatedAt:     i.CreatedAt,
		EstimatedCost: i.EstimatedCost,
	}
}

// IsOpen reports whether the incident is still being worked on
func (i *Incident) IsOpen() bool {
	return i.Status != IncidentResolved && i.Status != IncidentClosed
}
