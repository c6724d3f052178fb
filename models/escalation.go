package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// EscalationType is the kind of hand-off requested by an officer
type EscalationType string

const (
	EscalationHierarchy          EscalationType = "HIERARCHY"
	EscalationInterdepartment    EscalationType = "INTERDEPARTMENT"
	EscalationManual             EscalationType = "MANUAL"
	EscalationSLABreach          EscalationType = "SLA_BREACH"
	EscalationSeverityUpgrade    EscalationType = "SEVERITY_UPGRADE"
	EscalationResourceConstraint EscalationType = "RESOURCE_CONSTRAINT"
)

// HierarchyLevel describes one rung of the officer escalation ladder
type HierarchyLevel struct {
	Level        int                 `json:"level"`
	NextLevel    int                 `json:"next_level"` // 0 = top of the ladder
	Description  string              `json:"description"`
	Jurisdiction string              `json:"jurisdiction"`
	MaxBudget    decimal.NullDecimal `json:"max_budget"` // NULL = unlimited
}

// HasNext reports whether officers at this level can escalate upwards
func (h HierarchyLevel) HasNext() bool {
	return h.NextLevel > 0
}

// OfficerSummary is the public view of an officer in responses
type OfficerSummary struct {
	OfficerID       int64  `json:"id"`
	Name            string `json:"name"`
	Designation     string `json:"designation"`
	Phone           string `json:"phone,omitempty"`
	EscalationLevel int    `json:"level"`
	LevelName       string `json:"level_name"`
	DepartmentID    int64  `json:"department_id"`
	DepartmentName  string `json:"department"`
}

// IncidentSummary is the public view of an incident in escalation responses
type IncidentSummary struct {
	IncidentID    int64               `json:"id"`
	Title         string              `json:"title"`
	CategoryID    string              `json:"category_id"`
	Severity      int                 `json:"severity"`
	Status        IncidentStatus      `json:"status"`
	EstimatedCost decimal.NullDecimal `json:"estimated_cost"`
	CreatedAt     time.Time           `json:"created_at"`
	EscalatedAt   *time.Time          `json:"escalated_at,omitempty"`
}

// TriggerSuggestion is a detected reason for escalation surfaced to the officer
type TriggerSuggestion struct {
	Type        TriggerType  `json:"type"`
	Description string       `json:"description"`
	Automatic   bool         `json:"automatic"`
	Priority    UrgencyLevel `json:"priority"`
}

// EscalationPath is one legal route out of the officer's current custody
type EscalationPath struct {
	Type              EscalationType   `json:"type"`
	Description       string           `json:"description"`
	TargetLevel       int              `json:"target_level"`
	TargetLevelName   string           `json:"target_level_name"`
	AvailableOfficers []OfficerSummary `json:"available_officers"`
}

// EscalationPaths is the result of GetEscalationPaths
type EscalationPaths struct {
	Incident        IncidentSummary     `json:"incident"`
	CurrentOfficer  OfficerSummary      `json:"current_officer"`
	EscalationPaths []EscalationPath    `json:"escalation_paths"`
	Triggers        []TriggerSuggestion `json:"escalation_triggers"`
	Hierarchy       HierarchyLevel      `json:"hierarchy"`
}

// EscalateRequest is the body of an escalation request
type EscalateRequest struct {
	TargetOfficerID      int64          `json:"target_officer_id"`
	EscalationType       EscalationType `json:"escalation_type"`
	Reason               string         `json:"reason"`
	AttemptedSolutions   string         `json:"attempted_solutions,omitempty"`
	UrgencyJustification string         `json:"urgency_justification,omitempty"`
}

// EscalationRecord is the result of a successful escalation
type EscalationRecord struct {
	Reference       string         `json:"reference"`
	IncidentID      int64          `json:"incident_id"`
	FromOfficer     OfficerSummary `json:"from_officer"`
	ToOfficer       OfficerSummary `json:"to_officer"`
	EscalationType  EscalationType `json:"escalation_type"`
	Reason          string         `json:"reason"`
	EscalatedAt     time.Time      `json:"escalated_at"`
	NewAssignmentID int64          `json:"new_assignment_id"`
	PriorityScore   float64        `json:"priority_score"`
	UrgencyLevel    UrgencyLevel   `json:"urgency_level"`
}

// TrailStep is one entry of the ordered escalation trail
type TrailStep struct {
	Step              int                `json:"step"`
	Assignment        Assignment         `json:"assignment"`
	Officer           OfficerSummary     `json:"officer"`
	AssignedByUserID  int64              `json:"assigned_by_user_id"`
	EscalationTrigger *EscalationTrigger `json:"escalation_trigger,omitempty"`
}

// EscalationHistory is the result of GetEscalationHistory
type EscalationHistory struct {
	IncidentID   int64               `json:"incident_id"`
	Trail        []TrailStep         `json:"escalation_trail"`
	Triggers     []EscalationTrigger `json:"escalation_triggers"`
	CurrentLevel int                 `json:"current_level"`
}

// PendingFilter narrows GetPendingEscalations
type PendingFilter struct {
	DepartmentID int64
	Urgency      UrgencyLevel
}

// Page is a 1-based page request
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page request to sane bounds
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

// Bounds returns the slice window for a normalized page over total items; pages past the end are empty
func (p Page) Bounds(total int) (start, end int) {
	if p.Page-1 >= (total+p.Limit-1)/p.Limit {
		return total, total
	}
	start = (p.Page - 1) * p.Limit
	end = start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}

// PaginationFor describes a normalized page over total items
func (p Page) PaginationFor(total int) Pagination {
	_, end := p.Bounds(total)
	return Pagination{
		CurrentPage: p.Page,
		TotalPages:  (total + p.Limit - 1) / p.Limit,
		TotalCount:  total,
		HasNext:     end < total,
		HasPrev:     p.Page > 1,
	}
}

// Pagination describes a returned page
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// PrioritySummary is the compact priority view used in work queues
type PrioritySummary struct {
	Score        float64             `json:"score"`
	UrgencyLevel UrgencyLevel        `json:"urgency_level"`
	SLADeadline  time.Time           `json:"sla_deadline"`
	SLABreached  bool                `json:"sla_breached"`
	Triggers     []EscalationTrigger `json:"escalation_triggers"`
}

// PendingEscalation is one work-queue entry
type PendingEscalation struct {
	AssignmentID   int64            `json:"assignment_id"`
	AssignedAt     time.Time        `json:"assigned_at"`
	CurrentOfficer OfficerSummary   `json:"current_officer"`
	Priority       *PrioritySummary `json:"priority"`
	Incident       IncidentSummary  `json:"incident"`
}

// PendingEscalations is the paginated result of GetPendingEscalations
type PendingEscalations struct {
	Incidents  []PendingEscalation `json:"incidents"`
	Pagination Pagination          `json:"pagination"`
	Officer    OfficerSummary      `json:"officer"`
}

// AssignmentStatusRequest moves an assignment along its lifecycle
type AssignmentStatusRequest struct {
	Status AssignmentStatus `json:"status"`
	Notes  string           `json:"notes"`
}

// DispatchRequest creates the first primary assignment for an incident
type DispatchRequest struct {
	OfficerID int64  `json:"officer_id"`
	Role      string `json:"role"`
}

// DispatchResult is the result of a dispatch
type DispatchResult struct {
	IncidentID   int64           `json:"incident_id"`
	AssignmentID int64           `json:"assignment_id"`
	Officer      OfficerSummary  `json:"officer"`
	Priority     PrioritySummary `json:"priority"`
}

// nullTimePtr converts a nullable timestamp for JSON responses
func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Summary returns the public view of the incident
func (i *Incident) Summary() IncidentSummary {
	return IncidentSummary{
		IncidentID:    i.IncidentID,
		Title:         i.Title,
		CategoryID:    i.CategoryID,
		Severity:      i.Severity,
		Status:        i.Status,
		EstimatedCost: i.EstimatedCost,
		CreatedAt:     i.CreatedAt,
		EscalatedAt:   nullTimePtr(i.EscalatedAt),
	}
}

// Summary returns the compact priority view
func (p *IncidentPriority) Summary() PrioritySummary {
	triggers := p.Triggers
	if triggers == nil {
		triggers = []EscalationTrigger{}
	}
	return PrioritySummary{
		Score:        p.PriorityScore,
		UrgencyLevel: p.UrgencyLevel,
		SLADeadline:  p.SLADeadline,
		SLABreached:  p.SLABreached,
		Triggers:     triggers,
	}
}
