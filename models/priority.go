package models

import (
	"database/sql"
	"strings"
	"time"
)

// UrgencyLevel is the discrete tier derived from a priority score
type UrgencyLevel string

const (
	UrgencyLow       UrgencyLevel = "LOW"
	UrgencyMedium    UrgencyLevel = "MEDIUM"
	UrgencyHigh      UrgencyLevel = "HIGH"
	UrgencyCritical  UrgencyLevel = "CRITICAL"
	UrgencyEmergency UrgencyLevel = "EMERGENCY"
)

// ParseUrgencyLevel returns the urgency level for a case-insensitive name
func ParseUrgencyLevel(s string) (UrgencyLevel, bool) {
	switch UrgencyLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case UrgencyLow:
		return UrgencyLow, true
	case UrgencyMedium:
		return UrgencyMedium, true
	case UrgencyHigh:
		return UrgencyHigh, true
	case UrgencyCritical:
		return UrgencyCritical, true
	case UrgencyEmergency:
		return UrgencyEmergency, true
	}
	return "", false
}

// TriggerType identifies why an incident was escalated or coordinated
type TriggerType string

const (
	TriggerSLABreach                  TriggerType = "SLA_BREACH"
	TriggerManual                     TriggerType = "MANUAL"
	TriggerSeverityUpgrade            TriggerType = "SEVERITY_UPGRADE"
	TriggerResourceConstraint         TriggerType = "RESOURCE_CONSTRAINT"
	TriggerInterdepartment            TriggerType = "INTERDEPARTMENT"
	TriggerHierarchy                  TriggerType = "HIERARCHY"
	TriggerInterdepartmentCoordinated TriggerType = "INTERDEPARTMENT_COORDINATION"
)

// EscalationTrigger is one entry of the append-only trigger log
type EscalationTrigger struct {
	TriggerID   int64         `db:"trigger_id" json:"trigger_id"`
	IncidentID  int64         `db:"incident_id" json:"incident_id"`
	Trigger     TriggerType   `db:"trigger_type" json:"trigger"`
	TriggeredAt time.Time     `db:"triggered_at" json:"triggered_at"`
	TriggeredBy sql.NullInt64 `db:"triggered_by" json:"triggered_by"`
	Reason      string        `db:"reason" json:"reason"`
}

// IncidentPriority is the per-incident SLA and priority record.
// PriorityScore = base formula + BonusScore; BonusScore only grows with escalation and coordination events.
type IncidentPriority struct {
	PriorityID        int64               `db:"priority_id" json:"priority_id"`
	IncidentID        int64               `db:"incident_id" json:"incident_id"`
	SLADeadline       time.Time           `db:"sla_deadline" json:"sla_deadline"`
	TimeToDeadline    int64               `db:"time_to_deadline" json:"time_to_deadline"`
	SLABreached       bool                `db:"sla_breached" json:"sla_breached"`
	CategoryPriority  int                 `db:"category_priority" json:"category_priority"`
	Severity          int                 `db:"-" json:"severity"`
	PriorityScore     float64             `db:"priority_score" json:"priority_score"`
	BonusScore        float64             `db:"bonus_score" json:"bonus_score"`
	UrgencyLevel      UrgencyLevel        `db:"urgency_level" json:"urgency_level"`
	SignatureWeight   float64             `db:"signature_weight" json:"signature_weight"`
	UpvoteWeight      float64             `db:"upvote_weight" json:"upvote_weight"`
	DaysSinceReported int                 `db:"days_since_reported" json:"days_since_reported"`
	IsOverdue         bool                `db:"is_overdue" json:"is_overdue"`
	Triggers          []EscalationTrigger `db:"-" json:"escalation_triggers"`
	CreatedAt         time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt         sql.NullTime        `db:"updated_at" json:"updated_at"`
}

// NewIncidentPriority returns an empty record for an incident with the documented defaults
func NewIncidentPriority(incidentID int64) *IncidentPriority {
	return &IncidentPriority{
		IncidentID:       incidentID,
		CategoryPriority: 3,
		UrgencyLevel:     UrgencyMedium,
		Triggers:         []EscalationTrigger{},
	}
}

// PriorityWithIncident pairs a priority record with the incident it scores (sweep input)
type PriorityWithIncident struct {
	Priority IncidentPriority
	Incident IncidentSnapshot
}

// SweepResult reports one batch recompute
type SweepResult struct {
	Total     int           `json:"total"`
	Updated   int           `json:"updated"`
	Failed    int           `json:"failed"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	FailedIDs []int64       `json:"failed_incident_ids,omitempty"`
}

// CommunitySupportRequest sets externally supplied support counters
type CommunitySupportRequest struct {
	SignatureWeight float64 `json:"signature_weight"`
	UpvoteWeight    float64 `json:"upvote_weight"`
}
