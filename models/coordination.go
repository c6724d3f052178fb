package models

import "time"

// CoordinationType classifies an inter-department coordination request
type CoordinationType string

const (
	CoordinationGeneral   CoordinationType = "GENERAL"
	CoordinationResource  CoordinationType = "RESOURCE"
	CoordinationTechnical CoordinationType = "TECHNICAL"
	CoordinationEmergency CoordinationType = "EMERGENCY"
	CoordinationPolicy    CoordinationType = "POLICY"
)

// CoordinateRequest is the body of a coordination request
type CoordinateRequest struct {
	IncidentID        int64            `json:"incident_id"`
	TargetDepartments []int64          `json:"target_departments"`
	CoordinationType  CoordinationType `json:"coordination_type"`
	Message           string           `json:"message"`
	UrgencyLevel      UrgencyLevel     `json:"urgency_level"`
}

// DepartmentSummary is the public view of a department
type DepartmentSummary struct {
	DepartmentID   int64  `json:"id"`
	Name           string `json:"name"`
	Code           string `json:"code"`
	HierarchyLevel int    `json:"hierarchy_level"`
}

// CoordinatorAssignment is one COORDINATOR assignment created by a coordination request
type CoordinatorAssignment struct {
	AssignmentID int64             `json:"assignment_id"`
	Officer      OfficerSummary    `json:"officer"`
	Department   DepartmentSummary `json:"department"`
}

// CoordinationRecord is the result of CoordinateWithDepartments
type CoordinationRecord struct {
	Reference               string                  `json:"reference"`
	IncidentID              int64                   `json:"incident_id"`
	CoordinationType        CoordinationType        `json:"coordination_type"`
	UrgencyLevel            UrgencyLevel            `json:"urgency_level"`
	RequiredLevel           int                     `json:"required_level"`
	InitiatingOfficer       OfficerSummary          `json:"initiating_officer"`
	CoordinatedDepartments  []DepartmentSummary     `json:"coordinated_departments"`
	Assignments             []CoordinatorAssignment `json:"assignments"`
	CoordinationInitiatedAt time.Time               `json:"coordination_initiated_at"`
	PriorityScore           float64                 `json:"priority_score"`
}

// CoordinatorStatus is one coordinator's progress
type CoordinatorStatus struct {
	AssignmentID     int64            `json:"assignment_id"`
	Status           AssignmentStatus `json:"status"`
	AssignedAt       time.Time        `json:"assigned_at"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty"`
	CoordinationType string           `json:"coordination_type"`
	Message          string           `json:"message"`
	Coordinator      OfficerSummary   `json:"coordinator"`
	AssignedByUserID int64            `json:"assigned_by_user_id"`
}

// CoordinationMetrics aggregates coordinator progress for one incident
type CoordinationMetrics struct {
	TotalCoordinators     int `json:"total_coordinators"`
	ActiveCoordinators    int `json:"active_coordinators"`
	CompletedCoordinators int `json:"completed_coordinators"`
	DepartmentsInvolved   int `json:"departments_involved"`
}

// CoordinationStatus is the result of GetCoordinationStatus
type CoordinationStatus struct {
	Incident                IncidentSummary     `json:"incident"`
	CoordinationInitiatedAt *time.Time          `json:"coordination_initiated_at,omitempty"`
	CoordinationInitiatedBy *int64              `json:"coordination_initiated_by,omitempty"`
	Coordinators            []CoordinatorStatus `json:"coordination_status"`
	Metrics                 CoordinationMetrics `json:"metrics"`
	CoordinatingDepartments []int64             `json:"coordinating_departments"`
}

// LevelOfficerCounts counts active officers per escalation level
type LevelOfficerCounts struct {
	Field int `json:"field"`
	Nodal int `json:"nodal"`
	Head  int `json:"head"`
}

// JurisdictionLevelStats groups departments of one hierarchy level
type JurisdictionLevelStats struct {
	HierarchyLevel int                 `json:"hierarchy_level"`
	Jurisdiction   string              `json:"jurisdiction"`
	Departments    []DepartmentSummary `json:"departments"`
	TotalOfficers  int                 `json:"total_officers"`
	ByLevel        LevelOfficerCounts  `json:"officers_by_escalation_level"`
}

// GovernmentStructure is the result of GetGovernmentStructure
type GovernmentStructure struct {
	CurrentOfficer OfficerSummary           `json:"current_officer"`
	Department     DepartmentSummary        `json:"department"`
	Hierarchy      []HierarchyLevel         `json:"hierarchy"`
	Levels         []JurisdictionLevelStats `json:"levels"`
}

// JurisdictionFilter narrows GetJurisdictionIncidents. With no department and no cross-department
// flag the requester's own department is listed.
type JurisdictionFilter struct {
	DepartmentID     int64
	IncludeCrossDept bool
	AssignedToMe     bool
}

// JurisdictionIncident is one current primary assignment in a jurisdiction queue
type JurisdictionIncident struct {
	AssignmentID    int64            `json:"assignment_id"`
	AssignedAt      time.Time        `json:"assigned_at"`
	Status          AssignmentStatus `json:"status"`
	Incident        IncidentSummary  `json:"incident"`
	AssignedOfficer OfficerSummary   `json:"assigned_officer"`
	Priority        *PrioritySummary `json:"priority"`
	CrossDepartment bool             `json:"cross_department"`
}

// UrgencyBreakdown counts queue entries per urgency tier; entries without a priority record are not counted
type UrgencyBreakdown struct {
	Emergency int `json:"emergency"`
	Critical  int `json:"critical"`
	High      int `json:"high"`
	Medium    int `json:"medium"`
	Low       int `json:"low"`
}

// JurisdictionStatistics summarizes the whole queue, not just the returned page
type JurisdictionStatistics struct {
	TotalIncidents   int              `json:"total_incidents"`
	SameDepartment   int              `json:"same_department"`
	CrossDepartment  int              `json:"cross_department"`
	UrgencyBreakdown UrgencyBreakdown `json:"urgency_breakdown"`
}

// JurisdictionScope describes what the queue covers
type JurisdictionScope struct {
	Current                  string `json:"current"`
	DepartmentID             int64  `json:"department_id,omitempty"`
	IncludingCrossDepartment bool   `json:"including_cross_department"`
}

// JurisdictionIncidents is the paginated result of GetJurisdictionIncidents
type JurisdictionIncidents struct {
	Incidents    []JurisdictionIncident `json:"incidents"`
	Statistics   JurisdictionStatistics `json:"statistics"`
	Jurisdiction JurisdictionScope      `json:"jurisdiction"`
	Pagination   Pagination             `json:"pagination"`
}

// Summary returns the public view of the department
func (d *Department) Summary() DepartmentSummary {
	return DepartmentSummary{
		DepartmentID:   d.DepartmentID,
		Name:           d.Name,
		Code:           d.Code,
		HierarchyLevel: d.HierarchyLevel,
	}
}
