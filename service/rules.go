package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"civicreport/models"
)

// Score adjustments applied on top of the base formula by workflow events
const (
	EscalationBonus   = 30.0
	CoordinationBonus = 20.0
)

// defaultCategoryPriority is used when a record has never been through the SLA calculator
const defaultCategoryPriority = 3

// policyCostThreshold raises the required coordinator level to Head when exceeded
var policyCostThreshold = decimal.NewFromInt(500000)

type categoryRule struct {
	tags     []string
	hours    float64
	priority int
}

// categoryRules maps category tags (lowercase) to their base resolution window
var categoryRules = []categoryRule{
	{tags: []string{"emergency", "health"}, hours: 4, priority: 5},
	{tags: []string{"water", "electricity"}, hours: 24, priority: 4},
	{tags: []string{"sanitation", "road"}, hours: 48, priority: 3},
	{tags: []string{"education"}, hours: 120, priority: 2},
}

var defaultCategoryRule = categoryRule{hours: 72, priority: 2}

// CategoryRule returns the base SLA hours and category priority for a category tag (case-insensitive)
func CategoryRule(categoryID string) (hours float64, priority int) {
	tag := strings.ToLower(strings.TrimSpace(categoryID))
	for _, r := range categoryRules {
		for _, t := range r.tags {
			if t == tag {
				return r.hours, r.priority
			}
		}
	}
	return defaultCategoryRule.hours, defaultCategoryRule.priority
}

// AdjustHoursForSeverity applies the severity adjustment to a base resolution window
func AdjustHoursForSeverity(hours float64, severity int) float64 {
	switch {
	case severity >= 4:
		return max(hours/2, 2)
	case severity >= 3:
		return max(hours*0.75, 4)
	default:
		return hours
	}
}

var escalationHierarchy = [...]models.HierarchyLevel{
	{
		Level:        models.LevelField,
		NextLevel:    models.LevelNodal,
		Description:  "Field Officer to Nodal Officer",
		Jurisdiction: "VILLAGE",
		MaxBudget:    decimal.NewNullDecimal(decimal.NewFromInt(25000)),
	},
	{
		Level:        models.LevelNodal,
		NextLevel:    models.LevelHead,
		Description:  "Nodal Officer to Head Officer",
		Jurisdiction: "BLOCK",
		MaxBudget:    decimal.NewNullDecimal(decimal.NewFromInt(500000)),
	},
	{
		Level:        models.LevelHead,
		Description:  "Head Officer to District Level",
		Jurisdiction: "DISTRICT",
	},
}

// EscalationHierarchy returns a copy of the escalation ladder, lowest level first
func EscalationHierarchy() []models.HierarchyLevel {
	out := make([]models.HierarchyLevel, len(escalationHierarchy))
	copy(out, escalationHierarchy[:])
	return out
}

// HierarchyFor returns the ladder entry for an escalation level
func HierarchyFor(level int) (models.HierarchyLevel, bool) {
	for _, h := range escalationHierarchy {
		if h.Level == level {
			return h, true
		}
	}
	return models.HierarchyLevel{}, false
}

// JurisdictionFor returns the jurisdiction name of a department hierarchy level
func JurisdictionFor(hierarchyLevel int) string {
	if h, ok := HierarchyFor(hierarchyLevel); ok {
		return h.Jurisdiction
	}
	return "UNKNOWN"
}

// LevelName returns the display name of an escalation level
func LevelName(level int) string {
	switch level {
	case models.LevelField:
		return "Field Officer"
	case models.LevelNodal:
		return "Nodal Officer"
	case models.LevelHead:
		return "Head Officer"
	default:
		return "Officer"
	}
}

// coordinationCategories require inter-department coordination (uppercase)
var coordinationCategories = map[string]struct{}{
	"INFRASTRUCTURE":        {},
	"EMERGENCY":             {},
	"FLOOD":                 {},
	"DISASTER":              {},
	"MAJOR_ROAD":            {},
	"HOSPITAL":              {},
	"SCHOOL_INFRASTRUCTURE": {},
}

// RequiresCoordination reports whether a category is in the coordination-required set (case-insensitive)
func RequiresCoordination(categoryID string) bool {
	_, ok := coordinationCategories[strings.ToUpper(strings.TrimSpace(categoryID))]
	return ok
}

type urgencyThreshold struct {
	min   float64
	level models.UrgencyLevel
}

// urgencyThresholds are evaluated high to low
var urgencyThresholds = [...]urgencyThreshold{
	{min: 100, level: models.UrgencyEmergency},
	{min: 80, level: models.UrgencyCritical},
	{min: 60, level: models.UrgencyHigh},
	{min: 40, level: models.UrgencyMedium},
}

// escalationTypes accepted by EscalateIncident
var escalationTypes = map[models.EscalationType]struct{}{
	models.EscalationHierarchy:          {},
	models.EscalationInterdepartment:    {},
	models.EscalationManual:             {},
	models.EscalationSLABreach:          {},
	models.EscalationSeverityUpgrade:    {},
	models.EscalationResourceConstraint: {},
}

// coordinationTypes accepted by CoordinateWithDepartments
var coordinationTypes = map[models.CoordinationType]struct{}{
	models.CoordinationGeneral:   {},
	models.CoordinationResource:  {},
	models.CoordinationTechnical: {},
	models.CoordinationEmergency: {},
	models.CoordinationPolicy:    {},
}
