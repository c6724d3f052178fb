package service

import (
	"fmt"

	"civicreport/models"
)

// DetectTriggers lists every escalation reason that currently applies to the incident.
// priority may be nil when no record exists yet. MANUAL is always offered.
func DetectTriggers(incident *models.Incident, priority *models.IncidentPriority, level models.HierarchyLevel) []models.TriggerSuggestion {
	var triggers []models.TriggerSuggestion

	if priority != nil && priority.SLABreached {
		triggers = append(triggers, models.TriggerSuggestion{
			Type:        models.TriggerSLABreach,
			Description: "SLA deadline has been breached",
			Automatic:   true,
			Priority:    models.UrgencyHigh,
		})
	}

	if incident.Severity >= 4 {
		triggers = append(triggers, models.TriggerSuggestion{
			Type:        models.TriggerSeverityUpgrade,
			Description: "High severity incident requiring senior attention",
			Automatic:   false,
			Priority:    models.UrgencyCritical,
		})
	}

	if level.MaxBudget.Valid && incident.EstimatedCost.Valid &&
		incident.EstimatedCost.Decimal.GreaterThan(level.MaxBudget.Decimal) {
		triggers = append(triggers, models.TriggerSuggestion{
			Type:        models.TriggerResourceConstraint,
			Description: fmt.Sprintf("Estimated cost exceeds level authority (₹%s)", level.MaxBudget.Decimal.String()),
			Automatic:   true,
			Priority:    models.UrgencyHigh,
		})
	}

	triggers = append(triggers, models.TriggerSuggestion{
		Type:        models.TriggerManual,
		Description: "Manual escalation by officer",
		Automatic:   false,
		Priority:    models.UrgencyMedium,
	})

	if RequiresCoordination(incident.CategoryID) {
		triggers = append(triggers, models.TriggerSuggestion{
			Type:        models.TriggerInterdepartment,
			Description: "Requires coordination with other departments",
			Automatic:   false,
			Priority:    models.UrgencyMedium,
		})
	}

	return triggers
}

// ValidateEscalationTarget enforces that a HIERARCHY escalation strictly increases rank.
// Other escalation types may move to any level.
func ValidateEscalationTarget(escalationType models.EscalationType, requester, target *models.Officer) error {
	if escalationType != models.EscalationHierarchy {
		return nil
	}
	if target.EscalationLevel <= requester.EscalationLevel {
		return validationFailed("cannot escalate to same or lower level officer (level %d to level %d)",
			requester.EscalationLevel, target.EscalationLevel)
	}
	return nil
}

// RequiredCoordinatorLevel is the minimum escalation level of officers engaged by a coordination request
func RequiredCoordinatorLevel(incident *models.Incident, coordinationType models.CoordinationType) int {
	level := models.LevelField
	if incident.Severity >= 4 || coordinationType == models.CoordinationEmergency {
		level = models.LevelNodal
	}
	if coordinationType == models.CoordinationPolicy ||
		(incident.EstimatedCost.Valid && incident.EstimatedCost.Decimal.GreaterThan(policyCostThreshold)) {
		level = models.LevelHead
	}
	return level
}
