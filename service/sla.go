package service

import (
	"time"

	"civicreport/models"
)

// Clock supplies the current time; injected so SLA and priority math is deterministic in tests
type Clock func() time.Time

// SystemClock is the production clock (UTC)
func SystemClock() time.Time {
	return time.Now().UTC()
}

// CalculateSLA recomputes the deadline fields of p from the incident attributes against now.
// It must run before CalculatePriority, which reads the fields set here.
func CalculateSLA(p *models.IncidentPriority, incident models.IncidentSnapshot, now time.Time) {
	hours, categoryPriority := CategoryRule(incident.CategoryID)
	hours = AdjustHoursForSeverity(hours, incident.Severity)

	deadline := incident.CreatedAt.Add(time.Duration(hours * float64(time.Hour)))

	p.SLADeadline = deadline
	p.CategoryPriority = categoryPriority
	p.Severity = incident.Severity
	p.SLABreached = now.After(deadline)
	p.IsOverdue = p.SLABreached

	p.TimeToDeadline = 0
	if remaining := deadline.Sub(now); remaining > 0 {
		p.TimeToDeadline = int64(remaining / time.Minute)
	}

	p.DaysSinceReported = 0
	if elapsed := now.Sub(incident.CreatedAt); elapsed > 0 {
		p.DaysSinceReported = int(elapsed / (24 * time.Hour))
	}
}
