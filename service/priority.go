package service

import (
	"time"

	"civicreport/models"
)

// BaseScore returns the additive priority formula for p, excluding workflow bonuses
func BaseScore(p *models.IncidentPriority) float64 {
	categoryPriority := p.CategoryPriority
	if categoryPriority == 0 {
		categoryPriority = defaultCategoryPriority
	}
	severity := p.Severity
	if severity == 0 {
		severity = 1
	}

	score := float64(categoryPriority) * 20
	score += float64(severity) * 15
	score += min(p.SignatureWeight*2, 30)
	score += min(p.UpvoteWeight, 20)

	switch {
	case p.DaysSinceReported > 7:
		score += 25
	case p.DaysSinceReported > 3:
		score += 15
	case p.DaysSinceReported > 1:
		score += 10
	}

	switch {
	case p.SLABreached:
		score += 50
	case p.TimeToDeadline < 60:
		score += 30
	case p.TimeToDeadline < 480:
		score += 20
	case p.TimeToDeadline < 1440:
		score += 10
	}

	return score
}

// CalculatePriority sets PriorityScore (base formula plus the accumulated bonus) and UrgencyLevel
func CalculatePriority(p *models.IncidentPriority) {
	p.PriorityScore = BaseScore(p) + p.BonusScore
	p.UrgencyLevel = UrgencyForScore(p.PriorityScore)
}

// UrgencyForScore maps a priority score onto its urgency tier
func UrgencyForScore(score float64) models.UrgencyLevel {
	for _, t := range urgencyThresholds {
		if score >= t.min {
			return t.level
		}
	}
	return models.UrgencyLow
}

// Recompute runs the SLA calculator and then the priority scorer on p
func Recompute(p *models.IncidentPriority, incident models.IncidentSnapshot, now time.Time) {
	CalculateSLA(p, incident, now)
	CalculatePriority(p)
}

// applyBonus adds a workflow bonus to the record and re-derives the score
func applyBonus(p *models.IncidentPriority, bonus float64) {
	p.BonusScore += bonus
	CalculatePriority(p)
}
