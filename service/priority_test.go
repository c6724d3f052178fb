package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"civicreport/models"
)

func TestUrgencyForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  models.UrgencyLevel
	}{
		{150, models.UrgencyEmergency},
		{100, models.UrgencyEmergency},
		{99.99, models.UrgencyCritical},
		{80, models.UrgencyCritical},
		{79.5, models.UrgencyHigh},
		{60, models.UrgencyHigh},
		{59, models.UrgencyMedium},
		{40, models.UrgencyMedium},
		{39.9, models.UrgencyLow},
		{0, models.UrgencyLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UrgencyForScore(tt.score), "score %v", tt.score)
	}
}

func TestBaseScore(t *testing.T) {
	tests := []struct {
		name string
		p    models.IncidentPriority
		want float64
	}{
		{
			name: "category and severity only",
			p:    models.IncidentPriority{CategoryPriority: 4, Severity: 2, TimeToDeadline: 2000},
			want: 80 + 30,
		},
		{
			name: "support weights are capped",
			p:    models.IncidentPriority{CategoryPriority: 2, Severity: 1, SignatureWeight: 100, UpvoteWeight: 90, TimeToDeadline: 2000},
			want: 40 + 15 + 30 + 20,
		},
		{
			name: "support below caps",
			p:    models.IncidentPriority{CategoryPriority: 2, Severity: 1, SignatureWeight: 5, UpvoteWeight: 7, TimeToDeadline: 2000},
			want: 40 + 15 + 10 + 7,
		},
		{
			name: "age brackets",
			p:    models.IncidentPriority{CategoryPriority: 2, Severity: 1, DaysSinceReported: 8, TimeToDeadline: 2000},
			want: 40 + 15 + 25,
		},
		{
			name: "deadline within the hour",
			p:    models.IncidentPriority{CategoryPriority: 2, Severity: 1, TimeToDeadline: 59},
			want: 40 + 15 + 30,
		},
		{
			name: "deadline within eight hours",
			p:    models.IncidentPriority{CategoryPriority: 2, Severity: 1, TimeToDeadline: 479},
			want: 40 + 15 + 20,
		},
		{
			name: "deadline within a day",
			p:    models.IncidentPriority{CategoryPriority: 2, Severity: 1, TimeToDeadline: 1439},
			want: 40 + 15 + 10,
		},
		{
			name: "missing category and severity use defaults",
			p:    models.IncidentPriority{TimeToDeadline: 2000},
			want: 60 + 15,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BaseScore(&tt.p), 0.0001)
		})
	}
}

func TestBaseScore_BreachAddsFifty(t *testing.T) {
	open := models.IncidentPriority{CategoryPriority: 3, Severity: 2, TimeToDeadline: 5000}
	breached := open
	breached.SLABreached = true
	breached.TimeToDeadline = 0

	assert.InDelta(t, 50, BaseScore(&breached)-BaseScore(&open), 0.0001)
}

func TestBaseScore_AgeBracketsAreMonotonic(t *testing.T) {
	prev := -1.0
	for days := 0; days <= 10; days++ {
		p := models.IncidentPriority{CategoryPriority: 2, Severity: 1, DaysSinceReported: days, TimeToDeadline: 2000}
		score := BaseScore(&p)
		assert.GreaterOrEqual(t, score, prev, "day %d", days)
		prev = score
	}
}

func TestCalculatePriority_IncludesBonus(t *testing.T) {
	p := models.IncidentPriority{CategoryPriority: 2, Severity: 1, TimeToDeadline: 2000}
	CalculatePriority(&p)
	assert.InDelta(t, 55, p.PriorityScore, 0.0001)
	assert.Equal(t, models.UrgencyMedium, p.UrgencyLevel)

	applyBonus(&p, EscalationBonus)
	assert.InDelta(t, 85, p.PriorityScore, 0.0001)
	assert.InDelta(t, 30, p.BonusScore, 0.0001)
	assert.Equal(t, models.UrgencyCritical, p.UrgencyLevel)

	// Recomputing keeps the bonus exactly once
	CalculatePriority(&p)
	assert.InDelta(t, 85, p.PriorityScore, 0.0001)
}

func TestRecompute_HealthIncident(t *testing.T) {
	p := models.NewIncidentPriority(7)
	incident := models.IncidentSnapshot{ID: 7, CategoryID: "health", Severity: 3, CreatedAt: reportedAt}

	Recompute(p, incident, reportedAt.Add(30*time.Minute))

	// 5*20 + 3*15 + 20 (210 minutes left)
	assert.InDelta(t, 165, p.PriorityScore, 0.0001)
	assert.Equal(t, models.UrgencyEmergency, p.UrgencyLevel)
	assert.Equal(t, reportedAt.Add(4*time.Hour), p.SLADeadline)
}
