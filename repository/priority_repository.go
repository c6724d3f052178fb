package repository

import (
	"context"
	"fmt"

	"civicreport/models"
)

const priorityColumns = `
	p.priority_id, p.incident_id, p.sla_deadline, p.time_to_deadline, p.sla_breached,
	p.category_priority, p.priority_score, p.bonus_score, p.urgency_level, p.signature_weight,
	p.upvote_weight, p.days_since_reported, p.is_overdue, p.created_at, p.updated_at`

func priorityDest(p *models.IncidentPriority) []interface{} {
	return []interface{}{
		&p.PriorityID,
		&p.IncidentID,
		&p.SLADeadline,
		&p.TimeToDeadline,
		&p.SLABreached,
		&p.CategoryPriority,
		&p.PriorityScore,
		&p.BonusScore,
		&p.UrgencyLevel,
		&p.SignatureWeight,
		&p.UpvoteWeight,
		&p.DaysSinceReported,
		&p.IsOverdue,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

// GetPriority retrieves the priority record of an incident with its trigger log
func (r queries) GetPriority(ctx context.Context, incidentID int64) (*models.IncidentPriority, error) {
	query := `
		SELECT ` + priorityColumns + `, i.severity
		FROM incident_priorities p
		JOIN incidents i ON i.incident_id = p.incident_id
		WHERE p.incident_id = ?
	`
	var p models.IncidentPriority
	dest := append(priorityDest(&p), &p.Severity)
	if err := r.q.QueryRowContext(ctx, query, incidentID).Scan(dest...); err != nil {
		return nil, notFound(err, "priority for incident", incidentID)
	}

	triggers, err := r.ListTriggers(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	p.Triggers = triggers
	return &p, nil
}

// ListPrioritiesWithIncidents returns every priority record with the incident attributes it is scored from
func (r queries) ListPrioritiesWithIncidents(ctx context.Context) ([]models.PriorityWithIncident, error) {
	query := `
		SELECT ` + priorityColumns + `,
			i.incident_id, i.category_id, i.severity, i.created_at, i.estimated_cost
		FROM incident_priorities p
		JOIN incidents i ON i.incident_id = p.incident_id
		ORDER BY p.priority_id ASC
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query priorities: %w", err)
	}
	defer rows.Close()

	var records []models.PriorityWithIncident
	for rows.Next() {
		var rec models.PriorityWithIncident
		dest := append(priorityDest(&rec.Priority),
			&rec.Incident.ID,
			&rec.Incident.CategoryID,
			&rec.Incident.Severity,
			&rec.Incident.CreatedAt,
			&rec.Incident.EstimatedCost,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan priority: %w", err)
		}
		rec.Priority.Severity = rec.Incident.Severity
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating priorities: %w", err)
	}
	return records, nil
}

// SavePriority inserts a new record (PriorityID == 0) or rewrites an existing one, bonus included
func (r queries) SavePriority(ctx context.Context, p *models.IncidentPriority) error {
	now := r.now().UTC()
	if p.PriorityID == 0 {
		query := `
			INSERT INTO incident_priorities (
				incident_id, sla_deadline, time_to_deadline, sla_breached, category_priority,
				priority_score, bonus_score, urgency_level, signature_weight, upvote_weight,
				days_since_reported, is_overdue, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		result, err := r.q.ExecContext(ctx, query,
			p.IncidentID, p.SLADeadline, p.TimeToDeadline, p.SLABreached, p.CategoryPriority,
			p.PriorityScore, p.BonusScore, p.UrgencyLevel, p.SignatureWeight, p.UpvoteWeight,
			p.DaysSinceReported, p.IsOverdue, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("priority for incident %d already exists: %w", p.IncidentID, models.ErrStaleRecord)
			}
			return fmt.Errorf("failed to insert priority for incident %d: %w", p.IncidentID, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get priority ID: %w", err)
		}
		p.PriorityID = id
		p.CreatedAt = now
		return nil
	}

	query := `
		UPDATE incident_priorities SET
			sla_deadline = ?, time_to_deadline = ?, sla_breached = ?, category_priority = ?,
			priority_score = ?, bonus_score = ?, urgency_level = ?, signature_weight = ?,
			upvote_weight = ?, days_since_reported = ?, is_overdue = ?, updated_at = ?
		WHERE priority_id = ?
	`
	_, err := r.q.ExecContext(ctx, query,
		p.SLADeadline, p.TimeToDeadline, p.SLABreached, p.CategoryPriority,
		p.PriorityScore, p.BonusScore, p.UrgencyLevel, p.SignatureWeight,
		p.UpvoteWeight, p.DaysSinceReported, p.IsOverdue, now,
		p.PriorityID,
	)
	if err != nil {
		return fmt.Errorf("failed to update priority for incident %d: %w", p.IncidentID, err)
	}
	p.UpdatedAt.Time, p.UpdatedAt.Valid = now, true
	return nil
}

// UpdateComputedPriority rewrites only the calculator-owned columns; bonus and support weights are untouched
func (r queries) UpdateComputedPriority(ctx context.Context, p *models.IncidentPriority) error {
	query := `
		UPDATE incident_priorities SET
			sla_deadline = ?, time_to_deadline = ?, sla_breached = ?, category_priority = ?,
			priority_score = ?, urgency_level = ?, days_since_reported = ?, is_overdue = ?,
			updated_at = ?
		WHERE priority_id = ?
	`
	_, err := r.q.ExecContext(ctx, query,
		p.SLADeadline, p.TimeToDeadline, p.SLABreached, p.CategoryPriority,
		p.PriorityScore, p.UrgencyLevel, p.DaysSinceReported, p.IsOverdue,
		r.now().UTC(),
		p.PriorityID,
	)
	if err != nil {
		return fmt.Errorf("failed to update computed priority for incident %d: %w", p.IncidentID, err)
	}
	return nil
}

// ListTriggers returns the trigger log of an incident in insertion order
func (r queries) ListTriggers(ctx context.Context, incidentID int64) ([]models.EscalationTrigger, error) {
	query := `
		SELECT trigger_id, incident_id, trigger_type, triggered_at, triggered_by, reason
		FROM escalation_triggers
		WHERE incident_id = ?
		ORDER BY trigger_id ASC
	`
	rows, err := r.q.QueryContext(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query escalation triggers: %w", err)
	}
	defer rows.Close()

	triggers := []models.EscalationTrigger{}
	for rows.Next() {
		var t models.EscalationTrigger
		if err := rows.Scan(&t.TriggerID, &t.IncidentID, &t.Trigger, &t.TriggeredAt, &t.TriggeredBy, &t.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan escalation trigger: %w", err)
		}
		triggers = append(triggers, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating escalation triggers: %w", err)
	}
	return triggers, nil
}

// AppendTrigger adds one entry to the append-only trigger log
func (r queries) AppendTrigger(ctx context.Context, t *models.EscalationTrigger) error {
	query := `
		INSERT INTO escalation_triggers (incident_id, trigger_type, triggered_at, triggered_by, reason)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.q.ExecContext(ctx, query, t.IncidentID, t.Trigger, t.TriggeredAt, t.TriggeredBy, t.Reason)
	if err != nil {
		return fmt.Errorf("failed to insert escalation trigger: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get trigger ID: %w", err)
	}
	t.TriggerID = id
	return nil
}
