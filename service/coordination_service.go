package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"civicreport/models"
	"civicreport/utils"
)

// CoordinationService handles inter-department coordination of incidents
type CoordinationService struct {
	store Store
	locks *IncidentLocks
	clock Clock
}

// NewCoordinationService creates a new coordination service
func NewCoordinationService(store Store, locks *IncidentLocks, clock Clock) *CoordinationService {
	if clock == nil {
		clock = SystemClock
	}
	return &CoordinationService{store: store, locks: locks, clock: clock}
}

// CoordinateWithDepartments engages one officer per target department as a COORDINATOR.
// Primary custody is not transferred. Departments without an eligible officer are skipped.
func (s *CoordinationService) CoordinateWithDepartments(ctx context.Context, userID int64, req models.CoordinateRequest) (*models.CoordinationRecord, error) {
	if req.IncidentID <= 0 || len(req.TargetDepartments) == 0 {
		return nil, validationFailed("incident ID and target departments are required")
	}
	if req.CoordinationType == "" {
		req.CoordinationType = models.CoordinationGeneral
	}
	req.CoordinationType = models.CoordinationType(strings.ToUpper(string(req.CoordinationType)))
	if _, ok := coordinationTypes[req.CoordinationType]; !ok {
		return nil, validationFailed("invalid coordination type %q", req.CoordinationType)
	}
	urgency := models.UrgencyMedium
	if req.UrgencyLevel != "" {
		parsed, ok := models.ParseUrgencyLevel(string(req.UrgencyLevel))
		if !ok {
			return nil, validationFailed("invalid urgency level %q", req.UrgencyLevel)
		}
		urgency = parsed
	}
	message := strings.TrimSpace(req.Message)
	targetIDs := uniqueIDs(req.TargetDepartments)
	if len(targetIDs) == 0 {
		return nil, validationFailed("target departments must be valid department ids")
	}

	unlock := s.locks.Lock(req.IncidentID)
	defer unlock()

	var record *models.CoordinationRecord
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		c, err := loadCustody(ctx, tx, req.IncidentID, userID)
		if err != nil {
			return err
		}
		if !c.incident.IsOpen() {
			return validationFailed("incident %d is %s and cannot be coordinated", req.IncidentID, c.incident.Status)
		}

		departments, err := tx.ListActiveDepartments(ctx, targetIDs)
		if err != nil {
			return fmt.Errorf("failed to load target departments: %w", err)
		}
		if len(departments) == 0 {
			return notFound("no valid target departments found")
		}

		required := RequiredCoordinatorLevel(c.incident, req.CoordinationType)
		now := s.clock()

		record = &models.CoordinationRecord{
			Reference:               utils.GenerateReference("CRD", now),
			IncidentID:              req.IncidentID,
			CoordinationType:        req.CoordinationType,
			UrgencyLevel:            urgency,
			RequiredLevel:           required,
			InitiatingOfficer:       officerSummary(c.officer),
			CoordinatedDepartments:  make([]models.DepartmentSummary, 0, len(departments)),
			Assignments:             []models.CoordinatorAssignment{},
			CoordinationInitiatedAt: now,
		}

		deptIDs := make([]int64, 0, len(departments))
		names := make([]string, 0, len(departments))
		for i := range departments {
			dept := &departments[i]
			deptIDs = append(deptIDs, dept.DepartmentID)
			names = append(names, dept.Name)
			record.CoordinatedDepartments = append(record.CoordinatedDepartments, dept.Summary())

			coordinator, err := s.selectCoordinator(ctx, tx, dept.DepartmentID, required, c.officer.OfficerID)
			if err != nil {
				return err
			}
			if coordinator == nil {
				log.Printf("[COORDINATION] No officer at level >= %d in department %d, skipping", required, dept.DepartmentID)
				continue
			}

			a := &models.Assignment{
				IncidentID:          req.IncidentID,
				AssigneeOfficerID:   coordinator.OfficerID,
				AssignedByUserID:    userID,
				Role:                models.RoleCoordinator,
				Status:              models.AssignmentAssigned,
				IsCurrent:           true,
				StartedAt:           now,
				CoordinationType:    sql.NullString{String: string(req.CoordinationType), Valid: true},
				CoordinationMessage: sql.NullString{String: message, Valid: message != ""},
			}
			if err := createAssignment(ctx, tx, a); err != nil {
				return err
			}
			record.Assignments = append(record.Assignments, models.CoordinatorAssignment{
				AssignmentID: a.AssignmentID,
				Officer:      officerSummary(coordinator),
				Department:   dept.Summary(),
			})
		}

		c.incident.Status = models.IncidentCoordinating
		c.incident.CoordinatingDepartments = deptIDs
		c.incident.CoordinationInitiatedBy = sql.NullInt64{Int64: c.officer.OfficerID, Valid: true}
		c.incident.CoordinationInitiatedAt = sql.NullTime{Time: now, Valid: true}
		if err := updateIncident(ctx, tx, c.incident); err != nil {
			return err
		}

		priority, err := recordEvent(ctx, tx, c.incident, models.EscalationTrigger{
			Trigger:     models.TriggerInterdepartmentCoordinated,
			TriggeredAt: now,
			TriggeredBy: sql.NullInt64{Int64: userID, Valid: true},
			Reason:      "Coordination initiated with " + strings.Join(names, ", "),
		}, CoordinationBonus)
		if err != nil {
			return err
		}
		record.PriorityScore = priority.PriorityScore
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[COORDINATION] Incident %d coordination initiated by officer %d with %d departments (%d coordinators, level >= %d) ref=%s",
		req.IncidentID, record.InitiatingOfficer.OfficerID, len(record.CoordinatedDepartments),
		len(record.Assignments), record.RequiredLevel, record.Reference)
	return record, nil
}

// selectCoordinator picks the lowest-ranked eligible officer, ties broken by officer id
func (s *CoordinationService) selectCoordinator(ctx context.Context, tx Tx, departmentID int64, minLevel int, excludeOfficerID int64) (*models.Officer, error) {
	officers, err := tx.ListActiveOfficers(ctx, models.OfficerFilter{
		DepartmentIDs:      []int64{departmentID},
		MinEscalationLevel: minLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list officers for department %d: %w", departmentID, err)
	}
	for i := range officers {
		if officers[i].OfficerID != excludeOfficerID {
			return &officers[i], nil
		}
	}
	return nil, nil
}

// GetCoordinationStatus reports every coordinator engaged on an incident and aggregate progress
func (s *CoordinationService) GetCoordinationStatus(ctx context.Context, incidentID int64) (*models.CoordinationStatus, error) {
	incident, err := s.store.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, translate(err, "incident")
	}

	assignments, err := s.store.ListAssignmentsByIncident(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	status := &models.CoordinationStatus{
		Incident:                incident.Summary(),
		Coordinators:            []models.CoordinatorStatus{},
		CoordinatingDepartments: incident.CoordinatingDepartments,
	}
	if status.CoordinatingDepartments == nil {
		status.CoordinatingDepartments = []int64{}
	}
	if incident.CoordinationInitiatedAt.Valid {
		at := incident.CoordinationInitiatedAt.Time
		status.CoordinationInitiatedAt = &at
	}
	if incident.CoordinationInitiatedBy.Valid {
		by := incident.CoordinationInitiatedBy.Int64
		status.CoordinationInitiatedBy = &by
	}

	departments := make(map[int64]struct{})
	for _, a := range assignments {
		if !a.IsCoordinator() {
			continue
		}
		officer, err := s.store.GetOfficerByID(ctx, a.AssigneeOfficerID)
		if err != nil {
			return nil, translate(err, "coordinator")
		}

		cs := models.CoordinatorStatus{
			AssignmentID:     a.AssignmentID,
			Status:           a.Status,
			AssignedAt:       a.StartedAt,
			CoordinationType: a.CoordinationType.String,
			Message:          a.CoordinationMessage.String,
			Coordinator:      officerSummary(officer),
			AssignedByUserID: a.AssignedByUserID,
		}
		if a.ResolvedAt.Valid {
			at := a.ResolvedAt.Time
			cs.ResolvedAt = &at
		}
		status.Coordinators = append(status.Coordinators, cs)

		status.Metrics.TotalCoordinators++
		switch a.Status {
		case models.AssignmentAssigned:
			status.Metrics.ActiveCoordinators++
		case models.AssignmentCompleted:
			status.Metrics.CompletedCoordinators++
		}
		departments[officer.DepartmentID] = struct{}{}
	}
	status.Metrics.DepartmentsInvolved = len(departments)
	return status, nil
}

// GetGovernmentStructure returns active departments grouped by jurisdiction level with officer counts
func (s *CoordinationService) GetGovernmentStructure(ctx context.Context, userID int64) (*models.GovernmentStructure, error) {
	officer, err := requestingOfficer(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	departments, err := s.store.ListActiveDepartments(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	officers, err := s.store.ListActiveOfficers(ctx, models.OfficerFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list officers: %w", err)
	}

	hierarchy := EscalationHierarchy()
	levels := make([]models.JurisdictionLevelStats, 0, len(hierarchy))
	index := make(map[int]int, len(hierarchy))
	for _, h := range hierarchy {
		index[h.Level] = len(levels)
		levels = append(levels, models.JurisdictionLevelStats{
			HierarchyLevel: h.Level,
			Jurisdiction:   h.Jurisdiction,
			Departments:    []models.DepartmentSummary{},
		})
	}

	deptLevel := make(map[int64]int, len(departments))
	for i := range departments {
		d := &departments[i]
		idx, ok := index[d.HierarchyLevel]
		if !ok {
			idx = index[models.HierarchyVillage]
		}
		deptLevel[d.DepartmentID] = idx
		levels[idx].Departments = append(levels[idx].Departments, d.Summary())
	}

	for i := range officers {
		idx, ok := deptLevel[officers[i].DepartmentID]
		if !ok {
			continue
		}
		stats := &levels[idx]
		stats.TotalOfficers++
		switch officers[i].EscalationLevel {
		case models.LevelField:
			stats.ByLevel.Field++
		case models.LevelNodal:
			stats.ByLevel.Nodal++
		case models.LevelHead:
			stats.ByLevel.Head++
		}
	}

	return &models.GovernmentStructure{
		CurrentOfficer: officerSummary(officer),
		Department:     officer.Department.Summary(),
		Hierarchy:      hierarchy,
		Levels:         levels,
	}, nil
}

// GetJurisdictionIncidents returns current primary assignments in the requester's department, a
// chosen department, or every department when cross-department viewing is requested. Entries are
// ordered by priority score, highest first; statistics cover the whole queue.
func (s *CoordinationService) GetJurisdictionIncidents(ctx context.Context, userID int64, filter models.JurisdictionFilter, page models.Page) (*models.JurisdictionIncidents, error) {
	officer, err := requestingOfficer(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	page = page.Normalize()

	query := models.AssignmentFilter{}
	switch {
	case filter.DepartmentID > 0:
		if _, err := s.store.GetDepartment(ctx, filter.DepartmentID); err != nil {
			return nil, translate(err, "department")
		}
		query.AssigneeDepartment = filter.DepartmentID
	case !filter.IncludeCrossDept:
		query.AssigneeDepartment = officer.DepartmentID
	}
	if filter.AssignedToMe {
		query.AssigneeOfficerID = officer.OfficerID
	}

	assignments, err := s.store.ListCurrentAssignments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jurisdiction assignments: %w", err)
	}

	result := &models.JurisdictionIncidents{
		Jurisdiction: models.JurisdictionScope{
			Current:                  JurisdictionFor(officer.Department.HierarchyLevel),
			DepartmentID:             query.AssigneeDepartment,
			IncludingCrossDepartment: filter.IncludeCrossDept && filter.DepartmentID == 0,
		},
	}

	officers := make(map[int64]*models.Officer)
	entries := make([]models.JurisdictionIncident, 0, len(assignments))
	for _, a := range assignments {
		incident, err := s.store.GetIncident(ctx, a.IncidentID)
		if err != nil {
			return nil, translate(err, "incident")
		}
		assignee, ok := officers[a.AssigneeOfficerID]
		if !ok {
			if assignee, err = s.store.GetOfficerByID(ctx, a.AssigneeOfficerID); err != nil {
				return nil, translate(err, "assigned officer")
			}
			officers[a.AssigneeOfficerID] = assignee
		}

		entry := models.JurisdictionIncident{
			AssignmentID:    a.AssignmentID,
			AssignedAt:      a.StartedAt,
			Status:          a.Status,
			Incident:        incident.Summary(),
			AssignedOfficer: officerSummary(assignee),
			CrossDepartment: assignee.DepartmentID != officer.DepartmentID,
		}
		priority, err := s.store.GetPriority(ctx, a.IncidentID)
		switch {
		case errors.Is(err, models.ErrRecordNotFound):
		case err != nil:
			return nil, fmt.Errorf("failed to load priority: %w", err)
		default:
			summary := priority.Summary()
			entry.Priority = &summary
			countUrgency(&result.Statistics.UrgencyBreakdown, priority.UrgencyLevel)
		}

		if entry.CrossDepartment {
			result.Statistics.CrossDepartment++
		} else {
			result.Statistics.SameDepartment++
		}
		entries = append(entries, entry)
	}
	result.Statistics.TotalIncidents = len(entries)

	// highest score first, unscored last, newest assignment first on ties
	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := entries[i].Priority, entries[j].Priority
		switch {
		case pi == nil && pj == nil:
			return entries[i].AssignmentID > entries[j].AssignmentID
		case pi == nil:
			return false
		case pj == nil:
			return true
		case pi.Score != pj.Score:
			return pi.Score > pj.Score
		default:
			return entries[i].AssignmentID > entries[j].AssignmentID
		}
	})

	start, end := page.Bounds(len(entries))
	result.Incidents = entries[start:end]
	result.Pagination = page.PaginationFor(len(entries))
	return result, nil
}

func countUrgency(b *models.UrgencyBreakdown, level models.UrgencyLevel) {
	switch level {
	case models.UrgencyEmergency:
		b.Emergency++
	case models.UrgencyCritical:
		b.Critical++
	case models.UrgencyHigh:
		b.High++
	case models.UrgencyMedium:
		b.Medium++
	case models.UrgencyLow:
		b.Low++
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
