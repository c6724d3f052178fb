package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicreport/models"
	"civicreport/repository"
	"civicreport/repository/sqlitetest"
	"civicreport/service"
)

var reportedAt = time.Date(2026, 2, 9, 10, 30, 0, 0, time.UTC)

func newAssignment(incidentID, officerID int64, role string, at time.Time) *models.Assignment {
	return &models.Assignment{
		IncidentID:        incidentID,
		AssigneeOfficerID: officerID,
		AssignedByUserID:  1,
		Role:              role,
		Status:            models.AssignmentAssigned,
		IsCurrent:         true,
		StartedAt:         at,
	}
}

func TestIncident_RoundTrip(t *testing.T) {
	store := sqlitetest.Open(t)
	ctx := context.Background()

	inc := &models.Incident{
		Title:                   "Broken culvert",
		Description:             "Culvert collapsed near the school",
		CategoryID:              "road",
		Severity:                3,
		EstimatedCost:           decimal.NewNullDecimal(decimal.RequireFromString("125000.50")),
		CoordinatingDepartments: []int64{4, 9},
		CreatedAt:               reportedAt,
	}
	require.NoError(t, store.CreateIncident(ctx, inc))
	assert.NotZero(t, inc.IncidentID)
	assert.Equal(t, models.IncidentNew, inc.Status)
	assert.Equal(t, int64(1), inc.Version)

	got, err := store.GetIncident(ctx, inc.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, "Broken culvert", got.Title)
	assert.True(t, got.CreatedAt.Equal(reportedAt))
	assert.True(t, got.EstimatedCost.Valid)
	assert.True(t, got.EstimatedCost.Decimal.Equal(decimal.RequireFromString("125000.5")))
	assert.Equal(t, []int64{4, 9}, got.CoordinatingDepartments)
	assert.False(t, got.CurrentAssignmentID.Valid)

	_, err = store.GetIncident(ctx, inc.IncidentID+100)
	assert.ErrorIs(t, err, models.ErrRecordNotFound)
}

func TestStore_WithClock(t *testing.T) {
	stampedAt := reportedAt.Add(3 * time.Hour)
	store := sqlitetest.Open(t).WithClock(func() time.Time { return stampedAt })
	ctx := context.Background()
	inc := sqlitetest.NewIncident(t, store, "water", 2, reportedAt)

	inc.Status = models.IncidentAssigned
	require.NoError(t, store.UpdateIncident(ctx, inc))
	assert.True(t, inc.UpdatedAt.Time.Equal(stampedAt))

	p := models.NewIncidentPriority(inc.IncidentID)
	p.SLADeadline = reportedAt.Add(24 * time.Hour)
	require.NoError(t, store.SavePriority(ctx, p))
	assert.True(t, p.CreatedAt.Equal(stampedAt))

	got, err := store.GetIncident(ctx, inc.IncidentID)
	require.NoError(t, err)
	require.True(t, got.UpdatedAt.Valid)
	assert.True(t, got.UpdatedAt.Time.Equal(stampedAt))
}

func TestUpdateIncident_VersionGuard(t *testing.T) {
	store := sqlitetest.Open(t)
	ctx := context.Background()
	inc := sqlitetest.NewIncident(t, store, "water", 2, reportedAt)

	stale := *inc
	inc.Status = models.IncidentAssigned
	require.NoError(t, store.UpdateIncident(ctx, inc))
	assert.Equal(t, int64(2), inc.Version)
	assert.True(t, inc.UpdatedAt.Valid)

	stale.Status = models.IncidentClosed
	err := store.UpdateIncident(ctx, &stale)
	assert.ErrorIs(t, err, models.ErrStaleRecord)

	got, err := store.GetIncident(ctx, inc.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentAssigned, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestAssignments_SingleCurrentPrimary(t *testing.T) {
	store := sqlitetest.Open(t)
	seed := sqlitetest.SeedJurisdiction(t, store)
	ctx := context.Background()
	inc := sqlitetest.NewIncident(t, store, "road", 2, reportedAt)

	first := newAssignment(inc.IncidentID, seed.Officer(t, "roads_field").OfficerID, "Junior Engineer", reportedAt)
	require.NoError(t, store.CreateAssignment(ctx, first))
	assert.Equal(t, reportedAt, first.CreatedAt)

	second := newAssignment(inc.IncidentID, seed.Officer(t, "roads_nodal").OfficerID, "Assistant Engineer", reportedAt.Add(time.Minute))
	err := store.CreateAssignment(ctx, second)
	assert.ErrorIs(t, err, models.ErrStaleRecord)

	// coordinators sit beside the primary
	coord := newAssignment(inc.IncidentID, seed.Officer(t, "water_field").OfficerID, models.RoleCoordinator, reportedAt.Add(time.Minute))
	require.NoError(t, store.CreateAssignment(ctx, coord))

	require.NoError(t, store.SupersedeAssignment(ctx, first.AssignmentID, reportedAt.Add(2*time.Minute), "Escalated"))
	err = store.SupersedeAssignment(ctx, first.AssignmentID, reportedAt.Add(3*time.Minute), "Escalated again")
	assert.ErrorIs(t, err, models.ErrStaleRecord)

	second.StartedAt = reportedAt.Add(2 * time.Minute)
	require.NoError(t, store.CreateAssignment(ctx, second))

	trail, err := store.ListAssignmentsByIncident(ctx, inc.IncidentID)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, []int64{first.AssignmentID, coord.AssignmentID, second.AssignmentID},
		[]int64{trail[0].AssignmentID, trail[1].AssignmentID, trail[2].AssignmentID})
	assert.False(t, trail[0].IsCurrent)
	assert.Equal(t, "Escalated", trail[0].Notes.String)

	current, err := store.ListCurrentAssignments(ctx, models.AssignmentFilter{})
	require.NoError(t, err)
	require.Len(t, current, 1, "coordinator assignments are excluded")
	assert.Equal(t, second.AssignmentID, current[0].AssignmentID)

	filtered, err := store.ListCurrentAssignments(ctx, models.AssignmentFilter{MaxAssigneeLevel: models.LevelField})
	require.NoError(t, err)
	assert.Empty(t, filtered)

	filtered, err = store.ListCurrentAssignments(ctx, models.AssignmentFilter{
		Status:             models.AssignmentAssigned,
		AssigneeDepartment: seed.Roads.DepartmentID,
		AssigneeOfficerID:  seed.Officer(t, "roads_nodal").OfficerID,
	})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestUpdateAssignmentStatus(t *testing.T) {
	store := sqlitetest.Open(t)
	seed := sqlitetest.SeedJurisdiction(t, store)
	ctx := context.Background()
	inc := sqlitetest.NewIncident(t, store, "road", 2, reportedAt)

	a := newAssignment(inc.IncidentID, seed.Officer(t, "roads_field").OfficerID, "Junior Engineer", reportedAt)
	require.NoError(t, store.CreateAssignment(ctx, a))

	a.Status = models.AssignmentRejected
	a.IsCurrent = false
	a.ResolvedAt = sql.NullTime{Time: reportedAt.Add(time.Hour), Valid: true}
	a.Notes = sql.NullString{String: "Outside my jurisdiction", Valid: true}
	require.NoError(t, store.UpdateAssignmentStatus(ctx, a))

	got, err := store.GetAssignment(ctx, a.AssignmentID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentRejected, got.Status)
	assert.False(t, got.IsCurrent)
	assert.True(t, got.ResolvedAt.Time.Equal(reportedAt.Add(time.Hour)))
	assert.Equal(t, "Outside my jurisdiction", got.Notes.String)

	_, err = store.GetAssignment(ctx, 999)
	assert.ErrorIs(t, err, models.ErrRecordNotFound)
}

func TestPriority_SaveAndComputedUpdate(t *testing.T) {
	store := sqlitetest.Open(t)
	ctx := context.Background()
	inc := sqlitetest.NewIncident(t, store, "health", 3, reportedAt)

	_, err := store.GetPriority(ctx, inc.IncidentID)
	assert.ErrorIs(t, err, models.ErrRecordNotFound)

	p := models.NewIncidentPriority(inc.IncidentID)
	p.SLADeadline = reportedAt.Add(4 * time.Hour)
	p.TimeToDeadline = 240
	p.CategoryPriority = 5
	p.PriorityScore = 175
	p.BonusScore = 30
	p.UrgencyLevel = models.UrgencyEmergency
	p.SignatureWeight = 4
	require.NoError(t, store.SavePriority(ctx, p))
	assert.NotZero(t, p.PriorityID)

	dup := models.NewIncidentPriority(inc.IncidentID)
	assert.ErrorIs(t, store.SavePriority(ctx, dup), models.ErrStaleRecord)

	// computed update never touches bonus or support weights
	p.PriorityScore = 10
	p.BonusScore = 0
	p.SignatureWeight = 0
	p.SLABreached = true
	require.NoError(t, store.UpdateComputedPriority(ctx, p))

	got, err := store.GetPriority(ctx, inc.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Severity)
	assert.InDelta(t, 10, got.PriorityScore, 0.0001)
	assert.True(t, got.SLABreached)
	assert.InDelta(t, 30, got.BonusScore, 0.0001)
	assert.InDelta(t, 4, got.SignatureWeight, 0.0001)
	assert.True(t, got.SLADeadline.Equal(reportedAt.Add(4*time.Hour)))
	assert.True(t, got.UpdatedAt.Valid)

	records, err := store.ListPrioritiesWithIncidents(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, inc.IncidentID, records[0].Incident.ID)
	assert.Equal(t, "health", records[0].Incident.CategoryID)
	assert.True(t, records[0].Incident.CreatedAt.Equal(reportedAt))
	assert.Equal(t, 3, records[0].Priority.Severity)
}

func TestTriggers_AppendOnlyOrder(t *testing.T) {
	store := sqlitetest.Open(t)
	ctx := context.Background()
	inc := sqlitetest.NewIncident(t, store, "road", 2, reportedAt)

	empty, err := store.ListTriggers(ctx, inc.IncidentID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i, tt := range []models.TriggerType{models.TriggerHierarchy, models.TriggerInterdepartmentCoordinated, models.TriggerManual} {
		tr := &models.EscalationTrigger{
			IncidentID:  inc.IncidentID,
			Trigger:     tt,
			TriggeredAt: reportedAt.Add(time.Duration(i) * time.Hour),
			TriggeredBy: sql.NullInt64{Int64: 101, Valid: true},
			Reason:      string(tt),
		}
		require.NoError(t, store.AppendTrigger(ctx, tr))
		assert.NotZero(t, tr.TriggerID)
	}

	triggers, err := store.ListTriggers(ctx, inc.IncidentID)
	require.NoError(t, err)
	require.Len(t, triggers, 3)
	assert.Equal(t, models.TriggerHierarchy, triggers[0].Trigger)
	assert.Equal(t, models.TriggerInterdepartmentCoordinated, triggers[1].Trigger)
	assert.Equal(t, models.TriggerManual, triggers[2].Trigger)
	assert.True(t, triggers[2].TriggeredAt.Equal(reportedAt.Add(2*time.Hour)))
}

func TestOfficersAndDepartments(t *testing.T) {
	store := sqlitetest.Open(t)
	seed := sqlitetest.SeedJurisdiction(t, store)
	ctx := context.Background()

	o, err := store.GetOfficerByUserID(ctx, 202)
	require.NoError(t, err)
	assert.Equal(t, "water_nodal", o.Name)
	assert.Equal(t, "WSD", o.Department.Code)
	assert.True(t, o.Department.MaxBudget.Decimal.Equal(decimal.NewFromInt(500000)))

	_, err = store.GetOfficerByID(ctx, 5000)
	assert.ErrorIs(t, err, models.ErrRecordNotFound)

	heads, err := store.ListActiveOfficers(ctx, models.OfficerFilter{EscalationLevel: models.LevelHead})
	require.NoError(t, err)
	var names []string
	for _, h := range heads {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"roads_head", "health_head"}, names, "inactive departments are excluded")

	nodalUp, err := store.ListActiveOfficers(ctx, models.OfficerFilter{
		DepartmentIDs:      []int64{seed.Roads.DepartmentID, seed.Water.DepartmentID},
		MinEscalationLevel: models.LevelNodal,
	})
	require.NoError(t, err)
	assert.Len(t, nodalUp, 3)
	assert.Equal(t, models.LevelNodal, nodalUp[0].EscalationLevel)

	others, err := store.ListActiveOfficers(ctx, models.OfficerFilter{ExcludeDepartmentID: seed.Roads.DepartmentID})
	require.NoError(t, err)
	for _, other := range others {
		assert.NotEqual(t, seed.Roads.DepartmentID, other.DepartmentID)
	}

	depts, err := store.ListActiveDepartments(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, depts, 3)

	some, err := store.ListActiveDepartments(ctx, []int64{seed.Water.DepartmentID, seed.Closed.DepartmentID, 777})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, seed.Water.DepartmentID, some[0].DepartmentID)

	closed, err := store.GetDepartment(ctx, seed.Closed.DepartmentID)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)
	assert.False(t, closed.MaxBudget.Valid)
}

func TestWithinTx_Rollback(t *testing.T) {
	store := sqlitetest.Open(t)
	ctx := context.Background()
	inc := sqlitetest.NewIncident(t, store, "road", 2, reportedAt)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx service.Tx) error {
		inc.Status = models.IncidentAssigned
		if err := tx.UpdateIncident(ctx, inc); err != nil {
			return err
		}
		return boom
	})
	assert.Same(t, boom, err)

	got, err := store.GetIncident(ctx, inc.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentNew, got.Status)
	assert.Equal(t, int64(1), got.Version)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := repository.Open("postgres", "", 1)
	assert.Error(t, err)
}
