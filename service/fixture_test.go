package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"civicreport/models"
	"civicreport/repository"
	"civicreport/repository/sqlitetest"
	"civicreport/service"
)

// dispatcherUserID is the intake operator that performs initial dispatch
const dispatcherUserID int64 = 900

var baseTime = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

type fixture struct {
	ctx   context.Context
	store *repository.Store
	seed  *sqlitetest.Seed
	now   time.Time

	escalation   *service.EscalationService
	coordination *service.CoordinationService
	assignment   *service.AssignmentService
	priority     *service.PriorityService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := sqlitetest.Open(t)
	f := &fixture{
		ctx:   context.Background(),
		store: store,
		seed:  sqlitetest.SeedJurisdiction(t, store),
		now:   baseTime,
	}
	clock := func() time.Time { return f.now }
	store.WithClock(clock)
	locks := service.NewIncidentLocks()
	f.escalation = service.NewEscalationService(store, locks, clock)
	f.coordination = service.NewCoordinationService(store, locks, clock)
	f.assignment = service.NewAssignmentService(store, locks, clock)
	f.priority = service.NewPriorityService(store, locks, clock)
	return f
}

func (f *fixture) officer(t *testing.T, key string) *models.Officer {
	return f.seed.Officer(t, key)
}

// advance moves the fixture clock forward
func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// dispatchedIncident creates an incident reported two hours ago and dispatches it to officerKey
func (f *fixture) dispatchedIncident(t *testing.T, category string, severity int, officerKey string) *models.Incident {
	t.Helper()
	inc := sqlitetest.NewIncident(t, f.store, category, severity, f.now.Add(-2*time.Hour))
	_, err := f.assignment.DispatchIncident(f.ctx, inc.IncidentID, dispatcherUserID, models.DispatchRequest{
		OfficerID: f.officer(t, officerKey).OfficerID,
	})
	require.NoError(t, err)
	return f.incident(t, inc.IncidentID)
}

func (f *fixture) incident(t *testing.T, id int64) *models.Incident {
	t.Helper()
	inc, err := f.store.GetIncident(f.ctx, id)
	require.NoError(t, err)
	return inc
}

func (f *fixture) trail(t *testing.T, incidentID int64) []models.Assignment {
	t.Helper()
	trail, err := f.store.ListAssignmentsByIncident(f.ctx, incidentID)
	require.NoError(t, err)
	return trail
}

// currentPrimaries returns the current non-coordinator assignments of an incident
func (f *fixture) currentPrimaries(t *testing.T, incidentID int64) []models.Assignment {
	t.Helper()
	var out []models.Assignment
	for _, a := range f.trail(t, incidentID) {
		if a.IsCurrent && !a.IsCoordinator() {
			out = append(out, a)
		}
	}
	return out
}

func (f *fixture) escalate(t *testing.T, incidentID int64, fromKey, toKey string, escalationType models.EscalationType) (*models.EscalationRecord, error) {
	t.Helper()
	return f.escalation.EscalateIncident(f.ctx, incidentID, f.officer(t, fromKey).UserID, models.EscalateRequest{
		TargetOfficerID: f.officer(t, toKey).OfficerID,
		EscalationType:  escalationType,
		Reason:          "Needs approval beyond field authority",
	})
}
