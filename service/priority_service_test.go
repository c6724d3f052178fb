package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicreport/models"
	"civicreport/repository"
	"civicreport/repository/sqlitetest"
	"civicreport/service"
)

func TestRecomputePriority_CreatesRecord(t *testing.T) {
	f := newFixture(t)
	inc := sqlitetest.NewIncident(t, f.store, "road", 2, f.now.Add(-2*time.Hour))

	_, err := f.priority.GetPriority(f.ctx, inc.IncidentID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	p, err := f.priority.RecomputePriority(f.ctx, inc.IncidentID)
	require.NoError(t, err)
	assert.NotZero(t, p.PriorityID)
	assert.Equal(t, 3, p.CategoryPriority)
	assert.Equal(t, int64(46*60), p.TimeToDeadline)
	assert.InDelta(t, 90, p.PriorityScore, 0.0001)
	assert.Equal(t, models.UrgencyCritical, p.UrgencyLevel)

	stored, err := f.priority.GetPriority(f.ctx, inc.IncidentID)
	require.NoError(t, err)
	assert.Equal(t, p.PriorityID, stored.PriorityID)
	assert.Equal(t, 2, stored.Severity)
	assert.NotNil(t, stored.Triggers)

	_, err = f.priority.RecomputePriority(f.ctx, 5150)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRecomputePriority_KeepsBonus(t *testing.T) {
	f := newFixture(t)
	inc := f.dispatchedIncident(t, "road", 2, "roads_field")
	_, err := f.escalate(t, inc.IncidentID, "roads_field", "roads_nodal", models.EscalationHierarchy)
	require.NoError(t, err)

	f.advance(24 * time.Hour)
	p, err := f.priority.RecomputePriority(f.ctx, inc.IncidentID)
	require.NoError(t, err)
	assert.InDelta(t, service.EscalationBonus, p.BonusScore, 0.0001)
	assert.InDelta(t, service.BaseScore(p)+service.EscalationBonus, p.PriorityScore, 0.0001)
	assert.Equal(t, 1, p.DaysSinceReported)
}

func TestUpdateCommunitySupport(t *testing.T) {
	f := newFixture(t)
	inc := f.dispatchedIncident(t, "road", 2, "roads_field")

	p, err := f.priority.UpdateCommunitySupport(f.ctx, inc.IncidentID, models.CommunitySupportRequest{
		SignatureWeight: 10,
		UpvoteWeight:    50,
	})
	require.NoError(t, err)
	// signatures contribute 20, upvotes are capped at 20
	assert.InDelta(t, 130, p.PriorityScore, 0.0001)
	assert.Equal(t, models.UrgencyEmergency, p.UrgencyLevel)

	_, err = f.priority.UpdateCommunitySupport(f.ctx, inc.IncidentID, models.CommunitySupportRequest{SignatureWeight: -1})
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	stored, err := f.priority.GetPriority(f.ctx, inc.IncidentID)
	require.NoError(t, err)
	assert.InDelta(t, 10, stored.SignatureWeight, 0.0001, "rejected update leaves the record alone")
}

func TestUpdateAllPriorities(t *testing.T) {
	f := newFixture(t)
	road := f.dispatchedIncident(t, "road", 2, "roads_field")
	school := f.dispatchedIncident(t, "education", 1, "roads_field_2")
	_, err := f.escalate(t, road.IncidentID, "roads_field", "roads_nodal", models.EscalationHierarchy)
	require.NoError(t, err)
	_, err = f.priority.UpdateCommunitySupport(f.ctx, school.IncidentID, models.CommunitySupportRequest{UpvoteWeight: 5})
	require.NoError(t, err)

	// road deadline is 46h out at dispatch
	f.advance(47 * time.Hour)
	result, err := f.priority.UpdateAllPriorities(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Updated)
	assert.Zero(t, result.Failed)
	assert.True(t, result.StartedAt.Equal(f.now))

	p, err := f.priority.GetPriority(f.ctx, road.IncidentID)
	require.NoError(t, err)
	assert.True(t, p.SLABreached)
	assert.True(t, p.IsOverdue)
	assert.Zero(t, p.TimeToDeadline)
	assert.InDelta(t, service.EscalationBonus, p.BonusScore, 0.0001)
	assert.InDelta(t, service.BaseScore(p)+service.EscalationBonus, p.PriorityScore, 0.0001)
	assert.Equal(t, models.UrgencyEmergency, p.UrgencyLevel)

	s, err := f.priority.GetPriority(f.ctx, school.IncidentID)
	require.NoError(t, err)
	assert.InDelta(t, 5, s.UpvoteWeight, 0.0001)
	assert.InDelta(t, service.BaseScore(s), s.PriorityScore, 0.0001)

	again, err := f.priority.UpdateAllPriorities(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Updated)
	p2, err := f.priority.GetPriority(f.ctx, road.IncidentID)
	require.NoError(t, err)
	assert.InDelta(t, p.PriorityScore, p2.PriorityScore, 0.0001, "sweep is idempotent at a fixed time")
	assert.InDelta(t, p.BonusScore, p2.BonusScore, 0.0001)
}

func TestUpdateAllPriorities_CanceledContext(t *testing.T) {
	f := newFixture(t)
	f.dispatchedIncident(t, "road", 2, "roads_field")

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	_, err := f.priority.UpdateAllPriorities(ctx)
	assert.Error(t, err)
}

// sweepStore fails computed updates for one incident and can hold the sweep after listing
type sweepStore struct {
	*repository.Store
	failIncident int64
	listed       chan struct{}
	release      chan struct{}
	lists        atomic.Int32
}

func (s *sweepStore) ListPrioritiesWithIncidents(ctx context.Context) ([]models.PriorityWithIncident, error) {
	s.lists.Add(1)
	if s.listed != nil {
		s.listed <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	return s.Store.ListPrioritiesWithIncidents(ctx)
}

func (s *sweepStore) UpdateComputedPriority(ctx context.Context, p *models.IncidentPriority) error {
	if p.IncidentID == s.failIncident {
		return errors.New("disk I/O error")
	}
	return s.Store.UpdateComputedPriority(ctx, p)
}

func TestUpdateAllPriorities_RecordFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	road := f.dispatchedIncident(t, "road", 2, "roads_field")
	school := f.dispatchedIncident(t, "education", 1, "roads_field_2")

	store := &sweepStore{Store: f.store, failIncident: school.IncidentID}
	sweeps := service.NewPriorityService(store, service.NewIncidentLocks(), func() time.Time { return f.now })

	// road deadline is 46h out at dispatch
	f.advance(50 * time.Hour)
	result, err := sweeps.UpdateAllPriorities(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []int64{school.IncidentID}, result.FailedIDs)

	p, err := f.priority.GetPriority(f.ctx, road.IncidentID)
	require.NoError(t, err)
	assert.True(t, p.SLABreached, "records after a failure are still rewritten")
	assert.Equal(t, 2, p.DaysSinceReported)

	s, err := f.priority.GetPriority(f.ctx, school.IncidentID)
	require.NoError(t, err)
	assert.Zero(t, s.DaysSinceReported, "failed record keeps its previous values")
}

func TestUpdateAllPriorities_CanceledCallerDoesNotStopSharedRun(t *testing.T) {
	f := newFixture(t)
	f.dispatchedIncident(t, "road", 2, "roads_field")
	f.dispatchedIncident(t, "education", 1, "roads_field_2")

	store := &sweepStore{Store: f.store, listed: make(chan struct{}, 1), release: make(chan struct{})}
	sweeps := service.NewPriorityService(store, service.NewIncidentLocks(), func() time.Time { return f.now })

	first, cancel := context.WithCancel(f.ctx)
	firstErr := make(chan error, 1)
	go func() {
		_, err := sweeps.UpdateAllPriorities(first)
		firstErr <- err
	}()

	<-store.listed
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	time.AfterFunc(100*time.Millisecond, func() { close(store.release) })
	result, err := sweeps.UpdateAllPriorities(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Updated)
	assert.Zero(t, result.Failed)
	assert.Equal(t, int32(1), store.lists.Load(), "second caller joins the first run")
}
