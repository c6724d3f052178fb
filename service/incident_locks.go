package service

import "sync"

// IncidentLocks serialises workflow writes per incident within one process.
// Cross-process safety comes from the optimistic version check in the store.
type IncidentLocks struct {
	mu    sync.Mutex
	locks map[int64]*incidentLock
}

type incidentLock struct {
	mu   sync.Mutex
	refs int
}

// NewIncidentLocks creates an empty lock table
func NewIncidentLocks() *IncidentLocks {
	return &IncidentLocks{locks: make(map[int64]*incidentLock)}
}

// Lock blocks until the caller holds the incident; the returned func releases it
func (l *IncidentLocks) Lock(incidentID int64) func() {
	l.mu.Lock()
	lk, ok := l.locks[incidentID]
	if !ok {
		lk = &incidentLock{}
		l.locks[incidentID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, incidentID)
		}
		l.mu.Unlock()
	}
}
