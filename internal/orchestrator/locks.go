package orchestrator

import "sync"

// missionLocks serializes step execution per mission while leaving distinct
// missions free to run in parallel. Entries are never reclaimed; the map is
// bounded by the number of missions ever touched by this process.
type missionLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newMissionLocks() *missionLocks {
	return &missionLocks{locks: make(map[int64]*sync.Mutex)}
}

// acquire blocks until the mission's lock is held and returns the release.
func (l *missionLocks) acquire(missionID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[missionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[missionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
