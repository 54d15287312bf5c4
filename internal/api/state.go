package api

import (
	"sync"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// jobsCache maps resolve job ids to their actors. Entries are removed when the
// job actor stops.
type jobsCache struct {
	mu  sync.RWMutex
	ids map[uuid.UUID]*actor.PID
}

func newJobsCache() *jobsCache {
	return &jobsCache{
		ids: map[uuid.UUID]*actor.PID{},
	}
}

func (s *jobsCache) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (s *jobsCache) add(id uuid.UUID, pid *actor.PID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = pid
}

func (s *jobsCache) get(id uuid.UUID) (*actor.PID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pid, ok := s.ids[id]
	return pid, ok
}

func (s *jobsCache) all() []*actor.PID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pids := make([]*actor.PID, 0, len(s.ids))
	for _, pid := range s.ids {
		pids = append(pids, pid)
	}
	return pids
}
