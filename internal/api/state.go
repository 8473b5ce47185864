package api

import (
	"sync"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

type runEntry struct {
	pid      *actor.PID
	started  time.Time
	finished time.Time
}

// requestsCache maps run ids to the actor hosting them. Entries become evictable once the
// event stream of their run has ended.
type requestsCache struct {
	mu  sync.Mutex
	ids map[uuid.UUID]*runEntry
	now func() time.Time
}

func newRequestsCache() *requestsCache {
	return &requestsCache{
		ids: map[uuid.UUID]*runEntry{},
		now: time.Now,
	}
}

func (s *requestsCache) add(id uuid.UUID, pid *actor.PID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = &runEntry{pid: pid, started: s.now()}
}

func (s *requestsCache) get(id uuid.UUID) (*actor.PID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.ids[id]
	if !ok {
		return nil, false
	}
	return e.pid, true
}

// finish marks the stream of id as ended.
func (s *requestsCache) finish(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.ids[id]; ok && e.finished.IsZero() {
		e.finished = s.now()
	}
}

func (s *requestsCache) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

// evict drops runs finished more than retention ago and returns their actors.
func (s *requestsCache) evict(retention time.Duration) []*actor.PID {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-retention)
	var pids []*actor.PID
	for id, e := range s.ids {
		if !e.finished.IsZero() && e.finished.Before(cutoff) {
			pids = append(pids, e.pid)
			delete(s.ids, id)
		}
	}
	return pids
}

// drain empties the cache and returns every actor it held.
func (s *requestsCache) drain() []*actor.PID {
	s.mu.Lock()
	defer s.mu.Unlock()
	pids := make([]*actor.PID, 0, len(s.ids))
	for id, e := range s.ids {
		pids = append(pids, e.pid)
		delete(s.ids, id)
	}
	return pids
}
