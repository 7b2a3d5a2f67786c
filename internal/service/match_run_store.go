package service

import (
	"sync"
	"time"

	"github.com/noah-isme/skillbridge-matcher/internal/dto"
)

// matchRunStore keeps recent run results in memory for polling.
type matchRunStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]dto.MatchRunResponse
}

func newMatchRunStore(ttl time.Duration) *matchRunStore {
	return &matchRunStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]dto.MatchRunResponse),
	}
}

func (s *matchRunStore) Save(run dto.MatchRunResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[run.RunID] = run
	s.evictLocked()
}

func (s *matchRunStore) Get(id string) (dto.MatchRunResponse, bool) {
	s.mu.RLock()
	run, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.MatchRunResponse{}, false
	}
	if s.expired(run) {
		s.Delete(id)
		return dto.MatchRunResponse{}, false
	}
	return run, true
}

// Update applies fn to a stored run; it is a no-op when the run is gone.
func (s *matchRunStore) Update(id string, fn func(*dto.MatchRunResponse)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.items[id]
	if !ok {
		return false
	}
	fn(&run)
	s.items[id] = run
	return true
}

func (s *matchRunStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *matchRunStore) expired(run dto.MatchRunResponse) bool {
	return s.now().Sub(run.SubmittedAt) > s.ttl
}

func (s *matchRunStore) evictLocked() {
	for id, run := range s.items {
		if s.expired(run) {
			delete(s.items, id)
		}
	}
}
