package broadcast

import (
	"sync"
	"time"
)

const defaultSessionTTL = 10 * time.Minute

// Sessions tracks at most one awaiting-payload session per administrator.
// The zero state (no entry) is the implicit Idle state; Closed is entry
// removal. Mutation for a given admin only ever comes from that admin's own
// updates, but distinct admins may race, hence the lock.
type Sessions struct {
	mu     sync.Mutex
	ttl    time.Duration
	active map[int64]time.Time // admin id -> session start

	now func() time.Time // test hook
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Sessions{
		ttl:    ttl,
		active: make(map[int64]time.Time),
		now:    time.Now,
	}
}

// Open starts (or restarts) the admin's session and reports whether one was
// already awaiting a payload. A second /broadcast re-enters the same state
// rather than stacking sessions.
func (s *Sessions) Open(admin int64) (reopened bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, reopened = s.active[admin]
	s.active[admin] = s.now()
	return reopened
}

// Close ends the admin's session and reports whether a live one existed.
// The check and the removal happen under one lock acquisition, so of any
// number of concurrent callers exactly one observes true. A session past
// its TTL is removed but reported as already closed.
func (s *Sessions) Close(admin int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	started, ok := s.active[admin]
	delete(s.active, admin)
	return ok && s.now().Sub(started) <= s.ttl
}
