package edition

import (
	"sync"
	"sync/atomic"
	"time"
)

// Ticket identifies one selection made through a Selector.
type Ticket uint64

// Selector orders the selections of one client. Each selection takes a
// ticket before rendering starts; when the render finishes, the result is
// kept only if no newer selection was made in the meantime.
type Selector struct {
	gen atomic.Uint64
}

// Begin records a new selection and returns its ticket.
func (s *Selector) Begin() Ticket {
	return Ticket(s.gen.Add(1))
}

// Current reports whether t is still the latest selection.
func (s *Selector) Current(t Ticket) bool {
	return uint64(t) == s.gen.Load()
}

// Sessions holds one Selector per client session. Sessions idle for longer
// than the eviction age are dropped by Cleanup.
type Sessions struct {
	mu sync.Mutex
	m  map[string]*session
}

type session struct {
	sel      *Selector
	lastUsed time.Time
}

// Selector returns the selector of a session, creating it on first use.
func (s *Sessions) Selector(id string) *Selector {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string]*session)
	}
	e, ok := s.m[id]
	if !ok {
		e = &session{sel: &Selector{}}
		s.m[id] = e
	}
	e.lastUsed = time.Now()
	return e.sel
}

// Cleanup drops sessions not used within maxIdle.
func (s *Sessions) Cleanup(maxIdle time.Duration) {
	s.evict(time.Now().Add(-maxIdle))
}

func (s *Sessions) evict(before time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.m {
		if e.lastUsed.Before(before) {
			delete(s.m, id)
		}
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
