package score

import (
	"sync"
	"time"
)

// Stopwatch measures how long a game takes. The zero value is not usable;
// create one with NewStopwatch.
type Stopwatch struct {
	mu      sync.Mutex
	now     func() time.Time
	started time.Time
	stopped time.Time
	running bool
}

// NewStopwatch creates a stopwatch reading the given clock, or the wall
// clock when now is nil.
func NewStopwatch(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	return &Stopwatch{now: now}
}

// Start (re)starts the stopwatch from zero
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = s.now()
	s.stopped = time.Time{}
	s.running = true
}

// Stop freezes the stopwatch and returns the elapsed time. Stopping twice
// keeps the first reading.
func (s *Stopwatch) Stop() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.stopped = s.now()
		s.running = false
	}
	return s.elapsed()
}

// Elapsed returns the time since Start, frozen once stopped
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed()
}

// Running reports whether the stopwatch is counting
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Stopwatch) elapsed() time.Duration {
	switch {
	case s.started.IsZero():
		return 0
	case s.running:
		return s.now().Sub(s.started)
	default:
		return s.stopped.Sub(s.started)
	}
}
