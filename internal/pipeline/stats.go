package pipeline

import (
	"sync"
	"time"
)

// Stats keeps run counters for the lifetime of the process.
type Stats struct {
	mu        sync.Mutex
	seen      int
	succeeded int
	failed    int
	degraded  int
	startedAt time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Seen      int           `json:"seen"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Degraded  int           `json:"degraded"`
	Uptime    time.Duration `json:"uptime"`
}

func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

func (s *Stats) Seen() {
	s.mu.Lock()
	s.seen++
	s.mu.Unlock()
}

func (s *Stats) Succeeded(degraded bool) {
	s.mu.Lock()
	s.succeeded++
	if degraded {
		s.degraded++
	}
	s.mu.Unlock()
}

func (s *Stats) Failed() {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Seen:      s.seen,
		Succeeded: s.succeeded,
		Failed:    s.failed,
		Degraded:  s.degraded,
		Uptime:    time.Since(s.startedAt).Round(time.Second),
	}
}
