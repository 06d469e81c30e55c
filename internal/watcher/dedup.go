package watcher

import "sync"

// Dedup is the admission gate that keeps at most one active job per source
// path. Admit and Release are atomic with respect to each other.
type Dedup struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewDedup() *Dedup {
	return &Dedup{inflight: make(map[string]struct{})}
}

// Admit marks path as in-flight and returns true, or returns false when a job
// for the path is already running. Callers must drop the event on false.
func (d *Dedup) Admit(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.inflight[path]; ok {
		return false
	}
	d.inflight[path] = struct{}{}
	return true
}

// Release clears the in-flight marker. It must run exactly once per admitted
// job, deferred so a panicking job never blocks its path forever.
func (d *Dedup) Release(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, path)
}

// Active returns the number of in-flight jobs.
func (d *Dedup) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}
