package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"story-agent/internal/logging"
	"story-agent/internal/model"
)

// Options configures one watched folder.
type Options struct {
	Dir        string
	Recursive  bool
	Extensions []string // accepted extensions, lowercase, with leading dot
	Ignore     []string // extensions dropped even if otherwise accepted
	Debounce   time.Duration
}

// Monitor watches a single folder tree and emits debounced file-ready events.
// A burst of raw notifications for one path (partial copies, chunked writes)
// collapses into a single FileEvent once the path stays quiet for the full
// debounce window.
type Monitor struct {
	opts Options
	log  *logging.Logger
	fsw  *fsnotify.Watcher

	events chan model.FileEvent

	mu       sync.Mutex
	closed   bool
	debounce map[string]func(func())
	pending  map[string]model.EventKind

	wg sync.WaitGroup
}

// New creates a monitor for opts.Dir. The directory must exist; callers that
// watch several folders should treat an error here as skip-and-continue.
func New(opts Options, log *logging.Logger) (*Monitor, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = 2500 * time.Millisecond
	}
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", opts.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: not a directory", opts.Dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", opts.Dir, err)
	}

	m := &Monitor{
		opts:     opts,
		log:      log,
		fsw:      fsw,
		events:   make(chan model.FileEvent, 64),
		debounce: make(map[string]func(func())),
		pending:  make(map[string]model.EventKind),
	}

	if err := m.register(opts.Dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return m, nil
}

func (m *Monitor) register(dir string) error {
	if !m.opts.Recursive {
		return m.fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return m.fsw.Add(path)
		}
		return nil
	})
}

// Events returns the channel of debounced notifications. It is closed when
// the monitor stops.
func (m *Monitor) Events() <-chan model.FileEvent {
	return m.events
}

// Start runs the watch loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.loop(ctx)
	}()
}

// Stop tears the monitor down and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.fsw.Close()
	m.wg.Wait()
}

func (m *Monitor) loop(ctx context.Context) {
	// A debounce timer can still fire after the loop exits; closed is
	// flipped under the same lock emit sends under, so a late timer can
	// never hit the closed channel.
	defer func() {
		m.mu.Lock()
		m.closed = true
		close(m.events)
		m.mu.Unlock()
	}()
	for {
		select {
		case <-ctx.Done():
			m.fsw.Close()
			return
		case ev, ok := <-m.fsw.Events:
			if !ok {
				return
			}
			m.handleRaw(ev)
		case err, ok := <-m.fsw.Errors:
			if !ok {
				return
			}
			m.log.Warnf("watcher %s: %v", m.opts.Dir, err)
		}
	}
}

func (m *Monitor) handleRaw(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	path := filepath.Clean(ev.Name)

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		// New subdirectories join a recursive watch; directories never
		// become file events.
		if m.opts.Recursive && ev.Has(fsnotify.Create) {
			if err := m.fsw.Add(path); err != nil {
				m.log.Warnf("watcher %s: add %s: %v", m.opts.Dir, path, err)
			}
		}
		return
	}

	if !m.accepts(path) {
		return
	}

	kind := model.EventModified
	if ev.Has(fsnotify.Create) {
		kind = model.EventCreated
	}
	m.schedule(path, kind)
}

func (m *Monitor) accepts(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	if lo.Contains(m.opts.Ignore, ext) {
		return false
	}
	if len(m.opts.Extensions) > 0 && !lo.Contains(m.opts.Extensions, ext) {
		return false
	}
	return true
}

func (m *Monitor) schedule(path string, kind model.EventKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A Create seen anywhere in the burst wins over later Writes.
	if prev, ok := m.pending[path]; !ok || prev != model.EventCreated {
		m.pending[path] = kind
	}

	d, ok := m.debounce[path]
	if !ok {
		d = debounce.New(m.opts.Debounce)
		m.debounce[path] = d
	}
	d(func() { m.emit(path) })
}

func (m *Monitor) emit(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kind := m.pending[path]
	delete(m.pending, path)
	delete(m.debounce, path)
	if m.closed {
		return
	}

	// The file may have been removed during the quiet period.
	if _, err := os.Stat(path); err != nil {
		return
	}

	select {
	case m.events <- model.FileEvent{Path: path, Kind: kind, Timestamp: time.Now()}:
	default:
		m.log.Warnf("watcher %s: event buffer full, dropping %s", m.opts.Dir, path)
	}
}
