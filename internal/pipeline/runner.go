package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"story-agent/internal/classify"
	"story-agent/internal/logging"
	"story-agent/internal/model"
	"story-agent/internal/music"
	"story-agent/internal/watcher"
)

// Notifier receives job outcomes. Implementations must not block for long.
type Notifier interface {
	JobSucceeded(ctx context.Context, job model.ProcessingJob)
	JobFailed(ctx context.Context, job model.ProcessingJob, jobErr error)
}

// Mirror uploads a finished artifact to remote storage.
type Mirror interface {
	Upload(ctx context.Context, localPath string) error
}

// Runner drives one file event through the whole pipeline: classify,
// pick music, compose, deliver.
type Runner struct {
	log        *logging.Logger
	dedup      *watcher.Dedup
	classifier *classify.Classifier
	catalog    *music.Catalog
	composer   Composer
	stats      *Stats

	outboxDir string
	timeout   time.Duration

	notifier Notifier
	mirror   Mirror

	now func() time.Time
}

func NewRunner(log *logging.Logger, dedup *watcher.Dedup, classifier *classify.Classifier,
	catalog *music.Catalog, composer Composer, stats *Stats,
	outboxDir string, timeout time.Duration) *Runner {
	return &Runner{
		log:        log,
		dedup:      dedup,
		classifier: classifier,
		catalog:    catalog,
		composer:   composer,
		stats:      stats,
		outboxDir:  outboxDir,
		timeout:    timeout,
		now:        time.Now,
	}
}

// WithNotifier attaches an optional outcome notifier.
func (r *Runner) WithNotifier(n Notifier) *Runner {
	r.notifier = n
	return r
}

// WithMirror attaches an optional artifact mirror.
func (r *Runner) WithMirror(m Mirror) *Runner {
	r.mirror = m
	return r
}

// Process handles a single debounced file event end to end. The returned
// job carries the final status even when an error is returned.
func (r *Runner) Process(ctx context.Context, event model.FileEvent) (model.ProcessingJob, error) {
	r.stats.Seen()

	job := model.ProcessingJob{
		SourcePath: event.Path,
		Status:     model.JobPending,
		StartedAt:  r.now(),
	}

	if !r.dedup.Admit(event.Path) {
		r.log.Warnf("pipeline: %s is already in flight, skipping", filepath.Base(event.Path))
		return job, ErrDuplicateJob
	}
	defer r.dedup.Release(event.Path)

	job.Status = model.JobAnalyzing
	description := deriveDescription(event.Path)
	job.Caption, job.Style = r.classifier.Classify(ctx, event.Path, description)
	r.log.Infof("pipeline: %s classified as %s with caption %q",
		filepath.Base(event.Path), job.Style, job.Caption)

	job.Status = model.JobSelecting
	track, err := r.catalog.Select(job.Style)
	if err != nil {
		if errors.Is(err, music.ErrNoTracks) {
			err = fmt.Errorf("%w: %v", ErrAssetNotFound, err)
		}
		return r.fail(ctx, job, fmt.Errorf("select music: %w", err))
	}
	job.AssetPath = track
	r.log.Infof("pipeline: using track %s", filepath.Base(track))

	job.OutputPath = filepath.Join(r.outboxDir, OutputName(r.now()))

	job.Status = model.JobComposing
	composeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.composer.Compose(composeCtx, job.SourcePath, job.AssetPath, job.Caption, job.OutputPath)
	if err != nil {
		// A killed worker can leave a partial file behind.
		os.Remove(job.OutputPath)
		return r.fail(ctx, job, err)
	}

	job.Status = model.JobDone
	job.FinishedAt = r.now()
	r.stats.Succeeded(result.Degraded)
	r.log.Infof("pipeline: ✓ %s ready (degraded=%v, took %s)",
		filepath.Base(job.OutputPath), result.Degraded, job.FinishedAt.Sub(job.StartedAt).Round(time.Millisecond))

	if r.mirror != nil {
		if err := r.mirror.Upload(ctx, job.OutputPath); err != nil {
			r.log.Errorf("pipeline: mirror upload failed for %s: %v", filepath.Base(job.OutputPath), err)
		}
	}
	if r.notifier != nil {
		r.notifier.JobSucceeded(ctx, job)
	}
	return job, nil
}

func (r *Runner) fail(ctx context.Context, job model.ProcessingJob, err error) (model.ProcessingJob, error) {
	job.Status = model.JobFailed
	job.Err = err.Error()
	job.FinishedAt = r.now()
	r.stats.Failed()
	r.log.Errorf("pipeline: ✗ %s failed: %v", filepath.Base(job.SourcePath), err)
	if r.notifier != nil {
		r.notifier.JobFailed(ctx, job, err)
	}
	return job, err
}

// deriveDescription turns a file name into the text the classifier works
// on: base name without extension, separators normalized to spaces.
func deriveDescription(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
