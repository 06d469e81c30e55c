package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"story-agent/internal/classify"
	"story-agent/internal/compose"
	"story-agent/internal/logging"
	"story-agent/internal/model"
	"story-agent/internal/music"
	"story-agent/internal/watcher"
)

type composerFunc func(ctx context.Context, videoPath, musicPath, caption, outputPath string) (compose.Result, error)

func (f composerFunc) Compose(ctx context.Context, videoPath, musicPath, caption, outputPath string) (compose.Result, error) {
	return f(ctx, videoPath, musicPath, caption, outputPath)
}

type recordingNotifier struct {
	mu        sync.Mutex
	succeeded []model.ProcessingJob
	failed    []model.ProcessingJob
}

func (n *recordingNotifier) JobSucceeded(_ context.Context, job model.ProcessingJob) {
	n.mu.Lock()
	n.succeeded = append(n.succeeded, job)
	n.mu.Unlock()
}

func (n *recordingNotifier) JobFailed(_ context.Context, job model.ProcessingJob, _ error) {
	n.mu.Lock()
	n.failed = append(n.failed, job)
	n.mu.Unlock()
}

func testRunner(t *testing.T, composer Composer, musicRoot string) (*Runner, *Stats, string) {
	t.Helper()
	log, err := logging.New(t.TempDir())
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	outbox := t.TempDir()
	stats := NewStats()
	runner := NewRunner(log, watcher.NewDedup(), classify.New(log, nil),
		music.NewCatalog(musicRoot, log), composer, stats, outbox, 2*time.Second)
	return runner, stats, outbox
}

func musicRootWithTrack(t *testing.T, style model.Style) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, string(style))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "track.mp3"), []byte("riff"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestProcessSuccess(t *testing.T) {
	var gotMusic, gotCaption string
	composer := composerFunc(func(_ context.Context, _, musicPath, caption, outputPath string) (compose.Result, error) {
		gotMusic = musicPath
		gotCaption = caption
		if err := os.WriteFile(outputPath, []byte("clip"), 0o644); err != nil {
			return compose.Result{}, err
		}
		return compose.Result{OutputPath: outputPath}, nil
	})

	runner, stats, outbox := testRunner(t, composer, musicRootWithTrack(t, model.StyleEnergetic))
	notifier := &recordingNotifier{}
	runner.WithNotifier(notifier)
	runner.now = func() time.Time { return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) }

	job, err := runner.Process(context.Background(), model.FileEvent{Path: "/inbox/energia_total.mp4"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if job.Status != model.JobDone {
		t.Fatalf("status = %s, want done", job.Status)
	}
	if job.Style != model.StyleEnergetic {
		t.Fatalf("style = %s, want %s", job.Style, model.StyleEnergetic)
	}
	if gotCaption != "⚡ Força Total" {
		t.Fatalf("caption = %q", gotCaption)
	}
	if filepath.Base(gotMusic) != "track.mp3" {
		t.Fatalf("music = %q", gotMusic)
	}
	if want := filepath.Join(outbox, "05-01-26.Bomdia.mp4"); job.OutputPath != want {
		t.Fatalf("output = %q, want %q", job.OutputPath, want)
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		t.Fatalf("output file missing: %v", err)
	}

	snap := stats.Snapshot()
	if snap.Seen != 1 || snap.Succeeded != 1 || snap.Failed != 0 {
		t.Fatalf("stats = %+v", snap)
	}
	if len(notifier.succeeded) != 1 || len(notifier.failed) != 0 {
		t.Fatalf("notifier calls: %d ok, %d failed", len(notifier.succeeded), len(notifier.failed))
	}
}

func TestProcessDuplicate(t *testing.T) {
	composer := composerFunc(func(_ context.Context, _, _, _, outputPath string) (compose.Result, error) {
		return compose.Result{OutputPath: outputPath}, nil
	})
	runner, stats, _ := testRunner(t, composer, musicRootWithTrack(t, model.StyleEnergetic))

	if !runner.dedup.Admit("/inbox/energia.mp4") {
		t.Fatal("setup: admit failed")
	}
	_, err := runner.Process(context.Background(), model.FileEvent{Path: "/inbox/energia.mp4"})
	if !errors.Is(err, ErrDuplicateJob) {
		t.Fatalf("err = %v, want ErrDuplicateJob", err)
	}
	if snap := stats.Snapshot(); snap.Failed != 0 {
		t.Fatalf("duplicate must not count as failure: %+v", snap)
	}
}

func TestProcessNoMusic(t *testing.T) {
	composer := composerFunc(func(_ context.Context, _, _, _, _ string) (compose.Result, error) {
		t.Fatal("composer must not run without music")
		return compose.Result{}, nil
	})
	runner, stats, _ := testRunner(t, composer, t.TempDir())
	notifier := &recordingNotifier{}
	runner.WithNotifier(notifier)

	job, err := runner.Process(context.Background(), model.FileEvent{Path: "/inbox/energia.mp4"})
	if !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("err = %v, want ErrAssetNotFound", err)
	}
	if job.Status != model.JobFailed || job.Err == "" {
		t.Fatalf("job = %+v", job)
	}
	if snap := stats.Snapshot(); snap.Failed != 1 {
		t.Fatalf("stats = %+v", snap)
	}
	if len(notifier.failed) != 1 {
		t.Fatalf("failure notification missing")
	}
}

func TestProcessComposeTimeout(t *testing.T) {
	composer := composerFunc(func(ctx context.Context, _, _, _, outputPath string) (compose.Result, error) {
		// Simulate a wedged worker leaving a partial file behind.
		os.WriteFile(outputPath, []byte("partial"), 0o644)
		<-ctx.Done()
		return compose.Result{}, ErrCompositionTimeout
	})
	runner, stats, _ := testRunner(t, composer, musicRootWithTrack(t, model.StyleEnergetic))
	runner.timeout = 50 * time.Millisecond

	job, err := runner.Process(context.Background(), model.FileEvent{Path: "/inbox/energia.mp4"})
	if !errors.Is(err, ErrCompositionTimeout) {
		t.Fatalf("err = %v, want ErrCompositionTimeout", err)
	}
	if job.Status != model.JobFailed {
		t.Fatalf("status = %s, want failed", job.Status)
	}
	if _, statErr := os.Stat(job.OutputPath); !os.IsNotExist(statErr) {
		t.Fatalf("partial output should be removed, stat err = %v", statErr)
	}
	if snap := stats.Snapshot(); snap.Failed != 1 {
		t.Fatalf("stats = %+v", snap)
	}
}

func TestProcessReleasesDedup(t *testing.T) {
	composer := composerFunc(func(_ context.Context, _, _, _, outputPath string) (compose.Result, error) {
		return compose.Result{}, errors.New("boom")
	})
	runner, _, _ := testRunner(t, composer, musicRootWithTrack(t, model.StyleEnergetic))

	_, _ = runner.Process(context.Background(), model.FileEvent{Path: "/inbox/energia.mp4"})
	if runner.dedup.Active() != 0 {
		t.Fatalf("dedup still holds %d entries after failure", runner.dedup.Active())
	}
}

func TestDeriveDescription(t *testing.T) {
	cases := map[string]string{
		"/inbox/treino_equipe-2026.mp4": "treino equipe 2026",
		"/inbox/manual.v2.mov":          "manual v2",
		"clip.mp4":                      "clip",
	}
	for in, want := range cases {
		if got := deriveDescription(in); got != want {
			t.Errorf("deriveDescription(%q) = %q, want %q", in, got, want)
		}
	}
}
