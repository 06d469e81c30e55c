package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"

	"story-agent/internal"
	"story-agent/internal/classify"
	"story-agent/internal/compose"
	"story-agent/internal/logging"
	"story-agent/internal/mirror"
	"story-agent/internal/model"
	"story-agent/internal/music"
	"story-agent/internal/notify"
	"story-agent/internal/pipeline"
	"story-agent/internal/watcher"
)

// VideoExtensions are the inbox file types that trigger a composition.
var VideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}

// DocumentExtensions are the knowledge base file types forwarded to the
// external index.
var DocumentExtensions = []string{".pdf", ".docx", ".txt", ".md", ".xlsx"}

// Service owns the watchers, the pipeline and the maintenance cron.
type Service struct {
	cfg  internal.Config
	log  *logging.Logger
	cron *cron.Cron

	inbox   *watcher.Monitor
	kbWatch *watcher.Monitor
	reindex *ReindexNotifier

	runner     *pipeline.Runner
	stats      *pipeline.Stats
	catalog    *music.Catalog
	classifier *classify.Classifier
	notifier   *notify.TelegramNotifier

	wg sync.WaitGroup
}

func BuildService(ctx context.Context, log *logging.Logger) (*Service, error) {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return nil, err
	}
	return buildWithConfig(ctx, cfg, log)
}

func buildWithConfig(ctx context.Context, cfg internal.Config, log *logging.Logger) (*Service, error) {
	for _, dir := range []string{cfg.InboxDir, cfg.OutboxDir, cfg.WorkDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	catalog := music.NewCatalog(cfg.MusicDir, log)
	if err := catalog.EnsureLayout(); err != nil {
		return nil, fmt.Errorf("music layout: %w", err)
	}

	classifier := classify.New(log, captionService(ctx, cfg, log))

	stats := pipeline.NewStats()
	runner := pipeline.NewRunner(log, watcher.NewDedup(), classifier, catalog,
		buildComposer(cfg, log), stats, cfg.OutboxDir, cfg.ComposeTimeout)

	inbox, err := watcher.New(watcher.Options{
		Dir:        cfg.InboxDir,
		Extensions: VideoExtensions,
		Debounce:   cfg.DebounceWindow,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("inbox watch: %w", err)
	}

	s := &Service{
		cfg:        cfg,
		log:        log,
		cron:       cron.New(cron.WithSeconds()),
		inbox:      inbox,
		runner:     runner,
		stats:      stats,
		catalog:    catalog,
		classifier: classifier,
	}

	if cfg.KnowledgeBaseDir != "" && cfg.ReindexURL != "" {
		kb, err := watcher.New(watcher.Options{
			Dir:        cfg.KnowledgeBaseDir,
			Recursive:  true,
			Extensions: DocumentExtensions,
			Ignore:     VideoExtensions,
			Debounce:   cfg.DebounceWindow,
		}, log)
		if err != nil {
			// The production watch stays up even when the document
			// folder is broken.
			log.Errorf("service: knowledge base watch disabled: %v", err)
		} else {
			s.kbWatch = kb
			s.reindex = NewReindexNotifier(cfg.ReindexURL, log)
		}
	}

	if cfg.NotifyEnabled() {
		notifier, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Errorf("service: telegram disabled: %v", err)
		} else {
			s.notifier = notifier
			runner.WithNotifier(notifier)
		}
	}

	if cfg.MirrorEnabled() {
		m, err := mirror.NewS3(cfg, log)
		if err != nil {
			log.Errorf("service: mirror disabled: %v", err)
		} else {
			runner.WithMirror(m)
		}
	}

	if err := s.registerCron(); err != nil {
		return nil, err
	}
	return s, nil
}

// captionService picks the caption backend: Gemini when an API key is
// present, a local Ollama endpoint otherwise.
func captionService(ctx context.Context, cfg internal.Config, log *logging.Logger) classify.CaptionService {
	if cfg.GeminiAPIKey != "" {
		log.Infof("service: captions via gemini")
		return classify.NewGeminiCaptioner(cfg.GeminiAPIKey)
	}

	ollama := classify.NewOllamaClient(cfg.CaptionServiceURL, cfg.CaptionServiceModel, cfg.CaptionTimeout)
	if err := ollama.Health(ctx); err != nil {
		log.Warnf("service: caption service unreachable, keyword captions only: %v", err)
	} else {
		log.Infof("service: captions via ollama model %s", cfg.CaptionServiceModel)
	}
	return ollama
}

// buildComposer prefers the isolated worker binary so a stuck render can be
// killed cleanly; without one it falls back to in-process rendering.
func buildComposer(cfg internal.Config, log *logging.Logger) pipeline.Composer {
	bin := cfg.ComposeBin
	if bin == "" {
		if exe, err := os.Executable(); err == nil {
			bin = filepath.Join(filepath.Dir(exe), "story-compose")
		}
	}
	if bin != "" {
		if _, err := os.Stat(bin); err == nil {
			log.Infof("service: composing via worker %s", bin)
			return pipeline.NewWorker(bin, log)
		}
	}
	log.Warnf("service: worker binary not found, composing in process")
	return compose.NewEngine(log, "", "", cfg.WorkDir)
}

func (s *Service) registerCron() error {
	// Hourly music catalog report.
	if _, err := s.cron.AddFunc("0 0 * * * *", func() {
		s.logCatalogReport()
	}); err != nil {
		return err
	}

	// Daily summary at 08:00.
	if _, err := s.cron.AddFunc("0 0 8 * * *", func() {
		snap := s.stats.Snapshot()
		text := fmt.Sprintf("📊 Resumo diário: %d recebidos, %d prontos (%d degradados), %d falhas, uptime %s",
			snap.Seen, snap.Succeeded, snap.Degraded, snap.Failed, snap.Uptime)
		s.log.Infof("cron: %s", text)
		if s.notifier != nil {
			s.notifier.SendSummary(text)
		}
	}); err != nil {
		return err
	}

	// Hourly sweep of stale scratch files.
	if _, err := s.cron.AddFunc("0 30 * * * *", func() {
		s.sweepWorkDir(24 * time.Hour)
	}); err != nil {
		return err
	}
	return nil
}

func (s *Service) logCatalogReport() {
	counts := lo.Map(model.AllStyles(), func(style model.Style, _ int) string {
		return fmt.Sprintf("%s=%d", style, s.catalog.CountTracks(style))
	})
	s.log.Infof("cron: music catalog: %v", counts)
}

func (s *Service) sweepWorkDir(maxAge time.Duration) {
	entries, err := os.ReadDir(s.cfg.WorkDir)
	if err != nil {
		s.log.Errorf("sweep: read work dir: %v", err)
		return
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "story-") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.WorkDir, entry.Name())); err == nil {
			removed++
		}
	}
	if removed > 0 {
		s.log.Infof("sweep: removed %d stale scratch files", removed)
	}
}

// Run starts the watchers and the cron and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.banner()
	s.cron.Start()
	s.inbox.Start(ctx)
	if s.kbWatch != nil {
		s.kbWatch.Start(ctx)
		s.wg.Add(1)
		go s.pumpReindex(ctx)
	}

	s.wg.Add(1)
	go s.pumpInbox(ctx)

	<-ctx.Done()

	s.inbox.Stop()
	if s.kbWatch != nil {
		s.kbWatch.Stop()
	}
	s.wg.Wait()

	ctxStop := s.cron.Stop()
	select {
	case <-ctxStop.Done():
	case <-time.After(10 * time.Second):
		s.log.Errorf("service: cron stop timeout")
	}

	snap := s.stats.Snapshot()
	s.log.Infof("service: final stats: %d received, %d produced (%d degraded), %d failed, uptime %s",
		snap.Seen, snap.Succeeded, snap.Degraded, snap.Failed, snap.Uptime)
	return nil
}

func (s *Service) pumpInbox(ctx context.Context) {
	defer s.wg.Done()
	for event := range s.inbox.Events() {
		event := event
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if _, err := s.runner.Process(ctx, event); err != nil &&
				!errors.Is(err, pipeline.ErrDuplicateJob) {
				s.log.Errorf("service: %s: %v", filepath.Base(event.Path), err)
			}
		}()
	}
}

func (s *Service) pumpReindex(ctx context.Context) {
	defer s.wg.Done()
	for event := range s.kbWatch.Events() {
		if err := s.reindex.Notify(ctx, event); err != nil {
			s.log.Errorf("service: reindex %s: %v", filepath.Base(event.Path), err)
		} else {
			s.log.Infof("service: reindex requested for %s", filepath.Base(event.Path))
		}
	}
}

// ProcessFile runs the full pipeline once for a single file, bypassing the
// watcher. Used by the one-shot CLI mode.
func (s *Service) ProcessFile(ctx context.Context, path string) (model.ProcessingJob, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return model.ProcessingJob{}, err
	}
	if _, err := os.Stat(abs); err != nil {
		return model.ProcessingJob{}, err
	}
	return s.runner.Process(ctx, model.FileEvent{
		Path:      abs,
		Kind:      model.EventCreated,
		Timestamp: time.Now(),
	})
}

// CaptionFor classifies a path without composing anything.
func (s *Service) CaptionFor(ctx context.Context, path string) (string, model.Style) {
	return s.classifier.Classify(ctx, path, "")
}

// TrackFor picks a music track for a style without composing anything.
func (s *Service) TrackFor(style model.Style) (string, error) {
	return s.catalog.Select(style)
}

func (s *Service) Stats() pipeline.Snapshot {
	return s.stats.Snapshot()
}

func (s *Service) banner() {
	s.log.Infof("service: watching %s, delivering to %s", s.cfg.InboxDir, s.cfg.OutboxDir)
	s.log.Infof("service: music root %s, debounce %s, compose timeout %s",
		s.cfg.MusicDir, s.cfg.DebounceWindow, s.cfg.ComposeTimeout)
	if s.kbWatch != nil {
		s.log.Infof("service: knowledge base watch on %s -> %s", s.cfg.KnowledgeBaseDir, s.cfg.ReindexURL)
	}
}
