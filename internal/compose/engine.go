package compose

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"story-agent/internal/logging"
)

// ffmpegSem limits the number of concurrent ffmpeg processes to 1 to avoid
// exhausting system threads on small hosts.
var ffmpegSem = make(chan struct{}, 1)

// Result reports what the engine actually produced.
type Result struct {
	OutputPath string
	// Degraded is set when the caption overlay had to be dropped or when
	// ffmpeg was unavailable and a placeholder was written instead.
	Degraded bool
	// Simulated is set together with Degraded in placeholder mode.
	Simulated bool
}

// Engine renders story clips with ffmpeg. When ffmpeg is not installed it
// falls back to placeholder artifacts so the pipeline keeps moving.
type Engine struct {
	log        *logging.Logger
	ffmpegBin  string
	ffprobeBin string
	workDir    string
}

func NewEngine(log *logging.Logger, ffmpegBin, ffprobeBin, workDir string) *Engine {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Engine{log: log, ffmpegBin: ffmpegBin, ffprobeBin: ffprobeBin, workDir: workDir}
}

// Available reports whether a real ffmpeg binary can be found.
func (e *Engine) Available() bool {
	_, err := exec.LookPath(e.ffmpegBin)
	return err == nil
}

// Compose renders one clip: trims to the duration cap, center-crops
// landscape sources to 9:16, replaces the source audio with a window of the
// music track and burns the caption in as two timed overlays.
func (e *Engine) Compose(ctx context.Context, videoPath, musicPath, caption, outputPath string) (Result, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return Result{}, fmt.Errorf("source video: %w", err)
	}
	if _, err := os.Stat(musicPath); err != nil {
		return Result{}, fmt.Errorf("music track: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}

	if !e.Available() {
		e.log.Warnf("compose: ffmpeg not found, writing placeholder for %s", filepath.Base(videoPath))
		if err := WriteStub(videoPath, musicPath, caption, outputPath); err != nil {
			return Result{}, err
		}
		return Result{OutputPath: outputPath, Degraded: true, Simulated: true}, nil
	}

	if _, err := safeLoad(videoPath); err != nil {
		return Result{}, fmt.Errorf("validate source %s: %w", videoPath, err)
	}

	videoInfo, err := Probe(ctx, e.ffprobeBin, videoPath)
	if err != nil {
		return Result{}, err
	}
	audioInfo, err := Probe(ctx, e.ffprobeBin, musicPath)
	if err != nil {
		return Result{}, err
	}

	spec := BuildSpec(videoInfo, audioInfo, caption, rand.Float64)
	e.log.Infof("compose: source %dx%d %.2fs, target %.2fs, crop=%dx%d, audio start=%.2fs loop=%v",
		videoInfo.Width, videoInfo.Height, videoInfo.DurationS,
		spec.TargetDurationS, spec.CropWidth, spec.CropHeight,
		spec.Audio.StartS, spec.Audio.Loop)

	// Render into work dir scratch; the outbox only ever sees finished
	// clips, never a partial encode.
	scratch, err := e.scratchPath()
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(scratch)

	degraded := false
	if err := e.run(ctx, videoPath, musicPath, scratch, spec, true); err != nil {
		if len(spec.Captions) == 0 || !overlayFailure(err) {
			return Result{}, err
		}
		// Text rendering is the fragile part (missing fonts, broken
		// fontconfig). A clip without captions still beats no clip.
		e.log.Warnf("compose: caption overlay failed, retrying without text: %v", err)
		os.Remove(scratch)
		if err := e.run(ctx, videoPath, musicPath, scratch, spec, false); err != nil {
			return Result{}, err
		}
		degraded = true
	}

	if err := moveFile(scratch, outputPath); err != nil {
		return Result{}, fmt.Errorf("deliver %s: %w", filepath.Base(outputPath), err)
	}
	return Result{OutputPath: outputPath, Degraded: degraded}, nil
}

func (e *Engine) scratchPath() (string, error) {
	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	f, err := os.CreateTemp(e.workDir, "story-*.mp4")
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	path := f.Name()
	f.Close()
	return path, nil
}

// moveFile renames scratch output into place, copying when the work dir
// lives on another filesystem.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}

func (e *Engine) run(ctx context.Context, videoPath, musicPath, outputPath string, spec Spec, withCaptions bool) error {
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", videoPath}

	if spec.Audio.Loop {
		args = append(args, "-stream_loop", "-1")
	} else if spec.Audio.StartS > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", spec.Audio.StartS))
	}
	args = append(args, "-i", musicPath)

	args = append(args,
		"-vf", videoFilter(spec, withCaptions),
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-t", fmt.Sprintf("%.3f", spec.TargetDurationS),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-movflags", "+faststart",
		outputPath,
	)

	// Acquire semaphore – only one ffmpeg process at a time.
	ffmpegSem <- struct{}{}
	defer func() { <-ffmpegSem }()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.ffmpegBin, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return fmt.Errorf("ffmpeg error: %s", errMsg)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("ffmpeg did not create output file: %s (%w)", outputPath, err)
	}
	return nil
}

// videoFilter assembles the -vf chain: optional center crop, an even-pixel
// safety scale for libx264, then the timed caption overlays.
func videoFilter(spec Spec, withCaptions bool) string {
	filters := make([]string, 0, 4)
	if spec.CropWidth > 0 {
		filters = append(filters, fmt.Sprintf("crop=%d:%d:%d:0", spec.CropWidth, spec.CropHeight, spec.CropX))
	}
	// libx264 rejects odd frame dimensions, so an odd crop width (607 for
	// a 1080-high source) comes out one pixel narrower.
	filters = append(filters, "scale=trunc(iw/2)*2:trunc(ih/2)*2")
	if withCaptions {
		for _, window := range spec.Captions {
			filters = append(filters, drawText(window))
		}
	}
	return strings.Join(filters, ",")
}

func drawText(window CaptionWindow) string {
	return fmt.Sprintf(
		"drawtext=text='%s':fontsize=%d:fontcolor=white:borderw=3:bordercolor=black:x=(w-text_w)/2:y=(h-text_h)/2:enable='between(t,%.2f,%.2f)'",
		escapeDrawText(window.Text), captionFontSize, window.StartS, window.EndS)
}

// escapeDrawText quotes the characters the drawtext filter treats as
// syntax.
func escapeDrawText(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
		`,`, `\,`,
	)
	return replacer.Replace(text)
}

func overlayFailure(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "drawtext") ||
		strings.Contains(msg, "fontconfig") ||
		strings.Contains(msg, "font") ||
		strings.Contains(msg, "no such filter")
}
