package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"story-agent/internal/compose"
	"story-agent/internal/logging"
)

// Composer renders one clip. Implemented by compose.Engine for in-process
// rendering and by Worker for the isolated subprocess path.
type Composer interface {
	Compose(ctx context.Context, videoPath, musicPath, caption, outputPath string) (compose.Result, error)
}

// Worker runs the composition in a separate process so a wedged render can
// be killed without taking the service down.
type Worker struct {
	bin string
	log *logging.Logger
}

func NewWorker(bin string, log *logging.Logger) *Worker {
	return &Worker{bin: bin, log: log}
}

func (w *Worker) Compose(ctx context.Context, videoPath, musicPath, caption, outputPath string) (compose.Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.bin, videoPath, musicPath, caption, outputPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return compose.Result{}, fmt.Errorf("%w after deadline", ErrCompositionTimeout)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return compose.Result{}, fmt.Errorf("%w: %s", ErrCompositionFailed, msg)
	}

	result := compose.Result{OutputPath: outputPath}
	switch workerOutcome(stdout.String()) {
	case "degraded":
		result.Degraded = true
	case "simulated":
		result.Degraded = true
		result.Simulated = true
	}
	return result, nil
}

// workerOutcome extracts the final "result: ..." line the worker prints on
// stdout. Missing or malformed output counts as a plain success since the
// process exited zero.
func workerOutcome(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if rest, ok := strings.CutPrefix(line, "result:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
