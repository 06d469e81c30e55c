package compose

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// stubPayload is the minimal bytes written in place of a real clip when
// ffmpeg is unavailable. It is intentionally not a valid mp4.
var stubPayload = []byte("SIMULATED_MP4_CONTENT\n")

type stubManifest struct {
	Status               string `json:"status"`
	GeneratedAt          string `json:"generated_at"`
	Source               string `json:"source"`
	Music                string `json:"music"`
	Caption              string `json:"caption"`
	RequestedDestination string `json:"requested_destination"`
}

// WriteStub writes a placeholder artifact plus a JSON sidecar describing
// the composition that would have happened.
func WriteStub(videoPath, musicPath, caption, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(outputPath, stubPayload, 0o644); err != nil {
		return fmt.Errorf("write placeholder: %w", err)
	}

	manifest := stubManifest{
		Status:               "simulated",
		GeneratedAt:          time.Now().Format(time.RFC3339),
		Source:               videoPath,
		Music:                musicPath,
		Caption:              caption,
		RequestedDestination: outputPath,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(outputPath+".json", data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
