package music

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"story-agent/internal/logging"
	"story-agent/internal/model"
)

// ErrNoTracks means neither the requested style folder nor any other style
// folder holds a single audio file. Composition cannot proceed without audio,
// so this is terminal for the job.
var ErrNoTracks = errors.New("music: no tracks available")

var audioExtensions = []string{".mp3", ".wav", ".aac", ".m4a", ".ogg"}

// Catalog is a read-only view over the music root, one subfolder per style.
// Folders are scanned lazily on every selection so tracks can be added while
// the service runs.
type Catalog struct {
	root string
	log  *logging.Logger
}

func NewCatalog(root string, log *logging.Logger) *Catalog {
	return &Catalog{root: root, log: log}
}

// EnsureLayout creates the music root and one folder per known style.
func (c *Catalog) EnsureLayout() error {
	for _, style := range model.AllStyles() {
		if err := os.MkdirAll(filepath.Join(c.root, string(style)), 0o755); err != nil {
			return fmt.Errorf("music layout: %w", err)
		}
	}
	return nil
}

// Select resolves one track for the requested style, uniformly at random.
// When the style folder is empty or missing it falls back to the union of all
// style folders; ErrNoTracks when that union is empty too.
func (c *Catalog) Select(style model.Style) (string, error) {
	tracks := c.listStyle(style)
	if len(tracks) == 0 {
		c.log.Warnf("music: no %s tracks, falling back to full catalog", style)
		assets, err := c.Tracks()
		if err != nil {
			return "", err
		}
		tracks = lo.Map(assets, func(a model.MediaAsset, _ int) string { return a.Path })
	}
	if len(tracks) == 0 {
		return "", ErrNoTracks
	}
	return tracks[randomIndex(len(tracks))], nil
}

// Tracks enumerates every audio file under the music root, tagged with the
// style folder it lives in.
func (c *Catalog) Tracks() ([]model.MediaAsset, error) {
	var assets []model.MediaAsset
	for _, style := range model.AllStyles() {
		for _, path := range c.listStyle(style) {
			assets = append(assets, model.MediaAsset{Path: path, Style: style})
		}
	}
	// Tracks dropped loose in the root (no style folder) still count for the
	// fallback cascade.
	root, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return assets, nil
		}
		return nil, fmt.Errorf("music scan: %w", err)
	}
	for _, entry := range root {
		if entry.IsDir() || !isAudio(entry) {
			continue
		}
		assets = append(assets, model.MediaAsset{Path: filepath.Join(c.root, entry.Name())})
	}
	return assets, nil
}

// CountTracks reports how many tracks a style folder currently holds.
func (c *Catalog) CountTracks(style model.Style) int {
	return len(c.listStyle(style))
}

func (c *Catalog) listStyle(style model.Style) []string {
	dir := filepath.Join(c.root, string(style))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	audio := lo.Filter(entries, func(e fs.DirEntry, _ int) bool {
		return !e.IsDir() && isAudio(e)
	})
	return lo.Map(audio, func(e fs.DirEntry, _ int) string {
		return filepath.Join(dir, e.Name())
	})
}

func isAudio(e fs.DirEntry) bool {
	name := e.Name()
	if strings.HasPrefix(name, ".") {
		return false
	}
	return lo.Contains(audioExtensions, strings.ToLower(filepath.Ext(name)))
}
