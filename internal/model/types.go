package model

import "time"

// EventKind distinguishes the raw filesystem notifications the watcher cares about.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventModified EventKind = "modified"
)

// FileEvent is a debounced "file ready" notification emitted by the watcher.
type FileEvent struct {
	Path      string    `json:"path"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// Style is the closed set of music styles a clip can be classified into.
// The string value doubles as the style subfolder name under the music root.
type Style string

const (
	StyleEnergetic  Style = "Rock"
	StyleCalm       Style = "Calma"
	StyleSales      Style = "Pop"
	StyleElectronic Style = "Eletronica"
	StyleTechnical  Style = "Instrumental"
)

// AllStyles lists every style folder, in catalog scan order.
func AllStyles() []Style {
	return []Style{StyleEnergetic, StyleCalm, StyleSales, StyleElectronic, StyleTechnical}
}

// Valid reports whether s is one of the known styles.
func (s Style) Valid() bool {
	switch s {
	case StyleEnergetic, StyleCalm, StyleSales, StyleElectronic, StyleTechnical:
		return true
	}
	return false
}

// JobStatus is the processing state of a single job. Transitions are
// one-directional: Pending -> Analyzing -> Selecting -> Composing -> Done|Failed.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobAnalyzing JobStatus = "analyzing"
	JobSelecting JobStatus = "selecting"
	JobComposing JobStatus = "composing"
	JobDone      JobStatus = "done"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed
}

// ProcessingJob tracks one source clip through the pipeline. It is owned
// exclusively by the runner goroutine until it reaches a terminal status.
type ProcessingJob struct {
	SourcePath string    `json:"source_path"`
	OutputPath string    `json:"output_path"`
	Caption    string    `json:"caption"`
	Style      Style     `json:"style"`
	AssetPath  string    `json:"asset_path"`
	Status     JobStatus `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Err        string    `json:"error,omitempty"`
}

// MediaAsset is one background-music track in the catalog.
type MediaAsset struct {
	Path      string  `json:"path"`
	Style     Style   `json:"style"`
	DurationS float64 `json:"duration_s"`
}
