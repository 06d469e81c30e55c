package pipeline

import "errors"

var (
	// ErrDuplicateJob means the file is already being processed.
	ErrDuplicateJob = errors.New("file is already being processed")

	// ErrAssetNotFound means no music track could be selected at all.
	ErrAssetNotFound = errors.New("no music asset available")

	// ErrCompositionTimeout means the worker exceeded the hard deadline
	// and was killed.
	ErrCompositionTimeout = errors.New("composition timed out")

	// ErrCompositionFailed wraps worker failures other than timeouts.
	ErrCompositionFailed = errors.New("composition failed")
)
