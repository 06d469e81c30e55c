package compose

import (
	"fmt"

	"github.com/mowshon/moviego"
)

// safeLoad wraps moviego.Load to catch panics from the library on
// corrupt or truncated input files.
func safeLoad(path string) (vid moviego.Video, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("moviego.Load panicked: %v", r)
		}
	}()
	vid, err = moviego.Load(path)
	return
}
