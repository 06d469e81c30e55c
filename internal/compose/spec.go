package compose

import (
	"math"
	"strings"
)

const (
	// MaxDurationS caps every produced story clip.
	MaxDurationS = 10.0

	captionFontSize = 70

	firstCaptionStart  = 1.0
	firstCaptionEnd    = 5.0
	secondCaptionStart = 5.0
)

// AudioPlan describes how the music track is fitted to the clip.
type AudioPlan struct {
	// StartS is a random offset into the track when it is longer than the
	// clip, otherwise zero.
	StartS float64
	// Loop is set when the track is shorter than the clip and has to be
	// repeated end to end.
	Loop bool
}

// CaptionWindow is a single drawtext overlay with its visibility interval.
type CaptionWindow struct {
	Text   string
	StartS float64
	EndS   float64
}

// Spec is the fully resolved plan for one composition. It is pure data so
// the arithmetic can be exercised without ffmpeg.
type Spec struct {
	TargetDurationS float64

	// CropWidth and CropHeight are zero when the source is already
	// portrait and passes through untouched.
	CropWidth  int
	CropHeight int
	CropX      int

	Captions []CaptionWindow

	Audio AudioPlan
}

// BuildSpec computes the composition plan for a source clip and a music
// track. randFloat provides the audio window offset in [0,1).
func BuildSpec(video Info, audio Info, caption string, randFloat func() float64) Spec {
	spec := Spec{TargetDurationS: video.DurationS}
	if spec.TargetDurationS > MaxDurationS || spec.TargetDurationS <= 0 {
		spec.TargetDurationS = MaxDurationS
	}

	if video.Width > 0 && video.Height > 0 && video.Width >= video.Height {
		width := int(math.Floor(9.0 / 16.0 * float64(video.Height)))
		if width > 0 && width < video.Width {
			spec.CropWidth = width
			spec.CropHeight = video.Height
			spec.CropX = (video.Width - width) / 2
		}
	}

	spec.Captions = captionWindows(caption, spec.TargetDurationS)
	spec.Audio = planAudio(audio.DurationS, spec.TargetDurationS, randFloat)
	return spec
}

// SplitCaption divides a caption into its two overlay halves. The first
// half takes floor(n/2) words, the remainder goes to the second.
func SplitCaption(caption string) (string, string) {
	words := strings.Fields(caption)
	if len(words) == 0 {
		return "", ""
	}
	half := len(words) / 2
	return strings.Join(words[:half], " "), strings.Join(words[half:], " ")
}

func captionWindows(caption string, target float64) []CaptionWindow {
	first, second := SplitCaption(caption)
	var windows []CaptionWindow
	if first != "" && target > firstCaptionStart {
		windows = append(windows, CaptionWindow{
			Text:   first,
			StartS: firstCaptionStart,
			EndS:   math.Min(firstCaptionEnd, target),
		})
	}
	if second != "" && target > secondCaptionStart {
		windows = append(windows, CaptionWindow{
			Text:   second,
			StartS: secondCaptionStart,
			EndS:   target,
		})
	}
	return windows
}

func planAudio(trackDuration, target float64, randFloat func() float64) AudioPlan {
	if trackDuration <= 0 {
		return AudioPlan{}
	}
	if trackDuration < target {
		return AudioPlan{Loop: true}
	}
	slack := trackDuration - target
	if slack <= 0 {
		return AudioPlan{}
	}
	return AudioPlan{StartS: randFloat() * slack}
}
