package compose

import (
	"strings"
	"testing"
)

func fixedRand(v float64) func() float64 {
	return func() float64 { return v }
}

func TestBuildSpecClampsDuration(t *testing.T) {
	spec := BuildSpec(Info{DurationS: 42, Width: 720, Height: 1280}, Info{DurationS: 60}, "", fixedRand(0))
	if spec.TargetDurationS != MaxDurationS {
		t.Fatalf("TargetDurationS = %.2f, want %.2f", spec.TargetDurationS, MaxDurationS)
	}

	spec = BuildSpec(Info{DurationS: 7.5, Width: 720, Height: 1280}, Info{DurationS: 60}, "", fixedRand(0))
	if spec.TargetDurationS != 7.5 {
		t.Fatalf("TargetDurationS = %.2f, want 7.5", spec.TargetDurationS)
	}
}

func TestBuildSpecCrop(t *testing.T) {
	cases := []struct {
		name      string
		w, h      int
		wantWidth int
	}{
		{"landscape 1920x1080", 1920, 1080, 607},
		{"square", 1000, 1000, 562},
		{"portrait untouched", 720, 1280, 0},
		{"landscape 1280x720", 1280, 720, 405},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := BuildSpec(Info{DurationS: 5, Width: tc.w, Height: tc.h}, Info{DurationS: 60}, "", fixedRand(0))
			if spec.CropWidth != tc.wantWidth {
				t.Fatalf("CropWidth = %d, want %d", spec.CropWidth, tc.wantWidth)
			}
			if tc.wantWidth > 0 {
				if spec.CropHeight != tc.h {
					t.Fatalf("CropHeight = %d, want %d", spec.CropHeight, tc.h)
				}
				if want := (tc.w - tc.wantWidth) / 2; spec.CropX != want {
					t.Fatalf("CropX = %d, want %d", spec.CropX, want)
				}
			}
		})
	}
}

func TestSplitCaption(t *testing.T) {
	cases := []struct {
		in            string
		first, second string
	}{
		{"A B C D E", "A B", "C D E"},
		{"A B C D", "A B", "C D"},
		{"Hello", "", "Hello"},
		{"  spaced   out  ", "spaced", "out"},
		{"", "", ""},
	}
	for _, tc := range cases {
		first, second := SplitCaption(tc.in)
		if first != tc.first || second != tc.second {
			t.Errorf("SplitCaption(%q) = %q, %q; want %q, %q", tc.in, first, second, tc.first, tc.second)
		}
	}
}

func TestCaptionWindows(t *testing.T) {
	spec := BuildSpec(Info{DurationS: 10, Width: 720, Height: 1280}, Info{DurationS: 60}, "Força Total agora mesmo aqui", fixedRand(0))
	if len(spec.Captions) != 2 {
		t.Fatalf("got %d caption windows, want 2", len(spec.Captions))
	}
	first, second := spec.Captions[0], spec.Captions[1]
	if first.Text != "Força Total" || first.StartS != 1 || first.EndS != 5 {
		t.Fatalf("first window = %+v", first)
	}
	if second.Text != "agora mesmo aqui" || second.StartS != 5 || second.EndS != 10 {
		t.Fatalf("second window = %+v", second)
	}
}

func TestCaptionWindowsShortClip(t *testing.T) {
	// 4s clip: the second window would start past the end of the video.
	spec := BuildSpec(Info{DurationS: 4, Width: 720, Height: 1280}, Info{DurationS: 60}, "um dois tres quatro", fixedRand(0))
	if len(spec.Captions) != 1 {
		t.Fatalf("got %d caption windows, want 1", len(spec.Captions))
	}
	if spec.Captions[0].EndS != 4 {
		t.Fatalf("first window end = %.2f, want 4", spec.Captions[0].EndS)
	}
}

func TestCaptionWindowsSingleWord(t *testing.T) {
	spec := BuildSpec(Info{DurationS: 10, Width: 720, Height: 1280}, Info{DurationS: 60}, "Oi", fixedRand(0))
	if len(spec.Captions) != 1 {
		t.Fatalf("got %d caption windows, want 1", len(spec.Captions))
	}
	if spec.Captions[0].Text != "Oi" || spec.Captions[0].StartS != 5 {
		t.Fatalf("window = %+v", spec.Captions[0])
	}
}

func TestPlanAudioWindow(t *testing.T) {
	spec := BuildSpec(Info{DurationS: 10, Width: 720, Height: 1280}, Info{DurationS: 60}, "", fixedRand(0.5))
	if spec.Audio.Loop {
		t.Fatal("Loop should be false for long tracks")
	}
	if spec.Audio.StartS != 25 {
		t.Fatalf("StartS = %.2f, want 25", spec.Audio.StartS)
	}
}

func TestPlanAudioLoop(t *testing.T) {
	spec := BuildSpec(Info{DurationS: 10, Width: 720, Height: 1280}, Info{DurationS: 4}, "", fixedRand(0.9))
	if !spec.Audio.Loop {
		t.Fatal("Loop should be true for short tracks")
	}
	if spec.Audio.StartS != 0 {
		t.Fatalf("StartS = %.2f, want 0", spec.Audio.StartS)
	}
}

func TestVideoFilter(t *testing.T) {
	spec := Spec{
		TargetDurationS: 10,
		CropWidth:       607, CropHeight: 1080, CropX: 656,
		Captions: []CaptionWindow{{Text: "Força Total", StartS: 1, EndS: 5}},
	}
	vf := videoFilter(spec, true)
	if !strings.HasPrefix(vf, "crop=607:1080:656:0,") {
		t.Fatalf("filter missing crop prefix: %s", vf)
	}
	if !strings.Contains(vf, "scale=trunc(iw/2)*2:trunc(ih/2)*2") {
		t.Fatalf("filter missing safety scale: %s", vf)
	}
	if !strings.Contains(vf, "between(t,1.00,5.00)") {
		t.Fatalf("filter missing caption window: %s", vf)
	}

	vf = videoFilter(spec, false)
	if strings.Contains(vf, "drawtext") {
		t.Fatalf("captions should be dropped: %s", vf)
	}
}

func TestEscapeDrawText(t *testing.T) {
	got := escapeDrawText("100%: sim, 'ok'")
	want := `100\%\: sim\, \'ok\'`
	if got != want {
		t.Fatalf("escapeDrawText = %q, want %q", got, want)
	}
}
