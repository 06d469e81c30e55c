package pipeline

import (
	"testing"
	"time"
)

func TestOutputName(t *testing.T) {
	cases := []struct {
		name string
		at   time.Time
		want string
	}{
		{"weekday morning", time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC), "05-01-26.Bomdia.mp4"},
		{"weekday noon", time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC), "05-01-26.Encerramento.mp4"},
		{"weekday just before noon", time.Date(2026, 1, 9, 11, 59, 0, 0, time.UTC), "09-01-26.Bomdia.mp4"},
		{"weekday evening", time.Date(2026, 1, 9, 23, 59, 0, 0, time.UTC), "09-01-26.Encerramento.mp4"},
		{"saturday afternoon", time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC), "10-01-26.Bomdia.mp4"},
		{"sunday morning", time.Date(2026, 1, 11, 8, 0, 0, 0, time.UTC), "11-01-26.Bomdia.mp4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OutputName(tc.at); got != tc.want {
				t.Fatalf("OutputName(%s) = %q, want %q", tc.at, got, tc.want)
			}
		})
	}
}
