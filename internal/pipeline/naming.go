package pipeline

import (
	"fmt"
	"time"
)

const (
	periodMorning = "Bomdia"
	periodClosing = "Encerramento"
)

// OutputName derives the artifact file name from the moment the job
// finishes classification: DD-MM-YY plus a period label. Weekends always
// get the morning label; on weekdays anything before noon is morning and
// the rest of the day is the closing slot.
func OutputName(now time.Time) string {
	return fmt.Sprintf("%s.%s.mp4", now.Format("02-01-06"), periodLabel(now))
}

func periodLabel(now time.Time) string {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return periodMorning
	}
	if now.Hour() < 12 {
		return periodMorning
	}
	return periodClosing
}
