package attendance

import (
	"math"
	"strings"
	"time"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusUnknown = "unknown"
)

// MarkableStatuses are the statuses an admin may record.
var MarkableStatuses = []string{StatusPresent, StatusAbsent, StatusLate}

func NormalizeStatus(value string) string {
	switch s := strings.ToLower(strings.TrimSpace(value)); s {
	case StatusPresent, StatusAbsent, StatusLate:
		return s
	default:
		return StatusUnknown
	}
}

func IsMarkable(value string) bool {
	s := strings.ToLower(strings.TrimSpace(value))
	return s == StatusPresent || s == StatusAbsent || s == StatusLate
}

// Percentage is present over working days, rounded to one decimal. Zero
// working days yields zero.
func Percentage(present, workingDays int) float64 {
	if workingDays <= 0 {
		return 0
	}
	return math.Round(float64(present)/float64(workingDays)*1000) / 10
}

// IsFutureDate reports whether date falls after the calendar day of now.
func IsFutureDate(date, now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return date.After(today)
}

// Summary tallies records by status.
type Summary struct {
	Total   int
	Present int
	Absent  int
	Late    int
	Unknown int
}

func Summarize(statuses []string) Summary {
	var s Summary
	for _, status := range statuses {
		s.Total++
		switch NormalizeStatus(status) {
		case StatusPresent:
			s.Present++
		case StatusAbsent:
			s.Absent++
		case StatusLate:
			s.Late++
		default:
			s.Unknown++
		}
	}
	return s
}
