package leave

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidRange = errors.New("end date before start date")

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InclusiveDays counts calendar days from start to end, both included.
func InclusiveDays(start, end time.Time) (int, error) {
	s, e := dateOnly(start), dateOnly(end)
	if e.Before(s) {
		return 0, ErrInvalidRange
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

// Weekdays counts the days from start to end, both included, that are not
// Saturday or Sunday.
func Weekdays(start, end time.Time) int {
	s, e := dateOnly(start), dateOnly(end)
	count := 0
	for day := s; !day.After(e); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}

// RemainingBalance never goes below zero.
func RemainingBalance(approvedDays int) int {
	return max(0, AnnualAllowance-approvedDays)
}

func TypeLabel(value string) string {
	for _, t := range Types {
		if t.Value == value {
			return t.Label
		}
	}
	if value == "" {
		return "Unknown"
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func IsValidType(value string) bool {
	for _, t := range Types {
		if t.Value == value {
			return true
		}
	}
	return false
}

// Cancellable reports whether the owner may still withdraw the request.
func Cancellable(status string) bool {
	return strings.EqualFold(status, StatusPending)
}
