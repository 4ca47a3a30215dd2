// Package shared holds request helpers used by every page controller.
package shared

import (
	"net/mail"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	field = strings.TrimSpace(field)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{
		Field:  field,
		Reason: reason,
	})
}

// Required reports whether value is present, recording reason when it is not.
func (v *Validator) Required(field, value, reason string) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
		return false
	}
	return true
}

func (v *Validator) Enum(field, value string, allowed []string, reason string) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return
	}
	for _, candidate := range allowed {
		if normalized == strings.ToLower(strings.TrimSpace(candidate)) {
			return
		}
	}
	v.Add(field, reason)
}

func (v *Validator) Email(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value[strings.LastIndex(value, "@"):], ".") {
		v.Add(field, "must be a valid email address")
	}
}

func (v *Validator) MinLength(field, value string, min int, reason string) {
	if value = strings.TrimSpace(value); value != "" && utf8.RuneCountInString(value) < min {
		v.Add(field, reason)
	}
}

func (v *Validator) Date(field, raw string) (time.Time, bool) {
	parsed, err := ParseDate(strings.TrimSpace(raw))
	if err != nil || parsed.IsZero() {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() {
		return
	}
	if end.Before(start) {
		v.Add(endField, "End date cannot be before start date")
	}
}

// NotPast rejects calendar days before today.
func (v *Validator) NotPast(field string, date, now time.Time, reason string) {
	if date.IsZero() {
		return
	}
	if date.Before(startOfDay(now, date.Location())) {
		v.Add(field, reason)
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make([]ValidationIssue, len(v.issues))
	copy(out, v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Field < out[j].Field
	})
	return out
}

// FieldErrors keeps the first reason per field, for inline form errors.
func (v *Validator) FieldErrors() map[string]string {
	if !v.HasIssues() {
		return nil
	}
	out := make(map[string]string, len(v.issues))
	for _, issue := range v.Issues() {
		if _, seen := out[issue.Field]; !seen {
			out[issue.Field] = issue.Reason
		}
	}
	return out
}
