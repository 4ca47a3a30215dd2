package view

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var badgeClasses = map[string]string{
	"present":  "badge-success",
	"approved": "badge-success",
	"absent":   "badge-danger",
	"rejected": "badge-danger",
	"late":     "badge-warning",
	"pending":  "badge-warning",
	"admin":    "badge-primary",
	"employee": "badge-info",
}

// BadgeClass maps a status to its badge class, unknown statuses included.
func BadgeClass(status string) string {
	if class, ok := badgeClasses[strings.ToLower(strings.TrimSpace(status))]; ok {
		return class
	}
	return "badge-secondary"
}

// Label renders a snake_case status or type as words.
func Label(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Unknown"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(value, "_", " "))
}
