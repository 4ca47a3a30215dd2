package employee

import (
	"strings"
	"unicode"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"

	MinPasswordLength = 6
)

var Roles = []string{RoleEmployee, RoleAdmin}

// Name is a display name split the way the profile card shows it.
type Name struct {
	First string
	Last  string
	Full  string
}

func SplitName(full string) Name {
	parts := strings.Fields(full)
	n := Name{Full: strings.Join(parts, " ")}
	switch len(parts) {
	case 0:
		n.First = "Employee"
	case 1:
		n.First = parts[0]
	default:
		n.First = parts[0]
		n.Last = parts[len(parts)-1]
	}
	if n.Full == "" {
		n.Full = n.First
	}
	return n
}

// Initials is the avatar text shown when an employee has no image.
func Initials(full string) string {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "?"
	}
	var b strings.Builder
	for _, part := range []string{parts[0], parts[len(parts)-1]} {
		r := []rune(part)[0]
		b.WriteRune(unicode.ToUpper(r))
		if len(parts) == 1 {
			break
		}
	}
	return b.String()
}

// ShortID shortens an identifier for display.
func ShortID(id string) string {
	if id == "" {
		return "N/A"
	}
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

// FormatPhone groups digits for display and leaves short or empty values alone.
func FormatPhone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return "Not provided"
	}
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 11 && d[0] == '1':
		return d[:1] + "-" + d[1:4] + "-" + d[4:7] + "-" + d[7:]
	case len(d) == 10:
		return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
	case len(d) == 7:
		return d[:3] + "-" + d[3:]
	case len(d) > 7:
		return d[:3] + "-" + d[3:6] + "-" + d[6:]
	default:
		return phone
	}
}

// OrDefault substitutes fallback for blank values.
func OrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// HireDate takes the date part of a created_at timestamp.
func HireDate(createdAt string) string {
	if len(createdAt) < 10 {
		return "Unknown"
	}
	return createdAt[:10]
}

// Searchable is the set of fields the employee search looks at.
type Searchable struct {
	Name       string
	Position   string
	Email      string
	Department string
}

// Matches does a case-insensitive substring match across the searchable
// fields. An empty query matches everything.
func (s Searchable) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{s.Name, s.Position, s.Email, s.Department} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
