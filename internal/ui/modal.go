package ui

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FocusableSelector matches the controls a modal's focus trap cycles through.
const FocusableSelector = `a[href], button:not([disabled]), textarea:not([disabled]), ` +
	`input:not([type="hidden"]):not([disabled]), select:not([disabled]), [tabindex]:not([tabindex="-1"])`

// Modal is the focus trap of one open dialog.
type Modal struct {
	Name       string
	open       bool
	focusables []string
	focus      int
}

func NewModal(name string) *Modal {
	return &Modal{Name: name}
}

// Open shows the modal and focuses the first control.
func (m *Modal) Open(focusables []string) {
	m.open = true
	m.focusables = append([]string(nil), focusables...)
	m.focus = 0
}

// Focused is the id of the control holding focus, or "" when closed or empty.
func (m *Modal) Focused() string {
	if !m.open || len(m.focusables) == 0 {
		return ""
	}
	return m.focusables[m.focus]
}

// FocusOn moves focus to id when it belongs to the modal.
func (m *Modal) FocusOn(id string) bool {
	for i, candidate := range m.focusables {
		if candidate == id {
			m.focus = i
			return true
		}
	}
	return false
}

// Tab moves focus forward (or backward with shift), wrapping at both ends.
func (m *Modal) Tab(shift bool) string {
	n := len(m.focusables)
	if !m.open || n == 0 {
		return ""
	}
	if shift {
		m.focus = (m.focus - 1 + n) % n
	} else {
		m.focus = (m.focus + 1) % n
	}
	return m.focusables[m.focus]
}

// PrepareModal opens a Modal over the focusable controls of the dialog and
// stamps its focus trap on the markup: autofocus on the first control, the
// trap bounds on the dialog, and each control's Tab and Shift+Tab targets.
// Controls without an id get a generated one.
func PrepareModal(fragment, dialogSelector string) (string, []string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", nil, fmt.Errorf("parse modal fragment: %w", err)
	}
	dialog := doc.Find(dialogSelector).First()
	if dialog.Length() == 0 {
		return "", nil, fmt.Errorf("modal element %q not found", dialogSelector)
	}
	name := dialog.AttrOr("id", "modal")
	controls := dialog.Find(FocusableSelector)
	ids := make([]string, 0, controls.Length())
	controls.Each(func(i int, s *goquery.Selection) {
		id, ok := s.Attr("id")
		if !ok || id == "" {
			id = fmt.Sprintf("%s-focus-%d", name, i)
			s.SetAttr("id", id)
		}
		ids = append(ids, id)
	})

	m := NewModal(name)
	m.Open(ids)
	controls.Each(func(i int, s *goquery.Selection) {
		m.FocusOn(ids[i])
		s.SetAttr("data-focus-next", m.Tab(false))
		m.FocusOn(ids[i])
		s.SetAttr("data-focus-prev", m.Tab(true))
	})
	m.Open(ids)
	if first := m.Focused(); first != "" {
		controls.First().SetAttr("autofocus", "")
		dialog.SetAttr("data-focus-first", first)
		dialog.SetAttr("data-focus-last", ids[len(ids)-1])
	}

	html, err := goquery.OuterHtml(dialog)
	if err != nil {
		return "", nil, fmt.Errorf("render modal fragment: %w", err)
	}
	return html, ids, nil
}
