// Package view turns upstream records into the view-models the page
// templates render: tables, badges and chart geometry.
package view

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// RowStagger is the per-row delay of the entrance animation.
const RowStagger = 50 * time.Millisecond

type Cell struct {
	Text  string
	Class string
}

type Row struct {
	ID    string
	Index int
	Cells []Cell
}

// Delay is the entrance animation delay of the row.
func (r Row) Delay() time.Duration {
	return time.Duration(r.Index) * RowStagger
}

// Style is the inline style carrying the delay as a CSS custom property.
func (r Row) Style() template.CSS {
	return template.CSS(fmt.Sprintf("--row-delay: %dms", r.Delay().Milliseconds()))
}

// Table is a rendered list. Empty tables show the empty-state element instead.
type Table struct {
	Headers      []string
	Rows         []Row
	Empty        bool
	EmptyMessage string
}

// Column maps one record field to a cell. Blank values fall back to Fallback.
type Column[T any] struct {
	Header   string
	Value    func(T) string
	Class    func(T) string
	Fallback string
}

func Build[T any](records []T, id func(T) string, columns []Column[T], emptyMessage string) Table {
	t := Table{EmptyMessage: emptyMessage}
	for _, c := range columns {
		t.Headers = append(t.Headers, c.Header)
	}
	if len(records) == 0 {
		t.Empty = true
		return t
	}
	t.Rows = make([]Row, 0, len(records))
	for i, rec := range records {
		row := Row{Index: i, Cells: make([]Cell, 0, len(columns))}
		if id != nil {
			row.ID = id(rec)
		}
		for _, c := range columns {
			cell := Cell{Text: strings.TrimSpace(c.Value(rec))}
			if cell.Text == "" {
				cell.Text = fallback(c.Fallback)
			}
			if c.Class != nil {
				cell.Class = c.Class(rec)
			}
			row.Cells = append(row.Cells, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func fallback(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
