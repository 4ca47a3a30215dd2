package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Page    int
	PerPage int
	Total   int
}

func ParsePagination(r *http.Request, defaultPerPage, maxPerPage int) Pagination {
	p := Pagination{Page: 1, PerPage: defaultPerPage}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Page = v
		}
	}
	if raw := r.URL.Query().Get("per_page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.PerPage = v
		}
	}
	if maxPerPage > 0 && p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

func (p Pagination) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Pagination) HasPrev() bool { return p.Page > 1 }

func (p Pagination) HasNext() bool { return p.Page < p.Pages() }

func (p Pagination) Prev() int { return max(p.Page-1, 1) }

func (p Pagination) Next() int { return min(p.Page+1, p.Pages()) }

// Slice returns the current page of items and records the total.
func Slice[T any](p *Pagination, items []T) []T {
	p.Total = len(items)
	if p.Page > p.Pages() {
		p.Page = p.Pages()
	}
	start := (p.Page - 1) * p.PerPage
	if start >= len(items) {
		return nil
	}
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}
