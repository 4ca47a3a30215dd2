package ui

import "sync"

type CheckState int

const (
	Unchecked CheckState = iota
	Checked
	Indeterminate
)

func (s CheckState) String() string {
	switch s {
	case Checked:
		return "checked"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

// Selection tracks which rows of a list are ticked.
type Selection struct {
	all      []string
	selected map[string]bool
}

// NewSelection ignores selected ids that are not in all.
func NewSelection(all, selected []string) *Selection {
	s := &Selection{all: append([]string(nil), all...), selected: map[string]bool{}}
	known := make(map[string]bool, len(all))
	for _, id := range all {
		known[id] = true
	}
	for _, id := range selected {
		if known[id] {
			s.selected[id] = true
		}
	}
	return s
}

func (s *Selection) Toggle(id string) {
	for _, candidate := range s.all {
		if candidate == id {
			if s.selected[id] {
				delete(s.selected, id)
			} else {
				s.selected[id] = true
			}
			return
		}
	}
}

// SetAll is the select-all checkbox being ticked or cleared.
func (s *Selection) SetAll(on bool) {
	s.selected = map[string]bool{}
	if on {
		for _, id := range s.all {
			s.selected[id] = true
		}
	}
}

func (s *Selection) IsSelected(id string) bool { return s.selected[id] }

func (s *Selection) Count() int { return len(s.selected) }

// Selected returns the ticked ids in list order.
func (s *Selection) Selected() []string {
	out := make([]string, 0, len(s.selected))
	for _, id := range s.all {
		if s.selected[id] {
			out = append(out, id)
		}
	}
	return out
}

// State is the select-all checkbox state for the current selection.
func (s *Selection) State() CheckState {
	switch n := len(s.selected); {
	case n == 0:
		return Unchecked
	case n == len(s.all):
		return Checked
	default:
		return Indeterminate
	}
}

// SubmitGuard allows one in-flight submission per key.
type SubmitGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{inflight: map[string]struct{}{}}
}

// TryAcquire returns a release func and true when no submission for key is
// running. Release is safe to call more than once.
func (g *SubmitGuard) TryAcquire(key string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return func() {}, false
	}
	g.inflight[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, true
}

func (g *SubmitGuard) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inflight[key]
	return busy
}
