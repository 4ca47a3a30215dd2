package ui

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity maps upstream "type" values onto a severity; anything
// unrecognised is info.
func ParseSeverity(value string) Severity {
	switch Severity(value) {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return Severity(value)
	case "danger":
		return SeverityError
	default:
		return SeverityInfo
	}
}

// Icon is the icon class rendered next to the message.
func (s Severity) Icon() string {
	switch s {
	case SeveritySuccess:
		return "fa-check-circle"
	case SeverityError:
		return "fa-exclamation-circle"
	case SeverityWarning:
		return "fa-exclamation-triangle"
	default:
		return "fa-info-circle"
	}
}

type Toast struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	DismissAt time.Time `json:"dismissAt"`
}

func (t Toast) Icon() string {
	return t.Severity.Icon()
}

// Remaining is how long the toast stays on screen from now.
func (t Toast) Remaining(now time.Time) time.Duration {
	if d := t.DismissAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

type ToastMode int

const (
	// ModeStack keeps concurrent toasts on screen together.
	ModeStack ToastMode = iota
	// ModeSingleton replaces whatever toast is showing.
	ModeSingleton
)

type ToastOptions struct {
	Clock         Clock
	Duration      time.Duration
	ErrorDuration time.Duration
	Mode          ToastMode
	Max           int
}

func (o ToastOptions) withDefaults() ToastOptions {
	if o.Clock == nil {
		o.Clock = SystemClock
	}
	if o.Duration <= 0 {
		o.Duration = 5 * time.Second
	}
	if o.ErrorDuration <= 0 {
		o.ErrorDuration = o.Duration + time.Second
	}
	if o.Max <= 0 {
		o.Max = 5
	}
	return o
}

// Toaster is one session's toast queue. Each toast removes itself after its
// duration unless it is closed first.
type Toaster struct {
	mu     sync.Mutex
	opts   ToastOptions
	toasts []Toast
	timers map[string]Timer
}

func NewToaster(opts ToastOptions) *Toaster {
	return &Toaster{opts: opts.withDefaults(), timers: map[string]Timer{}}
}

func (t *Toaster) Show(severity Severity, message string) Toast {
	now := t.opts.Clock.Now()
	duration := t.opts.Duration
	if severity == SeverityError {
		duration = t.opts.ErrorDuration
	}
	toast := Toast{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		CreatedAt: now,
		DismissAt: now.Add(duration),
	}

	t.mu.Lock()
	if t.opts.Mode == ModeSingleton {
		t.removeAllLocked()
	}
	for len(t.toasts) >= t.opts.Max {
		t.removeLocked(t.toasts[0].ID)
	}
	t.toasts = append(t.toasts, toast)
	id := toast.ID
	t.timers[id] = t.opts.Clock.AfterFunc(duration, func() { t.expire(id) })
	t.mu.Unlock()
	return toast
}

// Close removes the toast and cancels its auto-dismiss. It reports whether
// the toast was still showing.
func (t *Toaster) Close(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeLocked(id)
}

func (t *Toaster) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Toast, len(t.toasts))
	copy(out, t.toasts)
	return out
}

func (t *Toaster) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.toasts)
}

func (t *Toaster) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeAllLocked()
}

func (t *Toaster) expire(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.timers, id)
	for i, toast := range t.toasts {
		if toast.ID == id {
			t.toasts = append(t.toasts[:i], t.toasts[i+1:]...)
			return
		}
	}
}

func (t *Toaster) removeLocked(id string) bool {
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	for i, toast := range t.toasts {
		if toast.ID == id {
			t.toasts = append(t.toasts[:i], t.toasts[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Toaster) removeAllLocked() {
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.toasts = nil
}

// ToastHub keeps one Toaster per session.
type ToastHub struct {
	mu       sync.Mutex
	opts     ToastOptions
	toasters map[string]*Toaster
}

func NewToastHub(opts ToastOptions) *ToastHub {
	return &ToastHub{opts: opts.withDefaults(), toasters: map[string]*Toaster{}}
}

func (h *ToastHub) For(sessionID string) *Toaster {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.forLocked(sessionID)
}

// Show queues a toast for sessionID. The queue is looked up and filled under
// the hub lock so a concurrent Sweep cannot drop it in between.
func (h *ToastHub) Show(sessionID string, severity Severity, message string) Toast {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.forLocked(sessionID).Show(severity, message)
}

func (h *ToastHub) forLocked(sessionID string) *Toaster {
	toaster, ok := h.toasters[sessionID]
	if !ok {
		toaster = NewToaster(h.opts)
		h.toasters[sessionID] = toaster
	}
	return toaster
}

func (h *ToastHub) Drop(sessionID string) {
	h.mu.Lock()
	toaster, ok := h.toasters[sessionID]
	delete(h.toasters, sessionID)
	h.mu.Unlock()
	if ok {
		toaster.Clear()
	}
}

// Sweep forgets sessions whose queues are empty and returns how many it removed.
func (h *ToastHub) Sweep() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := 0
	for id, toaster := range h.toasters {
		if toaster.Len() == 0 {
			delete(h.toasters, id)
			removed++
		}
	}
	return removed
}
