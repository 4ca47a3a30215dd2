package ui

import (
	"math"
	"sync"
	"time"
)

const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs fn once after calls to Trigger stop arriving for delay.
type Debouncer struct {
	mu    sync.Mutex
	clock Clock
	delay time.Duration
	fn    func()
	timer Timer
}

func NewDebouncer(clock Clock, delay time.Duration, fn func()) *Debouncer {
	if clock == nil {
		clock = SystemClock
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{clock: clock, delay: delay, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Stop drops a pending run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

type Easing func(progress float64) float64

func Linear(p float64) float64 { return p }

func EaseOutQuad(p float64) float64 { return 1 - (1-p)*(1-p) }

// CountUp returns the values a KPI shows while animating from one number to
// another: one frame per step over duration, the last frame exactly to.
func CountUp(from, to float64, duration, step time.Duration, ease Easing) []float64 {
	if ease == nil {
		ease = Linear
	}
	frames := 1
	if step > 0 && duration > step {
		frames = int(duration / step)
	}
	out := make([]float64, frames)
	for i := 1; i <= frames; i++ {
		progress := float64(i) / float64(frames)
		out[i-1] = from + (to-from)*ease(progress)
	}
	out[frames-1] = to
	return out
}

// RoundFrames rounds every frame to the given number of decimals.
func RoundFrames(frames []float64, decimals int) []float64 {
	scale := math.Pow(10, float64(decimals))
	out := make([]float64, len(frames))
	for i, v := range frames {
		out[i] = math.Round(v*scale) / scale
	}
	return out
}
