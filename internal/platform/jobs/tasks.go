package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthProbe remembers whether the upstream answered the last probe.
type HealthProbe struct {
	target  Pinger
	onCheck func(up bool)
	ready   atomic.Bool
	checked atomic.Int64
}

func NewHealthProbe(target Pinger, onCheck func(up bool)) *HealthProbe {
	return &HealthProbe{target: target, onCheck: onCheck}
}

func (h *HealthProbe) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := h.target.Ping(ctx)
	up := err == nil
	if h.ready.Swap(up) != up {
		slog.Info("upstream health changed", "up", up)
	}
	h.checked.Store(time.Now().Unix())
	if h.onCheck != nil {
		h.onCheck(up)
	}
	return err
}

// Ready is false until the first successful probe.
func (h *HealthProbe) Ready() bool { return h.ready.Load() }

// CheckedAt is the time of the last probe, zero before the first.
func (h *HealthProbe) CheckedAt() time.Time {
	if ts := h.checked.Load(); ts > 0 {
		return time.Unix(ts, 0)
	}
	return time.Time{}
}

type Refresher interface {
	RefreshBackground(ctx context.Context) error
}

// DashboardRefresh skips quietly when no admin has signed in yet.
func DashboardRefresh(r Refresher, noCredentials error) func(context.Context) error {
	return func(ctx context.Context) error {
		err := r.RefreshBackground(ctx)
		if noCredentials != nil && errors.Is(err, noCredentials) {
			return ErrSkipped
		}
		return err
	}
}

type SessionSweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

func SessionSweep(store SessionSweeper) func(context.Context) error {
	return func(ctx context.Context) error {
		removed, err := store.Sweep(ctx, time.Now())
		if err != nil {
			return err
		}
		if removed > 0 {
			slog.Info("expired sessions removed", "count", removed)
		}
		return nil
	}
}

type ToastSweeper interface {
	Sweep() int
}

func ToastSweep(hub ToastSweeper) func(context.Context) error {
	return func(context.Context) error {
		hub.Sweep()
		return nil
	}
}
