package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"emsconsole/internal/emsapi"
)

const dashboardKey = "admin-dashboard"

var ErrNoCredentials = errors.New("no admin credentials for background refresh")

type DashboardSource interface {
	AdminDashboard(ctx context.Context) (emsapi.AdminDashboard, error)
}

type DashboardSnapshot struct {
	Data      emsapi.AdminDashboard `json:"data"`
	FetchedAt time.Time             `json:"fetchedAt"`
}

// Dashboard serves the admin aggregate from cache, fetching at most once at a
// time. The background refresh borrows the credentials of the last admin who
// fetched successfully; they are kept in memory only.
type Dashboard struct {
	source    DashboardSource
	snapshots Snapshots
	maxAge    time.Duration
	now       func() time.Time
	group     singleflight.Group

	mu    sync.Mutex
	creds emsapi.Credentials
}

func NewDashboard(source DashboardSource, snapshots Snapshots, maxAge time.Duration) *Dashboard {
	return &Dashboard{source: source, snapshots: snapshots, maxAge: maxAge, now: time.Now}
}

// Get returns a fresh enough snapshot or fetches one. When the fetch fails
// the last good snapshot comes back with the error; without one the zero
// aggregate does.
func (d *Dashboard) Get(ctx context.Context) (DashboardSnapshot, error) {
	cached, ok := d.cached(ctx)
	if ok && d.now().Sub(cached.FetchedAt) < d.maxAge {
		return cached, nil
	}
	fresh, err := d.Refresh(ctx)
	if err != nil {
		return cached, err
	}
	return fresh, nil
}

// Refresh fetches now with the caller's credentials. Concurrent callers share
// one upstream call.
func (d *Dashboard) Refresh(ctx context.Context) (DashboardSnapshot, error) {
	creds := emsapi.CredentialsFrom(ctx)
	v, err, _ := d.group.Do(dashboardKey, func() (any, error) {
		data, err := d.source.AdminDashboard(ctx)
		if err != nil {
			return nil, err
		}
		snap := DashboardSnapshot{Data: data, FetchedAt: d.now()}
		if err := d.snapshots.Set(ctx, dashboardKey, snap, 0); err != nil {
			slog.Warn("dashboard snapshot store failed", "err", err)
		}
		return snap, nil
	})
	if err != nil {
		if emsapi.IsUnauthorized(err) {
			d.forget(creds)
		}
		cached, _ := d.cached(ctx)
		return cached, err
	}
	if len(creds) > 0 {
		d.mu.Lock()
		d.creds = creds
		d.mu.Unlock()
	}
	return v.(DashboardSnapshot), nil
}

// RefreshBackground is the scheduled refresh.
func (d *Dashboard) RefreshBackground(ctx context.Context) error {
	d.mu.Lock()
	creds := d.creds
	d.mu.Unlock()
	if len(creds) == 0 {
		return ErrNoCredentials
	}
	_, err := d.Refresh(emsapi.WithCredentials(ctx, creds))
	return err
}

func (d *Dashboard) cached(ctx context.Context) (DashboardSnapshot, bool) {
	var snap DashboardSnapshot
	ok, err := d.snapshots.Get(ctx, dashboardKey, &snap)
	if err != nil {
		slog.Warn("dashboard snapshot read failed", "err", err)
		return DashboardSnapshot{}, false
	}
	return snap, ok
}

func (d *Dashboard) forget(creds emsapi.Credentials) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(creds) == 0 || sameCredentials(d.creds, creds) {
		d.creds = nil
	}
}

func sameCredentials(a, b emsapi.Credentials) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
