// Package jobs runs the console's background work: the scheduled dashboard
// refresh, the upstream health probe and the session and toast sweeps, plus
// one-off jobs queued by request handlers.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	JobDashboardRefresh = "dashboard_refresh"
	JobUpstreamHealth   = "upstream_health"
	JobSessionSweep     = "session_sweep"
	JobToastSweep       = "toast_sweep"
)

// ErrSkipped marks a run that had nothing to do; it is not logged as a failure.
var ErrSkipped = errors.New("job skipped")

type Observer interface {
	JobRun(job string, err error)
}

type task struct {
	name     string
	interval time.Duration
	run      func(context.Context) error
}

type job struct {
	Type string
	Run  func(context.Context) error
}

type Service struct {
	observer Observer
	queue    chan job
	tasks    []task
	wg       sync.WaitGroup
}

func New(observer Observer) *Service {
	return &Service{observer: observer, queue: make(chan job, 32)}
}

// Every registers run to fire each interval once Start is called. A zero
// interval disables the task.
func (s *Service) Every(name string, interval time.Duration, run func(context.Context) error) {
	if interval <= 0 {
		return
	}
	s.tasks = append(s.tasks, task{name: name, interval: interval, run: run})
}

// Start launches the worker and the tickers. All of them stop when ctx is
// cancelled; Wait blocks until they have.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
	for _, t := range s.tasks {
		s.wg.Add(1)
		go func(t task) {
			defer s.wg.Done()
			s.schedule(ctx, t)
		}(t)
	}
}

func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Enqueue(jobType string, run func(context.Context) error) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) error) error {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			_ = s.runJob(ctx, j)
		}
	}
}

func (s *Service) schedule(ctx context.Context, t task) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.runJob(ctx, job{Type: t.name, Run: t.run})
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) error {
	start := time.Now()
	err := j.Run(ctx)
	switch {
	case errors.Is(err, ErrSkipped):
		slog.Debug("job skipped", "jobType", j.Type)
		return nil
	case err != nil && ctx.Err() == nil:
		slog.Warn("job run failed", "jobType", j.Type, "durationMs", time.Since(start).Milliseconds(), "err", err)
	}
	if s.observer != nil {
		s.observer.JobRun(j.Type, err)
	}
	return err
}
