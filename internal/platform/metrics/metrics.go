// Package metrics exposes console and upstream call metrics to prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamUp       prometheus.Gauge
	jobRuns          *prometheus.CounterVec

	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ems_console_http_requests_total",
			Help: "Console HTTP requests by method and status.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ems_console_http_request_duration_seconds",
			Help:    "Console HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ems_upstream_requests_total",
			Help: "Upstream EMS API calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ems_upstream_request_duration_seconds",
			Help:    "Upstream EMS API call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		upstreamUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ems_upstream_up",
			Help: "1 when the last upstream health probe succeeded.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ems_console_job_runs_total",
			Help: "Scheduled job runs by job and status.",
		}, []string{"job", "status"}),
	}
	c.registry.MustRegister(
		c.httpRequests, c.httpDuration,
		c.upstreamRequests, c.upstreamDuration, c.upstreamUp,
		c.jobRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Record counts one console HTTP response.
func (c *Collector) Record(method string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method).Observe(duration.Seconds())

	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == http.StatusTooManyRequests {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) ObserveUpstream(endpoint, outcome string, duration time.Duration) {
	c.upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	c.upstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (c *Collector) SetUpstreamUp(up bool) {
	if up {
		c.upstreamUp.Set(1)
		return
	}
	c.upstreamUp.Set(0)
}

func (c *Collector) JobRun(job string, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	c.jobRuns.WithLabelValues(job, status).Inc()
}

// Snapshot summarises console traffic for /readyz.
func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
	}
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
