// Package metrics instruments a transport with Prometheus counters and
// latency histograms.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"angles-reporter/src/contracts"
	"angles-reporter/src/transport"
)

const (
	labelOp      = "op"
	labelOutcome = "outcome"
	labelStatus  = "status"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// Collector owns a private registry so several collectors can coexist in tests.
type Collector struct {
	registry   *prometheus.Registry
	calls      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	executions *prometheus.CounterVec
}

// NewCollector creates a collector with its metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "angles_transport_calls_total",
			Help: "Transport calls by operation and outcome",
		}, []string{labelOp, labelOutcome}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "angles_transport_duration_seconds",
			Help:    "Transport call latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{labelOp}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "angles_executions_saved_total",
			Help: "Executions acknowledged by the service, by status",
		}, []string{labelStatus}),
	}
	c.registry.MustRegister(c.calls, c.duration, c.executions)
	return c
}

// Handler serves the collector in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) observe(op string, start time.Time, err error) {
	c.calls.WithLabelValues(op, outcome(err)).Inc()
	c.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}

// Transport records every call made through next.
type Transport struct {
	next      transport.Transport
	collector *Collector
}

var _ transport.Transport = (*Transport)(nil)

// Instrument wraps next. A nil collector returns next unchanged.
func Instrument(next transport.Transport, c *Collector) transport.Transport {
	if c == nil {
		return next
	}
	return &Transport{next: next, collector: c}
}

func (t *Transport) CreateBuild(ctx context.Context, req *contracts.CreateBuildRequest) (*contracts.Build, error) {
	start := time.Now()
	build, err := t.next.CreateBuild(ctx, req)
	t.collector.observe("create_build", start, err)
	return build, err
}

func (t *Transport) AddArtifacts(ctx context.Context, buildID string, artifacts []contracts.Artifact) (*contracts.Build, error) {
	start := time.Now()
	build, err := t.next.AddArtifacts(ctx, buildID, artifacts)
	t.collector.observe("add_artifacts", start, err)
	return build, err
}

func (t *Transport) SaveExecution(ctx context.Context, execution *contracts.Execution) (*contracts.ExecutionAck, error) {
	start := time.Now()
	ack, err := t.next.SaveExecution(ctx, execution)
	t.collector.observe("save_execution", start, err)
	if err == nil && ack != nil {
		status := string(ack.Status)
		if status == "" {
			status = "unknown"
		}
		t.collector.executions.WithLabelValues(status).Inc()
	}
	return ack, err
}

func (t *Transport) SaveScreenshot(ctx context.Context, req *contracts.StoreScreenshotRequest, platform *contracts.ScreenshotPlatform) (*contracts.Screenshot, error) {
	start := time.Now()
	shot, err := t.next.SaveScreenshot(ctx, req, platform)
	t.collector.observe("save_screenshot", start, err)
	return shot, err
}
