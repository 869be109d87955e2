package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains metrics collector configuration.
type Config struct {
	// Enabled controls whether metrics are recorded.
	Enabled bool

	// Namespace is the metric name prefix.
	// Default: "callisto"
	Namespace string

	// EvalDurationBuckets are the histogram buckets for guard evaluation
	// duration in seconds.
	// Default: 10µs - 100ms
	EvalDurationBuckets []float64
}

// Collector registers and records all of Callisto's Prometheus metrics.
// A nil *Collector is safe to use; every record method becomes a no-op,
// so callers never need to branch on whether metrics are enabled.
type Collector struct {
	registry *prometheus.Registry

	decisionsTotal *prometheus.CounterVec
	evalDuration   prometheus.Histogram
	flagResults    *prometheus.CounterVec
	evalErrors     *prometheus.CounterVec
	registryFlags  prometheus.Gauge
	auditFailures  prometheus.Counter
	auditDropped   prometheus.Counter
}

// NewCollector creates a collector registered against registry. If
// registry is nil a fresh one is created. Returns nil (a no-op
// collector) when cfg.Enabled is false.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if !cfg.Enabled {
		return nil
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "callisto"
	}
	if len(cfg.EvalDurationBuckets) == 0 {
		// Guard evaluations are in-memory decisions; sub-millisecond is
		// the norm, anything near 100ms means a slow flag backend.
		cfg.EvalDurationBuckets = []float64{0.00001, 0.0001, 0.001, 0.01, 0.1}
	}

	c := &Collector{
		registry: registry,
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Guard decisions by outcome (allowed, denied, redirected, error).",
		}, []string{"outcome"}),
		evalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "guard",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating a navigation, including awaiting async answers.",
			Buckets:   cfg.EvalDurationBuckets,
		}),
		flagResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "flags",
			Name:      "results_total",
			Help:      "Flag service answers by result kind (bool, deferred, stream).",
		}, []string{"kind"}),
		evalErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "guard",
			Name:      "evaluation_errors_total",
			Help:      "Failed evaluations by error class (configuration, unhandled_result, other).",
		}, []string{"class"}),
		registryFlags: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "flags",
			Name:      "registry_size",
			Help:      "Number of flags in the active registry.",
		}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "audit",
			Name:      "write_failures_total",
			Help:      "Audit records that failed to persist.",
		}),
		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "audit",
			Name:      "records_dropped_total",
			Help:      "Audit records dropped due to a full buffer.",
		}),
	}

	registry.MustRegister(
		c.decisionsTotal,
		c.evalDuration,
		c.flagResults,
		c.evalErrors,
		c.registryFlags,
		c.auditFailures,
		c.auditDropped,
	)

	return c
}

// Registry returns the underlying Prometheus registry, or nil for a
// no-op collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordDecision records a completed guard decision.
func (c *Collector) RecordDecision(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.decisionsTotal.WithLabelValues(outcome).Inc()
	c.evalDuration.Observe(duration.Seconds())
}

// RecordFlagResult records the shape of a flag service answer.
func (c *Collector) RecordFlagResult(kind string) {
	if c == nil {
		return
	}
	c.flagResults.WithLabelValues(kind).Inc()
}

// RecordEvalError records a failed evaluation.
func (c *Collector) RecordEvalError(class string) {
	if c == nil {
		return
	}
	c.evalErrors.WithLabelValues(class).Inc()
}

// SetRegistrySize records the number of flags in the active registry.
func (c *Collector) SetRegistrySize(n int) {
	if c == nil {
		return
	}
	c.registryFlags.Set(float64(n))
}

// RecordAuditFailure records an audit record that failed to persist.
func (c *Collector) RecordAuditFailure() {
	if c == nil {
		return
	}
	c.auditFailures.Inc()
}

// RecordAuditDropped records an audit record dropped by a full buffer.
func (c *Collector) RecordAuditDropped() {
	if c == nil {
		return
	}
	c.auditDropped.Inc()
}
