// Package metrics records request pipeline metrics with Prometheus.
//
// A Collector satisfies the recorder interface consumed by the request handler:
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.New("site", reg)
//	h := request.NewHandler(table, renderer, request.WithRecorder(m))
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrRegister wraps collector registration failures.
var ErrRegister = errors.New("failed to register pagekit metrics")

// Collector holds the pipeline metric vectors.
type Collector struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	loaders    *prometheus.CounterVec
	loaderTime *prometheus.HistogramVec
	violations *prometheus.CounterVec
}

// New creates the metric vectors under namespace and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Requests processed by the pipeline, by outcome and status code.",
		}, []string{"outcome", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "request_duration_seconds",
			Help:      "Time from request start until the response stream is finalized.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		loaders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "executions_total",
			Help:      "Loader producer executions, by loader id and result.",
		}, []string{"loader", "result"}),
		loaderTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "duration_seconds",
			Help:      "Loader producer execution time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"loader"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "violations_total",
			Help:      "Response protocol violations such as double writes.",
		}, []string{"kind"}),
	}

	for _, col := range []prometheus.Collector{c.requests, c.duration, c.loaders, c.loaderTime, c.violations} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRegister, err)
		}
	}
	return c, nil
}

// RequestFinished records a completed request.
func (c *Collector) RequestFinished(outcome string, status int, d time.Duration) {
	c.requests.WithLabelValues(outcome, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

// LoaderExecuted records one producer execution.
func (c *Collector) LoaderExecuted(id string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.loaders.WithLabelValues(id, result).Inc()
	c.loaderTime.WithLabelValues(id).Observe(d.Seconds())
}

// ViolationObserved records a protocol violation.
func (c *Collector) ViolationObserved(kind string) {
	c.violations.WithLabelValues(kind).Inc()
}
