package resilience

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsOptions controls construction of the layer's collectors.
type MetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
	Buckets    []float64
}

// Metrics holds the Prometheus collectors for the layer. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Calls       *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	BreakerInfo prometheus.Gauge
	Transitions *prometheus.CounterVec
}

// NewMetrics constructs the collectors and registers them. Collectors that
// are already registered are reused.
func NewMetrics(opts MetricsOptions) (*Metrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "portal"
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	calls, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "calls_total",
		Help:      "Outbound API calls partitioned by endpoint and outcome.",
	}, []string{"endpoint", "outcome"}))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "call_duration_seconds",
		Help:      "Latency of outbound API calls that reached the server.",
		Buckets:   buckets,
	}, []string{"endpoint"}))
	if err != nil {
		return nil, err
	}

	state, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
	}))
	if err != nil {
		return nil, err
	}

	transitions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "breaker",
		Name:      "transitions_total",
		Help:      "Circuit breaker transitions partitioned by target state.",
	}, []string{"to"}))
	if err != nil {
		return nil, err
	}

	return &Metrics{Calls: calls, Duration: duration, BreakerInfo: state, Transitions: transitions}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			existing, ok := already.ExistingCollector.(C)
			if !ok {
				return c, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
			}
			return existing, nil
		}
		return c, fmt.Errorf("register collector: %w", err)
	}
	return c, nil
}

func (m *Metrics) observe(endpoint, outcome string, d time.Duration, reached bool) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(endpoint, outcome).Inc()
	if reached {
		m.Duration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

func (m *Metrics) breakerChanged(_, to State) {
	if m == nil {
		return
	}
	m.BreakerInfo.Set(float64(to))
	m.Transitions.WithLabelValues(to.String()).Inc()
}
