package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"assignment_service/internal/domain"
)

const defaultNamespace = "assignment_service"

// PrometheusCollector records lifecycle and HTTP metrics.
type PrometheusCollector struct {
	transitions   *prometheus.CounterVec
	failures      *prometheus.CounterVec
	sweepMoved    prometheus.Counter
	sweepDuration prometheus.Histogram
	sweepRuns     prometheus.Counter
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// NewPrometheus registers the collectors on reg, or on the default registerer
// when reg is nil.
func NewPrometheus(reg prometheus.Registerer, namespace string) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultNamespace
	}

	p := &PrometheusCollector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Committed status transitions by operation and resulting status.",
		}, []string{"operation", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "failures_total",
			Help:      "Rejected or failed operations by operation and error kind.",
		}, []string{"operation", "kind"}),
		sweepMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "assignments_moved_total",
			Help:      "Assignments marked overdue by the deadline sweep.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "duration_seconds",
			Help:      "Duration of completed sweeps.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		sweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "runs_total",
			Help:      "Completed sweeps, including no-op runs before the cutoff.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	for _, c := range []prometheus.Collector{
		p.transitions, p.failures, p.sweepMoved, p.sweepDuration, p.sweepRuns, p.requests, p.latency,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *PrometheusCollector) TransitionApplied(op domain.Operation, to domain.AssignmentStatus) {
	p.transitions.WithLabelValues(string(op), string(to)).Inc()
}

func (p *PrometheusCollector) OperationFailed(op domain.Operation, kind string) {
	p.failures.WithLabelValues(string(op), kind).Inc()
}

func (p *PrometheusCollector) SweepCompleted(moved int, duration time.Duration) {
	p.sweepRuns.Inc()
	p.sweepMoved.Add(float64(moved))
	p.sweepDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) ObserveRequest(route, method string, code int, duration time.Duration) {
	p.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	p.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}
