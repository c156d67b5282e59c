package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters exported by the lifecycle processor.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	cycleRuns     *prometheus.CounterVec
	memberActions *prometheus.CounterVec
	stepFailures  *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec

	registerOnce sync.Once
}

// New creates and registers the metrics with registry.
// If registry is nil, the default registerer is used.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.Register(registry)
	return m
}

// Register registers the collectors. Subsequent calls are no-ops.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.cycleRuns = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commitbot_cycle_runs_total",
			Help: "Total number of lifecycle cycle runs by kind and outcome",
		}, []string{"kind", "outcome"})

		m.memberActions = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commitbot_member_actions_total",
			Help: "Total number of member state transitions applied by the lifecycle processor",
		}, []string{"action"})

		m.stepFailures = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commitbot_step_failures_total",
			Help: "Total number of per-member step failures",
		}, []string{"step"})

		m.cycleDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "commitbot_cycle_duration_seconds",
			Help:    "Duration of lifecycle cycle runs",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"kind"})
	})
}

// IncCycleRun counts one finished run.
func (m *Metrics) IncCycleRun(kind, outcome string) {
	if m == nil || m.cycleRuns == nil {
		return
	}
	m.cycleRuns.WithLabelValues(kind, outcome).Inc()
}

// IncMemberAction counts one member transition such as "strike" or "removed".
func (m *Metrics) IncMemberAction(action string) {
	if m == nil || m.memberActions == nil {
		return
	}
	m.memberActions.WithLabelValues(action).Inc()
}

// IncStepFailure counts one failed store, gateway or notification step.
func (m *Metrics) IncStepFailure(step string) {
	if m == nil || m.stepFailures == nil {
		return
	}
	m.stepFailures.WithLabelValues(step).Inc()
}

// ObserveCycleDuration records how long a run took.
func (m *Metrics) ObserveCycleDuration(kind string, d time.Duration) {
	if m == nil || m.cycleDuration == nil {
		return
	}
	m.cycleDuration.WithLabelValues(kind).Observe(d.Seconds())
}
