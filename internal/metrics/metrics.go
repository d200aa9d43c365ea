package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the appointment lifecycle. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Use-case outcomes by operation and error kind ("ok" on success)
	UseCaseOutcome *prometheus.CounterVec

	// Decision engine verdicts by autonomy level and action
	DecisionVerdict *prometheus.CounterVec

	// Published domain events by type
	EventsPublished *prometheus.CounterVec

	// Duration of one orchestrator run including publish and save
	UseCaseLatency *prometheus.HistogramVec
}

// New registers every collector on reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UseCaseOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_usecase_outcomes_total",
			Help: "Use-case outcomes by operation and result kind",
		}, []string{"operation", "kind"}),

		DecisionVerdict: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_decision_verdicts_total",
			Help: "Decision engine verdicts by autonomy level and action",
		}, []string{"level", "action"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_events_published_total",
			Help: "Domain events published by type",
		}, []string{"type"}),

		UseCaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinic_usecase_duration_seconds",
			Help:    "Duration of use-case runs",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementOutcome(operation, kind string) {
	if m != nil {
		m.UseCaseOutcome.WithLabelValues(operation, kind).Inc()
	}
}

func (m *Metrics) IncrementVerdict(level, action string) {
	if m != nil {
		m.DecisionVerdict.WithLabelValues(level, action).Inc()
	}
}

func (m *Metrics) IncrementPublished(eventType string) {
	if m != nil {
		m.EventsPublished.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) ObserveUseCase(operation string, d time.Duration) {
	if m != nil {
		m.UseCaseLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
