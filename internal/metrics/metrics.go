// Package metrics holds the Prometheus instruments of the allotment server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes.
const (
	OutcomeSelected  = "selected"
	OutcomeTimedOut  = "timed_out"
	OutcomeCancelled = "cancelled"
	OutcomeReset     = "reset"
)

// Run results.
const (
	RunStarted   = "started"
	RunFinished  = "finished"
	RunCancelled = "cancelled"
	RunReset     = "reset"
	RunRejected  = "rejected"
)

// Metrics groups the allotment instruments on a private registry.
type Metrics struct {
	r *prometheus.Registry

	Runs                *prometheus.CounterVec
	Turns               *prometheus.CounterVec
	SelectionRejections *prometheus.CounterVec
	QueueLength         prometheus.Gauge
}

// New creates and registers all instruments.
func New() *Metrics {
	r := prometheus.NewRegistry()

	m := &Metrics{
		r: r,
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "allotment_runs_total",
				Help: "Allotment runs by result",
			},
			[]string{"result"},
		),
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "allotment_turns_total",
				Help: "Completed turns by outcome",
			},
			[]string{"outcome"},
		),
		SelectionRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "allotment_selection_rejections_total",
				Help: "Rejected room selections by reason",
			},
			[]string{"reason"},
		),
		QueueLength: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "allotment_queue_length",
				Help: "Groups waiting for their turn",
			},
		),
	}

	r.MustRegister(m.Runs, m.Turns, m.SelectionRejections, m.QueueLength)

	return m
}

// Registry returns the registerer for additional collectors.
func (m *Metrics) Registry() prometheus.Registerer {
	return m.r
}

// Gatherer returns the gatherer backing the handler.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.r
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.r, promhttp.HandlerOpts{
		Registry:          m.r,
		EnableOpenMetrics: true,
	})
}

// RunResult counts a run lifecycle event. Safe on a nil receiver.
func (m *Metrics) RunResult(result string) {
	if m == nil {
		return
	}

	m.Runs.WithLabelValues(result).Inc()
}

// TurnOutcome counts an ended turn. Safe on a nil receiver.
func (m *Metrics) TurnOutcome(outcome string) {
	if m == nil {
		return
	}

	m.Turns.WithLabelValues(outcome).Inc()
}

// SelectionRejected counts a refused selection. Safe on a nil receiver.
func (m *Metrics) SelectionRejected(reason string) {
	if m == nil {
		return
	}

	m.SelectionRejections.WithLabelValues(reason).Inc()
}

// SetQueueLength records the number of waiting groups. Safe on a nil receiver.
func (m *Metrics) SetQueueLength(n int) {
	if m == nil {
		return
	}

	m.QueueLength.Set(float64(n))
}
