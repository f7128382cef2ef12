// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics instruments the coordinator core with Prometheus
// collectors: per-phase duration, per-message-kind accept/reject
// counts, and the in-flight aggregation size. It replaces the
// hand-rolled Counter/Gauge/Averager abstraction pattern with
// prometheus/client_golang's own types directly — see DESIGN.md for
// why the extra layer didn't earn its keep here.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/pet"
)

// Metrics holds every collector package phase and package pipeline
// report to. Registry is kept exported, matching the common
// Metrics.Registry field pattern, so a caller wiring its own /metrics endpoint
// can register additional collectors through the same Registerer.
type Metrics struct {
	Registry prometheus.Registerer

	PhaseDuration   *prometheus.HistogramVec
	RoundsTotal     prometheus.Counter
	RoundsFailed    prometheus.Counter
	MessagesTotal   *prometheus.CounterVec
	AggregationSize prometheus.Gauge
}

// NewMetrics creates and registers every collector against reg. reg
// must not be nil; callers that don't want Prometheus wiring should
// pass prometheus.NewRegistry() and simply never scrape it.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registry: reg,
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pet",
			Subsystem: "coordinator",
			Name:      "phase_duration_seconds",
			Help:      "Wall-clock duration of each completed phase, labeled by phase name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
		RoundsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pet",
			Subsystem: "coordinator",
			Name:      "rounds_total",
			Help:      "Total number of rounds started.",
		}),
		RoundsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pet",
			Subsystem: "coordinator",
			Name:      "rounds_failed_total",
			Help:      "Total number of rounds that transitioned to Failure.",
		}),
		MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pet",
			Subsystem: "coordinator",
			Name:      "messages_total",
			Help:      "Messages processed by the phase controller, labeled by tag and outcome.",
		}, []string{"tag", "outcome"}),
		AggregationSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pet",
			Subsystem: "coordinator",
			Name:      "aggregation_size",
			Help:      "Number of masked models folded into the current round's aggregation.",
		}),
	}

	for _, c := range []prometheus.Collector{m.PhaseDuration, m.RoundsTotal, m.RoundsFailed, m.MessagesTotal, m.AggregationSize} {
		_ = m.Register(c)
	}
	return m
}

// Register registers a prometheus collector, tolerating
// AlreadyRegisteredError so tests may construct more than one Metrics
// against a shared registry without failing.
func (m *Metrics) Register(collector prometheus.Collector) error {
	err := m.Registry.Register(collector)
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		_ = are
		return nil
	}
	return err
}

// ObservePhaseDuration records how long a completed phase ran.
func (m *Metrics) ObservePhaseDuration(phase pet.PhaseKind, seconds float64) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase.String()).Observe(seconds)
}

// RecordMessage increments the accept/reject counter for a message
// kind. outcome is typically "accepted" or "rejected".
func (m *Metrics) RecordMessage(tag, outcome string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(tag, outcome).Inc()
}
