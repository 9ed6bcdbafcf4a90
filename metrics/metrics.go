// Package metrics exposes prometheus collectors for synthesis runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label names of the collectors.
const (
	// ResultLabel holds the outcome of a solver call: SAT, UNSAT or TIMEOUT.
	ResultLabel = "result"
	// StrategyLabel holds the search strategy that found a chain.
	StrategyLabel = "strategy"
)

// Metrics holds the collectors of a synthesis run. A nil *Metrics records nothing.
type Metrics struct {
	Solves         *prometheus.CounterVec
	SolveDuration  prometheus.Histogram
	EncodeDuration prometheus.Histogram
	Clauses        prometheus.Counter
	Chains         *prometheus.CounterVec
	ChainSteps     prometheus.Histogram
}

// New creates the collectors and registers them with reg, if reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exactsynth_solves_total",
				Help: "Number of SAT solver calls, by outcome",
			},
			[]string{ResultLabel},
		),
		SolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "exactsynth_solve_duration_seconds",
				Help:    "Duration of SAT solver calls",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		EncodeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "exactsynth_encode_duration_seconds",
				Help:    "Duration of the encoding of an attempt",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		Clauses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "exactsynth_clauses_total",
				Help: "Number of clauses given to SAT solvers",
			},
		),
		Chains: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exactsynth_chains_total",
				Help: "Number of chains found, by search strategy",
			},
			[]string{StrategyLabel},
		),
		ChainSteps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "exactsynth_chain_steps",
				Help:    "Number of steps of the chains found",
				Buckets: prometheus.LinearBuckets(0, 2, 11),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Solves, m.SolveDuration, m.EncodeDuration, m.Clauses, m.Chains, m.ChainSteps)
	}
	return m
}

// ObserveSolve records a solver call and its outcome.
func (m *Metrics) ObserveSolve(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Solves.WithLabelValues(result).Inc()
	m.SolveDuration.Observe(d.Seconds())
}

// ObserveEncode records the encoding of an attempt.
func (m *Metrics) ObserveEncode(clauses int, d time.Duration) {
	if m == nil {
		return
	}
	m.Clauses.Add(float64(clauses))
	m.EncodeDuration.Observe(d.Seconds())
}

// ObserveChain records a chain found by the given strategy.
func (m *Metrics) ObserveChain(strategy string, steps int) {
	if m == nil {
		return
	}
	m.Chains.WithLabelValues(strategy).Inc()
	m.ChainSteps.Observe(float64(steps))
}
