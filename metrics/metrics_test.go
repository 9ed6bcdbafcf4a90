package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveSolve("SAT", time.Millisecond)
	m.ObserveSolve("UNSAT", time.Millisecond)
	m.ObserveSolve("UNSAT", 2*time.Millisecond)
	m.ObserveEncode(120, time.Microsecond)
	m.ObserveChain("direct", 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues("SAT")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Solves.WithLabelValues("UNSAT")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.Clauses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Chains.WithLabelValues("direct")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
	labels := make(map[string]string)
	for _, mf := range families {
		for _, pair := range mf.GetMetric()[0].GetLabel() {
			labels[mf.GetName()] = pair.GetName()
		}
	}
	assert.Equal(t, ResultLabel, labels["exactsynth_solves_total"])
	assert.Equal(t, StrategyLabel, labels["exactsynth_chains_total"])
}

func TestNil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSolve("SAT", time.Second)
		m.ObserveEncode(1, time.Second)
		m.ObserveChain("cegar", 1)
	})
}

func TestDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
	assert.NotPanics(t, func() { New(nil) })
}
