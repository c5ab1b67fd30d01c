package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	unitsDispatched.WithLabelValues("fire", "fire").Inc()
	dispatchCost.WithLabelValues("fire").Observe(12)
	unassigned.WithLabelValues("other").Inc()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, n := range []string{
		"ersim_units_dispatched_total",
		"ersim_dispatch_travel_time",
		"ersim_dispatch_unassigned_total",
	} {
		assert.True(t, names[n], n)
	}
}

func TestMustRegisterMetricsTwicePanics(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	assert.Panics(t, func() { MustRegisterMetrics(reg) })
}
