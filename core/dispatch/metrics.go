package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	unitsDispatched *prometheus.CounterVec
	dispatchCost    *prometheus.HistogramVec
	unassigned      *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, *prometheus.CounterVec) {
	disp := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ersim_units_dispatched_total",
			Help: "Number of units bound to an emergency",
		},
		[]string{"emergency_category", "unit_category"},
	)
	cost := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ersim_dispatch_travel_time",
			Help:    "Travel time of dispatched units in simulation time units",
			Buckets: []float64{5, 10, 20, 40, 60, 120, 240, 480},
		},
		[]string{"unit_category"},
	)
	none := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ersim_dispatch_unassigned_total",
			Help: "Dispatch attempts that found no eligible idle unit",
		},
		[]string{"emergency_category"},
	)
	return disp, cost, none
}

func init() {
	unitsDispatched, dispatchCost, unassigned = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(unitsDispatched, dispatchCost, unassigned)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	unitsDispatched, dispatchCost, unassigned = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
