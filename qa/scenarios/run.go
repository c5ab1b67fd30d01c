package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ersim/core/events"
	"github.com/kilianp07/ersim/core/model"
	"github.com/kilianp07/ersim/core/simulation"
	"github.com/kilianp07/ersim/core/topology"
	"github.com/kilianp07/ersim/infra/logger"
	"github.com/kilianp07/ersim/infra/metrics"
	"github.com/kilianp07/ersim/internal/eventbus"
)

func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	topo, err := topology.New(sc.Stations)
	require.NoError(t, err)

	bus := eventbus.New[events.Event]()
	sub := bus.SubscribeBuffered(4096)
	closures := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sub {
			switch ev.(type) {
			case events.Resolved, events.Expired:
				closures++
			}
		}
	}()

	clock, err := simulation.NewClock(topo, sc.Simulation.ToConfig(),
		simulation.WithSink(sink),
		simulation.WithBus(bus),
		simulation.WithLogger(logger.NopLogger{}),
		simulation.WithRunID(sc.Name),
	)
	require.NoError(t, err)

	records := make([]model.ArrivalRecord, 0, len(sc.Records))
	for _, r := range sc.Records {
		rec, err := r.ToModel()
		require.NoError(t, err)
		records = append(records, rec)
	}

	ticks := 0
	sum, err := clock.Run(context.Background(), records, func(model.TickRecord) error {
		ticks++
		return nil
	})
	require.NoError(t, err)
	bus.Close()
	<-done

	exp := sc.Expected
	assert.Equal(t, exp.Score, sum.Score, "score")
	assert.Equal(t, exp.Ticks, ticks, "ticks")
	assert.Equal(t, exp.Resolved, sum.Resolved, "resolved")
	assert.Equal(t, exp.Expired, sum.Expired, "expired")
	assert.Equal(t, exp.Unassigned, sum.Unassigned, "unassigned")
	assert.Equal(t, exp.Skipped, sum.Skipped, "skipped")
	assert.Equal(t, exp.Resolved+exp.Expired, closures, "closure events")
	assert.InDelta(t, float64(exp.Score), gauge(t, reg, "ersim_score"), 1e-9)
	assert.InDelta(t, float64(ticks), gauge(t, reg, "ersim_ticks_total"), 1e-9)

	states := make(map[string]string, len(clock.Emergencies()))
	for _, e := range clock.Emergencies() {
		states[e.ID] = e.State().String()
	}
	for id, want := range exp.States {
		assert.Equal(t, want, states[id], "state of %s", id)
	}

	units := make(map[string]model.UnitPosition)
	for _, u := range clock.Units() {
		units[u.ID] = u.Snapshot()
	}
	for id, want := range exp.Units {
		got, ok := units[id]
		if assert.True(t, ok, "unit %s", id) {
			assert.InDelta(t, want[0], got.X, 1e-6, "%s x", id)
			assert.InDelta(t, want[1], got.Y, 1e-6, "%s y", id)
		}
	}
}

func gauge(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name || len(mf.GetMetric()) == 0 {
			continue
		}
		m := mf.GetMetric()[0]
		if g := m.GetGauge(); g != nil {
			return g.GetValue()
		}
		return m.GetCounter().GetValue()
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
