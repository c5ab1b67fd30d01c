package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ersim/core/factory"
	metrics "github.com/kilianp07/ersim/core/metrics"
	_ "github.com/kilianp07/ersim/infra/metrics"
)

func TestMetricsFactory_Builtins(t *testing.T) {
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}})
	assert.Error(t, err)
	assert.Contains(t, metrics.SinkTypes(), "prometheus")
	assert.Contains(t, metrics.SinkTypes(), "influx")
}

func TestNewMetricsSink_Multi(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	_, ok := s.(metrics.NopSink)
	assert.True(t, ok, "expected NopSink, got %T", s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "expected MultiSink, got %T", s)
	assert.Len(t, m.Sinks, 2)
}

type closingSink struct {
	metrics.NopSink
	closed *int
}

func (c closingSink) Close() error {
	*c.closed++
	return nil
}

func TestNewMetricsSink_ClosesBuiltSinksOnError(t *testing.T) {
	closed := 0
	metrics.RegisterMetricsSink("test-closer", func(map[string]any) (metrics.MetricsSink, error) {
		return closingSink{closed: &closed}, nil
	})
	_, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "test-closer"}, {Type: "missing"}})
	assert.ErrorContains(t, err, "sink 1")
	assert.Equal(t, 1, closed)
}
