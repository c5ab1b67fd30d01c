package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ersim/config"
	"github.com/kilianp07/ersim/core/factory"
	"github.com/kilianp07/ersim/core/model"
	"github.com/kilianp07/ersim/core/ticklog"
	"github.com/kilianp07/ersim/core/topology"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Stations: []topology.StationConfig{{ID: "F1", Category: "fire", X: 20, Y: 20, Units: 1}},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	cfg.TickLog = ticklog.Config{Enabled: true, Backend: "jsonl", Path: filepath.Join(t.TempDir(), "ticks.jsonl")}

	svc, err := New(cfg)
	require.NoError(t, err)
	res, err := svc.Run(context.Background(), []model.ArrivalRecord{
		{Time: 0, ID: "E1", X: 20, Y: 30, Category: model.CategoryFire, Priority: 120},
		{Time: 1, ID: "E2", X: 0, Y: 0, Category: model.CategoryPolice, Priority: 10},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	assert.Equal(t, []string{"F1-0"}, res.UnitIDs)
	require.Len(t, res.Ticks, 3)
	assert.Equal(t, -1, res.Summary.Score)
	assert.Equal(t, 1, res.Summary.Resolved)
	assert.Equal(t, 1, res.Summary.Expired)

	store, err := ticklog.NewJSONLStore(cfg.TickLog.Path)
	require.NoError(t, err)
	logged, err := store.Query(context.Background(), ticklog.LogQuery{RunID: res.Summary.RunID})
	require.NoError(t, err)
	assert.Len(t, logged, 3)
}

func TestServiceRejectsEmptyTopology(t *testing.T) {
	cfg := testConfig(t)
	cfg.Stations = nil
	_, err := New(cfg)
	assert.ErrorIs(t, err, model.ErrEmptyTopology)

	cfg.Stations = []topology.StationConfig{{ID: "F1", Category: "fire"}}
	_, err = New(cfg)
	assert.ErrorIs(t, err, model.ErrEmptyTopology)
}

func TestServiceUnknownSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	_, err := New(cfg)
	assert.Error(t, err)
}
