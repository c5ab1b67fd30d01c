package ticklog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ersim/core/metrics"
	"github.com/kilianp07/ersim/core/model"
)

func sampleRecords() []LogRecord {
	ts := time.Unix(1700000000, 0).UTC()
	return []LogRecord{
		{RunID: "a", Timestamp: ts, Tick: model.TickRecord{Time: 0, EmergencyID: "E1", Closed: []string{}}},
		{RunID: "a", Timestamp: ts, Tick: model.TickRecord{Time: 5, EmergencyID: "E2", Closed: []string{"E1"}, Score: 1}},
		{RunID: "b", Timestamp: ts, Tick: model.TickRecord{Time: 7, EmergencyID: "E1", Closed: []string{}}},
		{RunID: "a", Timestamp: ts, Tick: model.TickRecord{Time: 130, Closed: []string{"E2"}, Final: true}},
	}
}

func ptr(v float64) *float64 { return &v }

func exerciseStore(t *testing.T, s LogStore) {
	t.Helper()
	ctx := context.Background()
	for _, r := range sampleRecords() {
		require.NoError(t, s.Append(ctx, r))
	}
	tests := []struct {
		name  string
		q     LogQuery
		times []float64
	}{
		{"all", LogQuery{}, []float64{0, 5, 7, 130}},
		{"run", LogQuery{RunID: "a"}, []float64{0, 5, 130}},
		{"window", LogQuery{From: ptr(5), To: ptr(7)}, []float64{5, 7}},
		{"emergency", LogQuery{RunID: "a", EmergencyID: "E1"}, []float64{0, 5}},
		{"closed only", LogQuery{EmergencyID: "E2"}, []float64{5, 130}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := s.Query(ctx, tt.q)
			require.NoError(t, err)
			var times []float64
			for _, r := range out {
				times = append(times, r.Tick.Time)
			}
			assert.Equal(t, tt.times, times)
		})
	}
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "ticks.jsonl"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ticks.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore(t *testing.T) {
	s, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "ticks.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore_ReadsBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	units := make([]model.UnitPosition, 200)
	for i := range units {
		units[i] = model.UnitPosition{UnitID: "U", X: float64(i), Y: float64(i), State: "idle"}
	}
	ctx := context.Background()
	const n = 150
	for i := 0; i < n; i++ {
		rec := LogRecord{RunID: "r", Tick: model.TickRecord{Time: float64(i), Units: units, Closed: []string{}}}
		require.NoError(t, s.Append(ctx, rec))
	}
	backups, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "ticks-*.jsonl"))
	assert.NotEmpty(t, backups)

	out, err := s.Query(ctx, LogQuery{RunID: "r"})
	require.NoError(t, err)
	require.Len(t, out, n)
	for i, r := range out {
		assert.Equal(t, float64(i), r.Tick.Time)
	}
}

func TestLogRecord_JSON(t *testing.T) {
	data, err := json.Marshal(sampleRecords()[1])
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, k := range []string{"run_id", "timestamp", "tick"} {
		assert.Contains(t, m, k)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		cfg  Config
		want any
	}{
		{Config{Backend: "jsonl", Path: filepath.Join(dir, "a.jsonl")}, &JSONLStore{}},
		{Config{Backend: "jsonl", Path: filepath.Join(dir, "b.jsonl"), MaxSizeMB: 1}, &RotatingJSONLStore{}},
		{Config{Backend: "sqlite", Path: filepath.Join(dir, "c.db")}, &SQLiteStore{}},
	}
	for _, tt := range tests {
		s, err := Open(tt.cfg)
		require.NoError(t, err)
		assert.IsType(t, tt.want, s)
		require.NoError(t, s.Close())
	}
	_, err := Open(Config{Backend: "parquet"})
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	c := Config{Enabled: true, Backend: "sqlite"}
	c.SetDefaults()
	assert.Equal(t, "ticks.db", c.Path)
	assert.NoError(t, c.Validate())

	assert.Error(t, Config{Enabled: true, Backend: "csv"}.Validate())
	assert.NoError(t, Config{Backend: "csv"}.Validate())
}

func TestSinkAppendsTicks(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "ticks.jsonl"))
	require.NoError(t, err)
	sink := NewSink(store)
	sink.now = func() time.Time { return time.Unix(10, 0) }

	require.NoError(t, sink.RecordTick(metrics.TickEvent{RunID: "x", Tick: model.TickRecord{Time: 3, Closed: []string{}}}))
	out, err := store.Query(context.Background(), LogQuery{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "x", out[0].RunID)
	assert.True(t, out[0].Timestamp.Equal(time.Unix(10, 0)))
	assert.NoError(t, sink.Close())
}
