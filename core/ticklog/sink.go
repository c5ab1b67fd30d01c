package ticklog

import (
	"context"
	"time"

	"github.com/kilianp07/ersim/core/metrics"
)

// Sink adapts a LogStore to metrics.MetricsSink so ticks are persisted as
// they are produced.
type Sink struct {
	Store LogStore
	now   func() time.Time
}

func NewSink(store LogStore) *Sink {
	return &Sink{Store: store, now: time.Now}
}

func (s *Sink) RecordTick(ev metrics.TickEvent) error {
	return s.Store.Append(context.Background(), LogRecord{
		RunID:     ev.RunID,
		Timestamp: s.now().UTC(),
		Tick:      ev.Tick,
	})
}

// Close closes the underlying store.
func (s *Sink) Close() error { return s.Store.Close() }
