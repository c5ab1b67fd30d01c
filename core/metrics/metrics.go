package metrics

import "github.com/kilianp07/ersim/core/model"

// TickEvent is the per-tick sample delivered to sinks.
type TickEvent struct {
	RunID   string
	Tick    model.TickRecord
	EnRoute int
	Active  int
}

// MetricsSink records tick snapshots for observability purposes.
type MetricsSink interface {
	RecordTick(ev TickEvent) error
}

// Outcome describes an emergency reaching a terminal state.
type Outcome struct {
	RunID       string
	EmergencyID string
	Category    model.Category
	State       model.EmergencyState
	UnitID      string
	CreatedAt   float64
	Deadline    float64
	ClosedAt    float64
	Points      int
}

// ResponseTime is the time from creation to closure.
func (o Outcome) ResponseTime() float64 { return o.ClosedAt - o.CreatedAt }

// OutcomeRecorder records resolved and expired emergencies.
type OutcomeRecorder interface {
	RecordOutcome(o Outcome) error
}

// DispatchEvent describes a unit bound to an emergency.
type DispatchEvent struct {
	RunID             string
	EmergencyID       string
	EmergencyCategory model.Category
	UnitID            string
	UnitCategory      model.Category
	Time              float64
	Cost              float64
}

// DispatchRecorder records dispatch decisions.
type DispatchRecorder interface {
	RecordDispatch(ev DispatchEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickEvent) error         { return nil }
func (NopSink) RecordOutcome(Outcome) error        { return nil }
func (NopSink) RecordDispatch(DispatchEvent) error { return nil }
