package events

import "github.com/kilianp07/ersim/core/model"

// Event is implemented by every simulation event.
type Event interface{ isEvent() }

// Dispatched is published when a unit is bound to an emergency.
type Dispatched struct {
	Time        float64
	EmergencyID string
	UnitID      string
	Cost        float64
	ArrivalAt   float64
}

// Unassigned is published when no unit qualified for a new emergency.
type Unassigned struct {
	Time        float64
	EmergencyID string
	Category    model.Category
}

// Resolved is published when a unit reaches its emergency in time.
type Resolved struct {
	Time        float64
	EmergencyID string
	UnitID      string
	ArrivalAt   float64
	Points      int
}

// Expired is published when an emergency passes its deadline. UnitID is set
// when a bound unit was still travelling or arrived late.
type Expired struct {
	Time        float64
	EmergencyID string
	UnitID      string
	Penalty     int
}

// TickCompleted carries the output record of a tick.
type TickCompleted struct {
	Tick model.TickRecord
}

func (Dispatched) isEvent()    {}
func (Unassigned) isEvent()    {}
func (Resolved) isEvent()      {}
func (Expired) isEvent()       {}
func (TickCompleted) isEvent() {}
