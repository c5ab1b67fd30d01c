package model

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// EmergencyState is the lifecycle stage of an emergency.
type EmergencyState uint8

const (
	EmergencyPending EmergencyState = iota
	EmergencyAssigned
	EmergencyResolved
	EmergencyExpired
)

func (s EmergencyState) String() string {
	switch s {
	case EmergencyPending:
		return "pending"
	case EmergencyAssigned:
		return "assigned"
	case EmergencyResolved:
		return "resolved"
	case EmergencyExpired:
		return "expired"
	default:
		return fmt.Sprintf("EmergencyState(%d)", uint8(s))
	}
}

// Emergency is one incident. Priority is the allowed slack in time units and
// the deadline is fixed at creation.
type Emergency struct {
	ID        string
	Pos       r2.Vec
	Category  Category
	Priority  float64
	CreatedAt float64
	Deadline  float64

	state    EmergencyState
	unitID   string
	closedAt float64
}

// NewEmergency creates a pending emergency from an arrival record.
func NewEmergency(rec ArrivalRecord) *Emergency {
	return &Emergency{
		ID:        rec.ID,
		Pos:       rec.Pos(),
		Category:  rec.Category,
		Priority:  rec.Priority,
		CreatedAt: rec.Time,
		Deadline:  rec.Time + rec.Priority,
	}
}

func (e *Emergency) State() EmergencyState { return e.state }

// UnitID returns the bound unit, empty unless the emergency was assigned.
func (e *Emergency) UnitID() string { return e.unitID }

// ClosedAt is the arrival time for a resolved emergency and the tick time at
// which expiry was observed for an expired one.
func (e *Emergency) ClosedAt() float64 { return e.closedAt }

// Terminal reports whether the emergency is resolved or expired.
func (e *Emergency) Terminal() bool {
	return e.state == EmergencyResolved || e.state == EmergencyExpired
}

// Eligible reports whether a unit of category c may respond.
func (e *Emergency) Eligible(c Category) bool { return e.Category.Accepts(c) }

// Overdue reports whether the deadline has passed at now without resolution.
func (e *Emergency) Overdue(now float64) bool {
	return !e.Terminal() && now > e.Deadline
}

func (e *Emergency) assign(unitID string) error {
	if e.state != EmergencyPending {
		return fmt.Errorf("%w: assign emergency %s in state %s", ErrInvalidTransition, e.ID, e.state)
	}
	e.state = EmergencyAssigned
	e.unitID = unitID
	return nil
}

// Resolve closes an assigned emergency at the given arrival time.
func (e *Emergency) Resolve(at float64) error {
	if e.state != EmergencyAssigned {
		return fmt.Errorf("%w: resolve emergency %s in state %s", ErrInvalidTransition, e.ID, e.state)
	}
	e.state = EmergencyResolved
	e.closedAt = at
	return nil
}

// Expire closes a pending or assigned emergency. The unit binding, if any, is
// kept for reporting; freeing the unit is the caller's job.
func (e *Emergency) Expire(at float64) error {
	if e.Terminal() {
		return fmt.Errorf("%w: expire emergency %s in state %s", ErrInvalidTransition, e.ID, e.state)
	}
	e.state = EmergencyExpired
	e.closedAt = at
	return nil
}
