package model

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// UnitState is the movement state of a unit.
type UnitState uint8

const (
	UnitIdle UnitState = iota
	UnitEnRoute
)

func (s UnitState) String() string {
	if s == UnitEnRoute {
		return "en_route"
	}
	return "idle"
}

// Unit is one mobile responder. A unit is en route exactly when it holds a
// target, and the arrival time is only meaningful in that state.
type Unit struct {
	ID        string
	StationID string
	Category  Category
	Home      r2.Vec
	Pos       r2.Vec
	// Speed in distance units per time unit.
	Speed float64

	state    UnitState
	target   *Emergency
	origin   r2.Vec
	departed float64
	arrival  float64
}

// NewUnit creates an idle unit parked at home.
func NewUnit(id, stationID string, c Category, home r2.Vec, speed float64) *Unit {
	return &Unit{ID: id, StationID: stationID, Category: c, Home: home, Pos: home, Speed: speed}
}

func (u *Unit) State() UnitState { return u.state }

func (u *Unit) Idle() bool { return u.state == UnitIdle }

// Target returns the bound emergency or nil when idle.
func (u *Unit) Target() *Emergency { return u.target }

// ArrivalTime returns the scheduled arrival and whether the unit is en route.
func (u *Unit) ArrivalTime() (float64, bool) {
	if u.state != UnitEnRoute {
		return 0, false
	}
	return u.arrival, true
}

// TravelTime is the straight-line time from the current position to p.
func (u *Unit) TravelTime(p r2.Vec) float64 {
	return r2.Norm(r2.Sub(p, u.Pos)) / u.Speed
}

// Bind sends an idle unit toward a pending emergency at time now and returns
// the travel cost. Both sides transition together or not at all.
func (u *Unit) Bind(e *Emergency, now float64) (float64, error) {
	if u.state != UnitIdle {
		return 0, fmt.Errorf("%w: bind unit %s while %s", ErrInvalidTransition, u.ID, u.state)
	}
	cost := u.TravelTime(e.Pos)
	if err := e.assign(u.ID); err != nil {
		return 0, err
	}
	u.state = UnitEnRoute
	u.target = e
	u.origin = u.Pos
	u.departed = now
	u.arrival = now + cost
	return cost, nil
}

// Advance moves an en-route unit to its position at now and reports whether
// it has reached its target. On arrival the position is the target exactly;
// otherwise it is interpolated between the departure point and the target.
// Advance only touches the unit itself.
func (u *Unit) Advance(now float64) bool {
	if u.state != UnitEnRoute {
		return false
	}
	if u.arrival <= now {
		u.Pos = u.target.Pos
		return true
	}
	frac := (now - u.departed) / (u.arrival - u.departed)
	if frac < 0 {
		frac = 0
	}
	u.Pos = r2.Add(u.origin, r2.Scale(frac, r2.Sub(u.target.Pos, u.origin)))
	return false
}

// Arrive completes the trip: the unit stands on the target and becomes idle.
// It returns the emergency it reached and the scheduled arrival time.
func (u *Unit) Arrive() (*Emergency, float64, error) {
	if u.state != UnitEnRoute {
		return nil, 0, fmt.Errorf("%w: arrive unit %s while %s", ErrInvalidTransition, u.ID, u.state)
	}
	e, at := u.target, u.arrival
	u.Pos = e.Pos
	u.release()
	return e, at, nil
}

// Abort cancels the trip and leaves the unit where it currently stands.
func (u *Unit) Abort() *Emergency {
	e := u.target
	u.release()
	return e
}

func (u *Unit) release() {
	u.state = UnitIdle
	u.target = nil
	u.arrival = 0
	u.departed = 0
}

// Snapshot returns the reporting view of the unit.
func (u *Unit) Snapshot() UnitPosition {
	return UnitPosition{UnitID: u.ID, X: u.Pos.X, Y: u.Pos.Y, State: u.state.String()}
}
