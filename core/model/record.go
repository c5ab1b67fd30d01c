package model

import "gonum.org/v1/gonum/spatial/r2"

// ArrivalRecord is one input row: an emergency appearing at Time.
type ArrivalRecord struct {
	Time     float64  `json:"t"`
	ID       string   `json:"id"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Category Category `json:"category"`
	Priority float64  `json:"priority"`
}

// Pos returns the record location.
func (r ArrivalRecord) Pos() r2.Vec { return r2.Vec{X: r.X, Y: r.Y} }

// UnitPosition is the location of one unit at the end of a tick.
type UnitPosition struct {
	UnitID string  `json:"unit_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	State  string  `json:"state"`
}

// TickRecord is emitted once per processed tick.
type TickRecord struct {
	Time float64 `json:"t"`
	// EmergencyID is the arrival that triggered the tick, empty for the drain tick.
	EmergencyID string         `json:"emergency_id,omitempty"`
	Units       []UnitPosition `json:"units"`
	Score       int            `json:"score"`
	// Closed lists emergencies that became resolved or expired during the tick.
	Closed []string `json:"closed"`
	Final  bool     `json:"final,omitempty"`
}
