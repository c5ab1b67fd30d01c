// Package topology holds the static registry of stations and derives the unit
// pool in dispatch order.
package topology

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/kilianp07/ersim/core/model"
)

// StationConfig is the configuration form of a station.
type StationConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Category string  `json:"category" yaml:"category"`
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Units    int     `json:"units" yaml:"units"`
	Speed    float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
}

// Topology is an immutable, ordered set of stations.
type Topology struct {
	stations []model.Station
}

// New validates the station list. Registration order is kept and later
// defines the dispatch iteration order.
func New(cfgs []StationConfig) (*Topology, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("%w: no stations configured", model.ErrEmptyTopology)
	}
	seen := make(map[string]struct{}, len(cfgs))
	stations := make([]model.Station, 0, len(cfgs))
	for i, c := range cfgs {
		if c.ID == "" {
			return nil, fmt.Errorf("station %d: id is required", i)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("station %s: duplicate id", c.ID)
		}
		seen[c.ID] = struct{}{}
		cat, err := model.ParseCategory(c.Category)
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", c.ID, err)
		}
		if c.Units < 0 {
			return nil, fmt.Errorf("station %s: negative unit count", c.ID)
		}
		if c.Speed < 0 {
			return nil, fmt.Errorf("station %s: negative speed", c.ID)
		}
		stations = append(stations, model.Station{
			ID:       c.ID,
			Category: cat,
			Home:     r2.Vec{X: c.X, Y: c.Y},
			Units:    c.Units,
			Speed:    c.Speed,
		})
	}
	return &Topology{stations: stations}, nil
}

// Stations returns a copy of the registered stations.
func (t *Topology) Stations() []model.Station {
	return append([]model.Station(nil), t.stations...)
}

// UnitCount is the total number of units across all stations.
func (t *Topology) UnitCount() int {
	n := 0
	for _, s := range t.stations {
		n += s.Units
	}
	return n
}

// BuildUnits creates the unit pool: stations in registration order, units in
// per-station order. Unit ids are "<station>-<n>" with n counting across the
// whole fleet (F1-0, F1-1, F2-2, ...).
func (t *Topology) BuildUnits(defaultSpeed float64) ([]*model.Unit, error) {
	if defaultSpeed <= 0 {
		return nil, fmt.Errorf("default speed must be positive, got %v", defaultSpeed)
	}
	if t.UnitCount() == 0 {
		return nil, fmt.Errorf("%w: stations own no units", model.ErrEmptyTopology)
	}
	units := make([]*model.Unit, 0, t.UnitCount())
	seq := 0
	for _, s := range t.stations {
		speed := defaultSpeed
		if s.Speed > 0 {
			speed = s.Speed
		}
		for i := 0; i < s.Units; i++ {
			id := fmt.Sprintf("%s-%d", s.ID, seq)
			units = append(units, model.NewUnit(id, s.ID, s.Category, s.Home, speed))
			seq++
		}
	}
	return units, nil
}

// DefaultStations is the demo city: two fire, two police and two medical
// stations on a 200x200 grid, each owning two units.
func DefaultStations() []StationConfig {
	return []StationConfig{
		{ID: "F1", Category: "fire", X: 20, Y: 20, Units: 2},
		{ID: "F2", Category: "fire", X: 180, Y: 20, Units: 2},
		{ID: "P1", Category: "police", X: 50, Y: 100, Units: 2},
		{ID: "P2", Category: "police", X: 150, Y: 120, Units: 2},
		{ID: "H1", Category: "medical", X: 100, Y: 30, Units: 2},
		{ID: "H2", Category: "medical", X: 100, Y: 170, Units: 2},
	}
}
