package simulation

import (
	"github.com/kilianp07/ersim/core/model"
	"github.com/kilianp07/ersim/core/score"
)

// State is the aggregate owned by one run. Only the clock mutates it.
type State struct {
	Units []*model.Unit
	// Active holds the emergencies that are not terminal yet, in arrival order.
	Active []*model.Emergency
	// All holds every emergency created during the run, in arrival order.
	All   []*model.Emergency
	Score score.Tracker

	LastTick float64
	Ticks    int
	started  bool

	Unassigned int
	Skipped    int

	responseTimes []float64
	slackMinutes  []float64
	byCategory    map[model.Category]*CategoryCounts
}

func newState(units []*model.Unit) *State {
	return &State{Units: units, byCategory: make(map[model.Category]*CategoryCounts)}
}

// compact drops terminal emergencies from the active set after a scan.
func (s *State) compact() {
	kept := s.Active[:0]
	for _, e := range s.Active {
		if !e.Terminal() {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(s.Active); i++ {
		s.Active[i] = nil
	}
	s.Active = kept
}

func (s *State) enRoute() int {
	n := 0
	for _, u := range s.Units {
		if !u.Idle() {
			n++
		}
	}
	return n
}

func (s *State) counts(c model.Category) *CategoryCounts {
	cc, ok := s.byCategory[c]
	if !ok {
		cc = &CategoryCounts{}
		s.byCategory[c] = cc
	}
	return cc
}
