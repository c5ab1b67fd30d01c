package dispatch

import (
	"math"

	"github.com/kilianp07/ersim/core/logger"
	"github.com/kilianp07/ersim/core/model"
)

// Assignment is the outcome of a successful dispatch.
type Assignment struct {
	Unit      *model.Unit
	Cost      float64
	ArrivalAt float64
}

// Dispatcher binds at most one idle unit to a newly pending emergency.
type Dispatcher interface {
	Dispatch(e *model.Emergency, units []*model.Unit, now float64) (Assignment, bool)
}

// Redispatcher is implemented by dispatchers that can retry an emergency
// already counted as unassigned without counting it again.
type Redispatcher interface {
	Redispatch(e *model.Emergency, units []*model.Unit, now float64) (Assignment, bool)
}

// GreedyDispatcher picks the eligible idle unit with the smallest travel time.
// Ties keep the unit met first in pool order.
type GreedyDispatcher struct {
	Policy DeadlinePolicy
	log    logger.Logger
}

// NewGreedyDispatcher returns a dispatcher using the given policy. A nil
// logger disables logging.
func NewGreedyDispatcher(policy DeadlinePolicy, log logger.Logger) *GreedyDispatcher {
	if policy == "" {
		policy = PolicyAbsolute
	}
	return &GreedyDispatcher{Policy: policy, log: log}
}

// limit is the largest cost a unit may have to be considered.
func (d *GreedyDispatcher) limit(e *model.Emergency, now float64) float64 {
	if d.Policy == PolicyRemaining {
		return e.Deadline - now
	}
	return e.Deadline
}

// Select returns the best candidate without binding it.
func (d *GreedyDispatcher) Select(e *model.Emergency, units []*model.Unit, now float64) (*model.Unit, float64, bool) {
	limit := d.limit(e, now)
	var best *model.Unit
	bestCost := math.Inf(1)
	for _, u := range units {
		if !u.Idle() || !e.Eligible(u.Category) {
			continue
		}
		cost := u.TravelTime(e.Pos)
		if cost > limit {
			continue
		}
		if cost < bestCost {
			best, bestCost = u, cost
		}
	}
	return best, bestCost, best != nil
}

// Dispatch selects and binds a unit. When nothing qualifies the emergency is
// left pending and false is returned.
func (d *GreedyDispatcher) Dispatch(e *model.Emergency, units []*model.Unit, now float64) (Assignment, bool) {
	return d.dispatch(e, units, now, true)
}

// Redispatch is Dispatch for a backlog retry: a miss is not counted again.
func (d *GreedyDispatcher) Redispatch(e *model.Emergency, units []*model.Unit, now float64) (Assignment, bool) {
	return d.dispatch(e, units, now, false)
}

func (d *GreedyDispatcher) dispatch(e *model.Emergency, units []*model.Unit, now float64, countMiss bool) (Assignment, bool) {
	if e.State() != model.EmergencyPending {
		return Assignment{}, false
	}
	u, _, ok := d.Select(e, units, now)
	if !ok {
		if countMiss {
			unassigned.WithLabelValues(e.Category.String()).Inc()
		}
		if d.log != nil {
			d.log.Debugf("no eligible unit for %s (%s) at t=%.2f", e.ID, e.Category, now)
		}
		return Assignment{}, false
	}
	cost, err := u.Bind(e, now)
	if err != nil {
		if d.log != nil {
			d.log.Errorf("bind %s to %s: %v", u.ID, e.ID, err)
		}
		return Assignment{}, false
	}
	unitsDispatched.WithLabelValues(e.Category.String(), u.Category.String()).Inc()
	dispatchCost.WithLabelValues(u.Category.String()).Observe(cost)
	if d.log != nil {
		d.log.Debugw("unit dispatched", map[string]any{
			"emergency": e.ID,
			"unit":      u.ID,
			"cost":      cost,
			"arrival":   now + cost,
		})
	}
	return Assignment{Unit: u, Cost: cost, ArrivalAt: now + cost}, true
}
