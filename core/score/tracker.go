// Package score accumulates the simulation score.
package score

import (
	"math"

	"github.com/kilianp07/ersim/core/model"
)

// ExpiryPenalty is charged once for every expired emergency.
const ExpiryPenalty = -2

// ResolutionPoints awards one point per full minute of slack left at arrival.
// Late or exact arrivals earn nothing; the result is never negative.
func ResolutionPoints(deadline, arrival float64) int {
	p := math.Floor((deadline - arrival) / 60)
	if p <= 0 || math.IsNaN(p) {
		return 0
	}
	return int(p)
}

// Tracker is the running total. It only changes through Resolved and Expired.
type Tracker struct {
	total    int
	resolved int
	expired  int
}

// Resolved credits a resolution of e at the arrival time and returns the delta.
func (t *Tracker) Resolved(e *model.Emergency, arrival float64) int {
	p := ResolutionPoints(e.Deadline, arrival)
	t.total += p
	t.resolved++
	return p
}

// Expired charges the expiry penalty and returns the delta.
func (t *Tracker) Expired(*model.Emergency) int {
	t.total += ExpiryPenalty
	t.expired++
	return ExpiryPenalty
}

func (t *Tracker) Total() int { return t.total }

func (t *Tracker) ResolvedCount() int { return t.resolved }

func (t *Tracker) ExpiredCount() int { return t.expired }
