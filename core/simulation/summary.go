package simulation

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CategoryCounts are the outcomes for one emergency category.
type CategoryCounts struct {
	Resolved int `json:"resolved"`
	Expired  int `json:"expired"`
}

// Summary describes a run so far.
type Summary struct {
	RunID       string `json:"run_id"`
	Ticks       int    `json:"ticks"`
	Emergencies int    `json:"emergencies"`
	Resolved    int    `json:"resolved"`
	Expired     int    `json:"expired"`
	// Unassigned counts arrivals for which no unit qualified at creation.
	Unassigned int `json:"unassigned"`
	Skipped    int `json:"skipped"`
	Open       int `json:"open"`
	Score      int `json:"score"`

	MeanResponse     float64                   `json:"mean_response"`
	StdDevResponse   float64                   `json:"stddev_response"`
	MeanSlackMinutes float64                   `json:"mean_slack_minutes"`
	ByCategory       map[string]CategoryCounts `json:"by_category"`
}

// Categories returns the category names present in ByCategory, sorted.
func (s Summary) Categories() []string {
	names := make([]string, 0, len(s.ByCategory))
	for n := range s.ByCategory {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Summary computes run statistics from the current state.
func (c *Clock) Summary() Summary {
	st := c.state
	s := Summary{
		RunID:       c.runID,
		Ticks:       st.Ticks,
		Emergencies: len(st.All),
		Resolved:    st.Score.ResolvedCount(),
		Expired:     st.Score.ExpiredCount(),
		Unassigned:  st.Unassigned,
		Skipped:     st.Skipped,
		Open:        len(st.Active),
		Score:       st.Score.Total(),
		ByCategory:  make(map[string]CategoryCounts, len(st.byCategory)),
	}
	if n := len(st.responseTimes); n > 0 {
		s.MeanResponse = stat.Mean(st.responseTimes, nil)
		if n > 1 {
			s.StdDevResponse = stat.StdDev(st.responseTimes, nil)
		}
		s.MeanSlackMinutes = stat.Mean(st.slackMinutes, nil)
	}
	for cat, cc := range st.byCategory {
		s.ByCategory[cat.String()] = *cc
	}
	return s
}
