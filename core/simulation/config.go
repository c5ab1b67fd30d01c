package simulation

import (
	"fmt"

	"github.com/kilianp07/ersim/core/dispatch"
)

// Config holds the run settings of the clock.
type Config struct {
	// DefaultSpeed applies to stations without their own speed, in distance
	// units per time unit.
	DefaultSpeed   float64 `json:"default_speed"`
	DeadlinePolicy string  `json:"deadline_policy"`
	// RescanBacklog offers pending emergencies to the dispatcher again on
	// every tick after the new arrival has been handled.
	RescanBacklog bool `json:"rescan_backlog"`
	// ParallelUnits bounds the goroutines used for position updates; 0 or 1
	// keeps them sequential.
	ParallelUnits int  `json:"parallel_units"`
	SkipDrain     bool `json:"skip_drain"`
}

func (c *Config) SetDefaults() {
	if c.DefaultSpeed == 0 {
		c.DefaultSpeed = 1.0
	}
	if c.DeadlinePolicy == "" {
		c.DeadlinePolicy = string(dispatch.PolicyAbsolute)
	}
}

func (c Config) Validate() error {
	if c.DefaultSpeed <= 0 {
		return fmt.Errorf("simulation.default_speed must be positive")
	}
	if _, err := dispatch.ParseDeadlinePolicy(c.DeadlinePolicy); err != nil {
		return fmt.Errorf("simulation.deadline_policy: %w", err)
	}
	if c.ParallelUnits < 0 {
		return fmt.Errorf("simulation.parallel_units must be >= 0")
	}
	return nil
}
