// Package ticklog persists the tick stream of simulation runs so that past
// runs can be queried by run, simulated time window or emergency.
package ticklog

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kilianp07/ersim/core/model"
)

// LogRecord is one persisted tick.
type LogRecord struct {
	RunID     string           `json:"run_id"`
	Timestamp time.Time        `json:"timestamp"`
	Tick      model.TickRecord `json:"tick"`
}

// LogQuery filters records. Zero values match everything.
type LogQuery struct {
	RunID string
	// From and To bound the simulated tick time, inclusive.
	From *float64
	To   *float64
	// EmergencyID matches ticks where the emergency arrived or closed.
	EmergencyID string
}

// LogStore persists tick records.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

func (q LogQuery) matches(r LogRecord) bool {
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.From != nil && r.Tick.Time < *q.From {
		return false
	}
	if q.To != nil && r.Tick.Time > *q.To {
		return false
	}
	if q.EmergencyID != "" && r.Tick.EmergencyID != q.EmergencyID && !slices.Contains(r.Tick.Closed, q.EmergencyID) {
		return false
	}
	return true
}

// Config selects and configures a backend.
type Config struct {
	Enabled bool   `json:"enabled"`
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// MaxSizeMB > 0 turns on rotation for the jsonl backend.
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		if c.Backend == "sqlite" {
			c.Path = "ticks.db"
		} else {
			c.Path = "ticks.jsonl"
		}
	}
}

func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Backend {
	case "jsonl", "sqlite":
	default:
		return fmt.Errorf("tick_log.backend: unknown backend %q", c.Backend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("tick_log: rotation settings must be >= 0")
	}
	return nil
}

// Open creates the store described by cfg.
func Open(cfg Config) (LogStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "", "jsonl":
		if cfg.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return NewJSONLStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown tick log backend %q", cfg.Backend)
	}
}
