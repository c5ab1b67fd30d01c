package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/ersim/core/model"
	"github.com/kilianp07/ersim/core/simulation"
	"github.com/kilianp07/ersim/core/topology"
)

type RecordDef struct {
	T        float64 `yaml:"t"`
	ID       string  `yaml:"id"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Type     string  `yaml:"etype"`
	Priority float64 `yaml:"priority_s"`
}

func (r RecordDef) ToModel() (model.ArrivalRecord, error) {
	cat, err := model.ParseCategory(r.Type)
	if err != nil {
		return model.ArrivalRecord{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	return model.ArrivalRecord{Time: r.T, ID: r.ID, X: r.X, Y: r.Y, Category: cat, Priority: r.Priority}, nil
}

type SimulationDef struct {
	DefaultSpeed   float64 `yaml:"default_speed"`
	DeadlinePolicy string  `yaml:"deadline_policy"`
	RescanBacklog  bool    `yaml:"rescan_backlog"`
	SkipDrain      bool    `yaml:"skip_drain"`
}

func (s SimulationDef) ToConfig() simulation.Config {
	cfg := simulation.Config{
		DefaultSpeed:   s.DefaultSpeed,
		DeadlinePolicy: s.DeadlinePolicy,
		RescanBacklog:  s.RescanBacklog,
		SkipDrain:      s.SkipDrain,
	}
	cfg.SetDefaults()
	return cfg
}

type Expected struct {
	Score      int               `yaml:"score"`
	Ticks      int               `yaml:"ticks"`
	Resolved   int               `yaml:"resolved"`
	Expired    int               `yaml:"expired"`
	Unassigned int               `yaml:"unassigned"`
	Skipped    int               `yaml:"skipped"`
	States     map[string]string `yaml:"states,omitempty"`
	// Units maps a unit id to its final [x, y].
	Units map[string][2]float64 `yaml:"units,omitempty"`
}

type Scenario struct {
	Name        string                   `yaml:"name"`
	Description string                   `yaml:"description,omitempty"`
	Simulation  SimulationDef            `yaml:"simulation"`
	Stations    []topology.StationConfig `yaml:"stations"`
	Records     []RecordDef              `yaml:"records"`
	Expected    Expected                 `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: name is required", path)
	}
	return &sc, nil
}
