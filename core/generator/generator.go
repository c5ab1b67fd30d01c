// Package generator produces synthetic emergency arrival streams.
package generator

import (
	"fmt"
	"math/rand"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/ersim/core/model"
)

// Config controls the shape of the generated stream.
type Config struct {
	Seed int64 `json:"seed"`
	// MeanInterArrival is the mean of the exponential gap between records.
	MeanInterArrival float64 `json:"mean_inter_arrival"`
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	// Weights gives the relative frequency of each category name.
	Weights     map[string]float64 `json:"weights"`
	PriorityMin float64            `json:"priority_min"`
	PriorityMax float64            `json:"priority_max"`
	JitterPct   float64            `json:"jitter_pct"`
	IDPrefix    string             `json:"id_prefix"`
}

func (c *Config) SetDefaults() {
	if c.MeanInterArrival == 0 {
		c.MeanInterArrival = 10
	}
	if c.Width == 0 {
		c.Width = 200
	}
	if c.Height == 0 {
		c.Height = 200
	}
	if len(c.Weights) == 0 {
		c.Weights = map[string]float64{"fire": 0.3, "police": 0.3, "medical": 0.3, "other": 0.1}
	}
	if c.PriorityMin == 0 && c.PriorityMax == 0 {
		c.PriorityMin, c.PriorityMax = 60, 600
	}
	if c.IDPrefix == "" {
		c.IDPrefix = "E"
	}
}

func (c Config) Validate() error {
	if c.MeanInterArrival <= 0 {
		return fmt.Errorf("mean_inter_arrival must be positive")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("width and height must be positive")
	}
	if c.PriorityMax < c.PriorityMin || c.PriorityMin < 0 {
		return fmt.Errorf("invalid priority range [%v, %v]", c.PriorityMin, c.PriorityMax)
	}
	if c.JitterPct < 0 || c.JitterPct >= 1 {
		return fmt.Errorf("jitter_pct must be in [0, 1)")
	}
	weights, err := c.categoryWeights()
	if err != nil {
		return err
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("weights must sum to a positive value")
	}
	return nil
}

// categoryWeights resolves the weight names to categories. Names differing
// only in case or surrounding space add up.
func (c Config) categoryWeights() (map[model.Category]float64, error) {
	out := make(map[model.Category]float64, len(c.Weights))
	for name, w := range c.Weights {
		cat, err := model.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("weights: %w", err)
		}
		if w < 0 {
			return nil, fmt.Errorf("weights: negative weight for %s", name)
		}
		out[cat] += w
	}
	return out, nil
}

var recordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ersim_generator_records_total",
	Help: "Synthetic arrival records generated",
}, []string{"category"})

func init() {
	prometheus.MustRegister(recordsTotal)
}

type weighted struct {
	cat model.Category
	cum float64
}

// Generator emits time-ascending arrival records. Two generators built from
// the same config produce the same stream.
type Generator struct {
	cfg   Config
	rand  *rand.Rand
	table []weighted
	now   float64
	seq   int
}

// New validates cfg and returns a generator positioned at t=0.
func New(cfg Config) (*Generator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	weights, err := cfg.categoryWeights()
	if err != nil {
		return nil, err
	}
	g := &Generator{cfg: cfg, rand: rand.New(rand.NewSource(cfg.Seed))}
	// Map iteration is random; build the table in category order.
	cum := 0.0
	for _, c := range []model.Category{model.CategoryFire, model.CategoryPolice, model.CategoryMedical, model.CategoryOther} {
		if w := weights[c]; w > 0 {
			cum += w
			g.table = append(g.table, weighted{cat: c, cum: cum})
		}
	}
	return g, nil
}

// Next returns the following record of the stream.
func (g *Generator) Next() model.ArrivalRecord {
	g.now += g.rand.ExpFloat64() * g.cfg.MeanInterArrival
	rec := model.ArrivalRecord{
		Time:     g.now,
		ID:       fmt.Sprintf("%s%d", g.cfg.IDPrefix, g.seq),
		X:        g.rand.Float64() * g.cfg.Width,
		Y:        g.rand.Float64() * g.cfg.Height,
		Category: g.randomCategory(),
		Priority: g.randomFloat(g.cfg.PriorityMin, g.cfg.PriorityMax),
	}
	g.seq++
	recordsTotal.WithLabelValues(rec.Category.String()).Inc()
	return rec
}

// Generate returns the next n records.
func (g *Generator) Generate(n int) []model.ArrivalRecord {
	out := make([]model.ArrivalRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Next())
	}
	return out
}

func (g *Generator) randomCategory() model.Category {
	total := g.table[len(g.table)-1].cum
	r := g.rand.Float64() * total
	for _, w := range g.table {
		if r < w.cum {
			return w.cat
		}
	}
	return g.table[len(g.table)-1].cat
}

func (g *Generator) randomFloat(min, max float64) float64 {
	if max <= min {
		return min
	}
	f := min + g.rand.Float64()*(max-min)
	j := 1 + (g.rand.Float64()*2-1)*g.cfg.JitterPct
	f *= j
	if f < min {
		f = min
	}
	if f > max {
		f = max
	}
	return f
}
