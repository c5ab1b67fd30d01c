package metrics

import (
	coremetrics "github.com/kilianp07/ersim/core/metrics"
	"github.com/kilianp07/ersim/core/model"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink exposes the simulation state as Prometheus metrics.
type PromSink struct {
	score    prometheus.Gauge
	enRoute  prometheus.Gauge
	active   prometheus.Gauge
	ticks    prometheus.Counter
	closed   *prometheus.CounterVec
	response *prometheus.HistogramVec
	cost     *prometheus.HistogramVec
}

// NewPromSink registers the simulation metrics on the default registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.score, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ersim_score",
		Help: "Cumulative score of the current run",
	})); err != nil {
		return nil, err
	}
	if s.enRoute, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ersim_units_en_route",
		Help: "Units travelling at the end of the last tick",
	})); err != nil {
		return nil, err
	}
	if s.active, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ersim_active_emergencies",
		Help: "Pending or assigned emergencies at the end of the last tick",
	})); err != nil {
		return nil, err
	}
	if s.ticks, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ersim_ticks_total",
		Help: "Processed ticks",
	})); err != nil {
		return nil, err
	}
	if s.closed, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ersim_emergencies_closed_total",
		Help: "Emergencies reaching a terminal state",
	}, []string{"category", "outcome"})); err != nil {
		return nil, err
	}
	if s.response, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ersim_response_time",
		Help:    "Simulated time from creation to resolution",
		Buckets: []float64{5, 10, 20, 40, 60, 120, 240, 480},
	}, []string{"category"})); err != nil {
		return nil, err
	}
	if s.cost, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ersim_dispatch_cost",
		Help:    "Travel time of dispatched units",
		Buckets: []float64{5, 10, 20, 40, 60, 120, 240},
	}, []string{"unit_category"})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordTick updates the gauges from the tick snapshot.
func (s *PromSink) RecordTick(ev coremetrics.TickEvent) error {
	s.score.Set(float64(ev.Tick.Score))
	s.enRoute.Set(float64(ev.EnRoute))
	s.active.Set(float64(ev.Active))
	s.ticks.Inc()
	return nil
}

// RecordOutcome counts the closure and observes resolution times.
func (s *PromSink) RecordOutcome(o coremetrics.Outcome) error {
	s.closed.WithLabelValues(o.Category.String(), o.State.String()).Inc()
	if o.State == model.EmergencyResolved {
		s.response.WithLabelValues(o.Category.String()).Observe(o.ResponseTime())
	}
	return nil
}

func (s *PromSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	s.cost.WithLabelValues(ev.UnitCategory.String()).Observe(ev.Cost)
	return nil
}
