package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ersim/config"
	"github.com/kilianp07/ersim/core/events"
	coremetrics "github.com/kilianp07/ersim/core/metrics"
	"github.com/kilianp07/ersim/core/model"
	coremon "github.com/kilianp07/ersim/core/monitoring"
	"github.com/kilianp07/ersim/core/simulation"
	"github.com/kilianp07/ersim/core/ticklog"
	"github.com/kilianp07/ersim/core/topology"
	"github.com/kilianp07/ersim/infra/logger"
	"github.com/kilianp07/ersim/infra/metrics"
	"github.com/kilianp07/ersim/infra/monitoring"
	_ "github.com/kilianp07/ersim/infra/mqtt"
	"github.com/kilianp07/ersim/internal/eventbus"
)

// Service wires the topology, sinks and tick log around the simulation clock.
type Service struct {
	cfg      *config.Config
	topo     *topology.Topology
	sink     coremetrics.MetricsSink
	log      logger.Logger
	promAddr string
}

// Result is the outcome of one run.
type Result struct {
	Summary simulation.Summary
	UnitIDs []string
	Ticks   []model.TickRecord
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	logg := logger.New("service")
	topo, err := topology.New(cfg.Stations)
	if err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}
	if topo.UnitCount() == 0 {
		return nil, fmt.Errorf("topology: %w: stations own no units", model.ErrEmptyTopology)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	configured, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	sinks := []coremetrics.MetricsSink{configured}
	if cfg.TickLog.Enabled {
		store, err := ticklog.Open(cfg.TickLog)
		if err != nil {
			closeSink(configured, logg)
			return nil, fmt.Errorf("tick log: %w", err)
		}
		logg.Infof("tick log %s at %s", cfg.TickLog.Backend, cfg.TickLog.Path)
		sinks = append(sinks, ticklog.NewSink(store))
	}
	var sink coremetrics.MetricsSink = configured
	if len(sinks) > 1 {
		sink = coremetrics.NewMultiSink(sinks...)
	}
	return &Service{
		cfg:      cfg,
		topo:     topo,
		sink:     sink,
		log:      logg,
		promAddr: cfg.Metrics.PrometheusAddr,
	}, nil
}

// Topology returns the validated station layout.
func (s *Service) Topology() *topology.Topology { return s.topo }

// Run simulates the records and returns the tick stream and summary. The
// metrics endpoint, when configured, is served for the duration of the run.
func (s *Service) Run(ctx context.Context, records []model.ArrivalRecord) (Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(runCtx, s.promAddr, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	bus := eventbus.New[events.Event]()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logEvents(bus.SubscribeBuffered(256), logger.New("events"))
	}()

	runID := uuid.NewString()
	clock, err := simulation.NewClock(s.topo, s.cfg.Simulation,
		simulation.WithRunID(runID),
		simulation.WithLogger(logger.NewZerologLogger("clock").With("run_id", runID)),
		simulation.WithSink(s.sink),
		simulation.WithBus(bus),
	)
	if err != nil {
		bus.Close()
		wg.Wait()
		return Result{}, err
	}
	res := Result{UnitIDs: make([]string, 0, len(clock.Units()))}
	for _, u := range clock.Units() {
		res.UnitIDs = append(res.UnitIDs, u.ID)
	}
	res.Summary, err = clock.Run(runCtx, records, func(t model.TickRecord) error {
		res.Ticks = append(res.Ticks, t)
		return nil
	})
	bus.Close()
	wg.Wait()
	if dropped := bus.Dropped(); dropped > 0 {
		s.log.Warnf("event log dropped %d events", dropped)
	}
	if err != nil {
		coremon.CaptureException(err, map[string]string{"run_id": runID})
	}
	return res, err
}

// Close releases the sinks and the tick log and flushes error reports.
func (s *Service) Close() error {
	defer coremon.Flush(2 * time.Second)
	if c, ok := s.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func closeSink(sink coremetrics.MetricsSink, log logger.Logger) {
	if c, ok := sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Errorf("close sink: %v", err)
		}
	}
}

// logEvents writes every bus event at debug level until the bus closes.
func logEvents(sub <-chan events.Event, log logger.Logger) {
	for ev := range sub {
		switch e := ev.(type) {
		case events.Dispatched:
			log.Debugw("dispatched", map[string]any{"t": e.Time, "emergency": e.EmergencyID, "unit": e.UnitID, "cost": e.Cost})
		case events.Unassigned:
			log.Debugw("unassigned", map[string]any{"t": e.Time, "emergency": e.EmergencyID, "category": e.Category.String()})
		case events.Resolved:
			log.Debugw("resolved", map[string]any{"t": e.Time, "emergency": e.EmergencyID, "unit": e.UnitID, "points": e.Points})
		case events.Expired:
			log.Debugw("expired", map[string]any{"t": e.Time, "emergency": e.EmergencyID, "unit": e.UnitID})
		case events.TickCompleted:
			log.Debugw("tick", map[string]any{"t": e.Tick.Time, "score": e.Tick.Score, "closed": len(e.Tick.Closed)})
		}
	}
}
