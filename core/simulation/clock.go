package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/ersim/core/dispatch"
	"github.com/kilianp07/ersim/core/events"
	"github.com/kilianp07/ersim/core/logger"
	"github.com/kilianp07/ersim/core/metrics"
	"github.com/kilianp07/ersim/core/model"
	"github.com/kilianp07/ersim/core/monitoring"
	"github.com/kilianp07/ersim/core/topology"
	"github.com/kilianp07/ersim/internal/eventbus"
)

// Clock drives the simulation one arrival record at a time. A Clock is not
// safe for concurrent use.
type Clock struct {
	cfg        Config
	topo       *topology.Topology
	state      *State
	units      map[string]*model.Unit
	dispatcher dispatch.Dispatcher
	log        logger.Logger
	bus        *eventbus.Bus[events.Event]
	sink       metrics.MetricsSink
	runID      string
}

// Option customises a Clock.
type Option func(*Clock)

// WithDispatcher replaces the greedy dispatcher.
func WithDispatcher(d dispatch.Dispatcher) Option { return func(c *Clock) { c.dispatcher = d } }

func WithLogger(l logger.Logger) Option { return func(c *Clock) { c.log = logger.OrNop(l) } }

// WithBus publishes simulation events on b.
func WithBus(b *eventbus.Bus[events.Event]) Option { return func(c *Clock) { c.bus = b } }

// WithSink records ticks, outcomes and dispatches on s.
func WithSink(s metrics.MetricsSink) Option { return func(c *Clock) { c.sink = s } }

func WithRunID(id string) Option { return func(c *Clock) { c.runID = id } }

// NewClock builds the unit pool from the topology and returns a clock ready
// for the first tick.
func NewClock(topo *topology.Topology, cfg Config, opts ...Option) (*Clock, error) {
	if topo == nil {
		return nil, fmt.Errorf("%w: no topology", model.ErrEmptyTopology)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	units, err := topo.BuildUnits(cfg.DefaultSpeed)
	if err != nil {
		return nil, err
	}
	c := &Clock{
		cfg:   cfg,
		topo:  topo,
		state: newState(units),
		units: make(map[string]*model.Unit, len(units)),
		log:   logger.Nop{},
		sink:  metrics.NopSink{},
	}
	for _, u := range units {
		c.units[u.ID] = u
	}
	for _, o := range opts {
		o(c)
	}
	if c.dispatcher == nil {
		policy, _ := dispatch.ParseDeadlinePolicy(cfg.DeadlinePolicy)
		c.dispatcher = dispatch.NewGreedyDispatcher(policy, c.log)
	}
	if c.runID == "" {
		c.runID = uuid.NewString()
	}
	return c, nil
}

func (c *Clock) RunID() string { return c.runID }

// Units returns the unit pool in dispatch order.
func (c *Clock) Units() []*model.Unit { return c.state.Units }

// Emergencies returns every emergency created so far in arrival order.
func (c *Clock) Emergencies() []*model.Emergency { return c.state.All }

// Active returns the emergencies that are still pending or assigned.
func (c *Clock) Active() []*model.Emergency { return c.state.Active }

func (c *Clock) Score() int { return c.state.Score.Total() }

func (c *Clock) State() *State { return c.state }

func checkRecord(rec model.ArrivalRecord) error {
	fields := [...]struct {
		name string
		v    float64
	}{{"t", rec.Time}, {"x", rec.X}, {"y", rec.Y}, {"priority", rec.Priority}}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is %v", model.ErrMalformedRecord, f.name, f.v)
		}
	}
	return nil
}

// Step processes one arrival record as a tick: unit movement and arrivals,
// expiry checks, creation of the new emergency, dispatch, then the score
// snapshot. Malformed or out-of-order records leave the state untouched.
func (c *Clock) Step(rec model.ArrivalRecord) (model.TickRecord, error) {
	if err := checkRecord(rec); err != nil {
		return model.TickRecord{}, err
	}
	if c.state.started && rec.Time < c.state.LastTick {
		return model.TickRecord{}, fmt.Errorf("%w: t=%v after t=%v", model.ErrOutOfOrder, rec.Time, c.state.LastTick)
	}
	now := rec.Time
	closed := c.advance(now, nil)
	closed = c.expire(now, closed)
	c.state.compact()

	e := model.NewEmergency(rec)
	c.state.Active = append(c.state.Active, e)
	c.state.All = append(c.state.All, e)
	if !c.dispatch(e, now, false) {
		c.state.Unassigned++
		c.publish(events.Unassigned{Time: now, EmergencyID: e.ID, Category: e.Category})
	}
	if c.cfg.RescanBacklog {
		for _, p := range c.state.Active {
			if p != e && p.State() == model.EmergencyPending {
				c.dispatch(p, now, true)
			}
		}
	}
	return c.finishTick(now, e.ID, closed, false), nil
}

// Drain runs one last tick past every outstanding deadline and scheduled
// arrival so that no emergency stays pending or assigned. It reports false
// when nothing was left to close.
func (c *Clock) Drain() (model.TickRecord, bool) {
	if len(c.state.Active) == 0 {
		return model.TickRecord{}, false
	}
	horizon := c.state.LastTick
	for _, e := range c.state.Active {
		horizon = math.Max(horizon, e.Deadline)
	}
	for _, u := range c.state.Units {
		if at, ok := u.ArrivalTime(); ok {
			horizon = math.Max(horizon, at)
		}
	}
	now := math.Nextafter(horizon, math.Inf(1))
	closed := c.advance(now, nil)
	closed = c.expire(now, closed)
	c.state.compact()
	return c.finishTick(now, "", closed, true), true
}

// Run feeds records to Step, passing every tick to emit, and drains unless
// configured otherwise. Malformed and out-of-order records are skipped with
// a warning. The context is checked between ticks.
func (c *Clock) Run(ctx context.Context, records []model.ArrivalRecord, emit func(model.TickRecord) error) (Summary, error) {
	c.log.Infof("run %s: %d records, %d units", c.runID, len(records), len(c.state.Units))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return c.Summary(), err
		}
		tick, err := c.Step(rec)
		if err != nil {
			if errors.Is(err, model.ErrMalformedRecord) || errors.Is(err, model.ErrOutOfOrder) {
				c.state.Skipped++
				c.log.Warnf("skip record %d (%s): %v", i, rec.ID, err)
				continue
			}
			return c.Summary(), err
		}
		if emit != nil {
			if err := emit(tick); err != nil {
				return c.Summary(), fmt.Errorf("emit tick %d: %w", c.state.Ticks, err)
			}
		}
	}
	if !c.cfg.SkipDrain {
		if tick, ok := c.Drain(); ok && emit != nil {
			if err := emit(tick); err != nil {
				return c.Summary(), fmt.Errorf("emit drain tick: %w", err)
			}
		}
	}
	s := c.Summary()
	c.log.Infof("run %s done: score=%d resolved=%d expired=%d", c.runID, s.Score, s.Resolved, s.Expired)
	return s, nil
}

// advance moves en-route units and completes the trips that are over.
// Positions may be computed concurrently since each unit only touches
// itself; state transitions are applied afterwards in pool order.
func (c *Clock) advance(now float64, closed []string) []string {
	units := c.state.Units
	arrived := make([]bool, len(units))
	if c.cfg.ParallelUnits > 1 {
		var g errgroup.Group
		g.SetLimit(c.cfg.ParallelUnits)
		for i, u := range units {
			i, u := i, u
			g.Go(func() error {
				arrived[i] = u.Advance(now)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, u := range units {
			arrived[i] = u.Advance(now)
		}
	}
	for i, u := range units {
		if !arrived[i] {
			continue
		}
		e, at, err := u.Arrive()
		if err != nil {
			c.fail("arrive", err)
			continue
		}
		if at > e.Deadline {
			// Late trips still end on the scene but count as an expiry.
			if c.closeExpired(e, u.ID, now) {
				closed = append(closed, e.ID)
			}
			continue
		}
		if err := e.Resolve(at); err != nil {
			c.fail("resolve", err)
			continue
		}
		pts := c.state.Score.Resolved(e, at)
		c.state.responseTimes = append(c.state.responseTimes, at-e.CreatedAt)
		c.state.slackMinutes = append(c.state.slackMinutes, (e.Deadline-at)/60)
		c.state.counts(e.Category).Resolved++
		closed = append(closed, e.ID)
		c.publish(events.Resolved{Time: now, EmergencyID: e.ID, UnitID: u.ID, ArrivalAt: at, Points: pts})
		c.recordOutcome(e, pts)
	}
	return closed
}

// expire closes every active emergency whose deadline lies before now. A
// unit still travelling to it stops where it stands.
func (c *Clock) expire(now float64, closed []string) []string {
	for _, e := range c.state.Active {
		if !e.Overdue(now) {
			continue
		}
		unitID := ""
		if e.State() == model.EmergencyAssigned {
			unitID = e.UnitID()
			if u, ok := c.units[unitID]; ok && u.Target() == e {
				u.Abort()
			}
		}
		if c.closeExpired(e, unitID, now) {
			closed = append(closed, e.ID)
		}
	}
	return closed
}

func (c *Clock) closeExpired(e *model.Emergency, unitID string, now float64) bool {
	if err := e.Expire(now); err != nil {
		c.fail("expire", err)
		return false
	}
	pts := c.state.Score.Expired(e)
	c.state.counts(e.Category).Expired++
	c.publish(events.Expired{Time: now, EmergencyID: e.ID, UnitID: unitID, Penalty: pts})
	c.recordOutcome(e, pts)
	return true
}

// dispatch binds a unit to e. retry marks a backlog rescan of an emergency
// whose first attempt already failed.
func (c *Clock) dispatch(e *model.Emergency, now float64, retry bool) bool {
	var (
		a  dispatch.Assignment
		ok bool
	)
	if rd, can := c.dispatcher.(dispatch.Redispatcher); can && retry {
		a, ok = rd.Redispatch(e, c.state.Units, now)
	} else {
		a, ok = c.dispatcher.Dispatch(e, c.state.Units, now)
	}
	if !ok {
		return false
	}
	c.publish(events.Dispatched{Time: now, EmergencyID: e.ID, UnitID: a.Unit.ID, Cost: a.Cost, ArrivalAt: a.ArrivalAt})
	if rec, ok := c.sink.(metrics.DispatchRecorder); ok {
		err := rec.RecordDispatch(metrics.DispatchEvent{
			RunID:             c.runID,
			EmergencyID:       e.ID,
			EmergencyCategory: e.Category,
			UnitID:            a.Unit.ID,
			UnitCategory:      a.Unit.Category,
			Time:              now,
			Cost:              a.Cost,
		})
		if err != nil {
			c.sinkFailed("record dispatch", err)
		}
	}
	return true
}

func (c *Clock) finishTick(now float64, emergencyID string, closed []string, final bool) model.TickRecord {
	positions := make([]model.UnitPosition, len(c.state.Units))
	for i, u := range c.state.Units {
		positions[i] = u.Snapshot()
	}
	if closed == nil {
		closed = []string{}
	}
	tick := model.TickRecord{
		Time:        now,
		EmergencyID: emergencyID,
		Units:       positions,
		Score:       c.state.Score.Total(),
		Closed:      closed,
		Final:       final,
	}
	c.state.LastTick = now
	c.state.Ticks++
	c.state.started = true

	err := c.sink.RecordTick(metrics.TickEvent{
		RunID:   c.runID,
		Tick:    tick,
		EnRoute: c.state.enRoute(),
		Active:  len(c.state.Active),
	})
	if err != nil {
		c.sinkFailed("record tick", err)
	}
	c.publish(events.TickCompleted{Tick: tick})
	return tick
}

func (c *Clock) recordOutcome(e *model.Emergency, pts int) {
	rec, ok := c.sink.(metrics.OutcomeRecorder)
	if !ok {
		return
	}
	err := rec.RecordOutcome(metrics.Outcome{
		RunID:       c.runID,
		EmergencyID: e.ID,
		Category:    e.Category,
		State:       e.State(),
		UnitID:      e.UnitID(),
		CreatedAt:   e.CreatedAt,
		Deadline:    e.Deadline,
		ClosedAt:    e.ClosedAt(),
		Points:      pts,
	})
	if err != nil {
		c.sinkFailed("record outcome", err)
	}
}

// sinkFailed reports an output error. Outputs never stop the run.
func (c *Clock) sinkFailed(op string, err error) {
	c.log.Warnf("%s: %v", op, err)
	monitoring.CaptureException(err, map[string]string{"run_id": c.runID, "op": op})
}

// fail reports a state machine error; the affected transition is skipped.
func (c *Clock) fail(op string, err error) {
	c.log.Errorf("%s: %v", op, err)
	monitoring.CaptureException(err, map[string]string{"run_id": c.runID, "op": op})
}

func (c *Clock) publish(ev events.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}
