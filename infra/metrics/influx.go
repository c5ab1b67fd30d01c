package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/ersim/core/metrics"
	"github.com/kilianp07/ersim/infra/logger"
)

// InfluxSink writes ticks, outcomes and dispatches to InfluxDB. Simulated
// times are written as offsets in seconds from BaseTime.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
	BaseTime time.Time
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
		BaseTime: time.Now().UTC().Truncate(time.Second),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) at(simTime float64) time.Time {
	return s.BaseTime.Add(time.Duration(simTime * float64(time.Second)))
}

// RecordTick writes one tick point.
func (s *InfluxSink) RecordTick(ev coremetrics.TickEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("tick").
		AddTag("run_id", ev.RunID).
		AddTag("final", strconv.FormatBool(ev.Tick.Final)).
		AddField("t", round3(ev.Tick.Time)).
		AddField("score", ev.Tick.Score).
		AddField("closed", len(ev.Tick.Closed)).
		AddField("en_route", ev.EnRoute).
		AddField("active", ev.Active).
		SetTime(s.at(ev.Tick.Time))
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOutcome writes a terminal emergency.
func (s *InfluxSink) RecordOutcome(o coremetrics.Outcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("emergency_outcome").
		AddTag("run_id", o.RunID).
		AddTag("category", o.Category.String()).
		AddTag("outcome", o.State.String())
	if o.UnitID != "" {
		p = p.AddTag("unit_id", o.UnitID)
	}
	p = p.AddField("emergency_id", o.EmergencyID).
		AddField("points", o.Points).
		AddField("response_time", round3(o.ResponseTime())).
		AddField("slack", round3(o.Deadline-o.ClosedAt)).
		SetTime(s.at(o.ClosedAt))
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDispatch writes a dispatch decision.
func (s *InfluxSink) RecordDispatch(ev coremetrics.DispatchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch").
		AddTag("run_id", ev.RunID).
		AddTag("unit_id", ev.UnitID).
		AddTag("emergency_category", ev.EmergencyCategory.String()).
		AddTag("unit_category", ev.UnitCategory.String()).
		AddField("emergency_id", ev.EmergencyID).
		AddField("cost", round3(ev.Cost)).
		SetTime(s.at(ev.Time))
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
