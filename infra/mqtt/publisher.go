package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/ersim/core/factory"
	coremetrics "github.com/kilianp07/ersim/core/metrics"
	"github.com/kilianp07/ersim/core/model"
	"github.com/kilianp07/ersim/infra/logger"
)

// Publisher is a metrics sink publishing JSON messages under
// <prefix>/<run id>/{tick,outcome,dispatch}.
type Publisher struct {
	cli     pahoClient
	cfg     Config
	log     logger.Logger
	backoff time.Duration
}

type tickMessage struct {
	RunID   string           `json:"run_id"`
	Tick    model.TickRecord `json:"tick"`
	EnRoute int              `json:"en_route"`
	Active  int              `json:"active"`
}

type outcomeMessage struct {
	RunID        string  `json:"run_id"`
	EmergencyID  string  `json:"emergency_id"`
	Category     string  `json:"category"`
	Outcome      string  `json:"outcome"`
	UnitID       string  `json:"unit_id,omitempty"`
	CreatedAt    float64 `json:"created_at"`
	ClosedAt     float64 `json:"closed_at"`
	Points       int     `json:"points"`
	ResponseTime float64 `json:"response_time"`
}

type dispatchMessage struct {
	RunID             string  `json:"run_id"`
	EmergencyID       string  `json:"emergency_id"`
	EmergencyCategory string  `json:"emergency_category"`
	UnitID            string  `json:"unit_id"`
	UnitCategory      string  `json:"unit_category"`
	Time              float64 `json:"t"`
	Cost              float64 `json:"cost"`
}

// NewPublisher connects to the broker and announces the publisher online.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	log.Infof("MQTT connected to %s", cfg.Broker)
	p := &Publisher{
		cli:     c,
		cfg:     cfg,
		log:     log,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	if err := p.publish(cfg.StatusTopic(), "status", true, []byte("online")); err != nil {
		p.log.Warnf("status publish: %v", err)
	}
	return p, nil
}

func (p *Publisher) topic(runID, stream string) string {
	return fmt.Sprintf("%s/%s/%s", p.cfg.TopicPrefix, runID, stream)
}

func (p *Publisher) publishJSON(runID, stream string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.publish(p.topic(runID, stream), stream, p.cfg.Retain, payload)
}

// publish retries with exponential backoff.
func (p *Publisher) publish(topic, stream string, retain bool, payload []byte) error {
	qos := p.cfg.QoS[stream]
	var publishErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.log.Errorf("publish %s attempt %d failed: %v", topic, attempt+1, publishErr)
		if attempt < p.cfg.MaxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return publishErr
}

func (p *Publisher) RecordTick(ev coremetrics.TickEvent) error {
	return p.publishJSON(ev.RunID, "tick", tickMessage{RunID: ev.RunID, Tick: ev.Tick, EnRoute: ev.EnRoute, Active: ev.Active})
}

func (p *Publisher) RecordOutcome(o coremetrics.Outcome) error {
	return p.publishJSON(o.RunID, "outcome", outcomeMessage{
		RunID:        o.RunID,
		EmergencyID:  o.EmergencyID,
		Category:     o.Category.String(),
		Outcome:      o.State.String(),
		UnitID:       o.UnitID,
		CreatedAt:    o.CreatedAt,
		ClosedAt:     o.ClosedAt,
		Points:       o.Points,
		ResponseTime: o.ResponseTime(),
	})
}

func (p *Publisher) RecordDispatch(ev coremetrics.DispatchEvent) error {
	return p.publishJSON(ev.RunID, "dispatch", dispatchMessage{
		RunID:             ev.RunID,
		EmergencyID:       ev.EmergencyID,
		EmergencyCategory: ev.EmergencyCategory.String(),
		UnitID:            ev.UnitID,
		UnitCategory:      ev.UnitCategory.String(),
		Time:              ev.Time,
		Cost:              ev.Cost,
	})
}

// Close marks the publisher offline and disconnects.
func (p *Publisher) Close() error {
	if p.cli == nil || !p.cli.IsConnected() {
		return nil
	}
	err := p.publish(p.cfg.StatusTopic(), "status", true, []byte("offline"))
	p.cli.Disconnect(250)
	return err
}

func init() {
	coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPublisher(c)
	})
}
