package metrics

import (
	"errors"
	"io"
)

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards to all sinks and joins their errors.
func (m *MultiSink) RecordTick(ev TickEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordTick(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordOutcome forwards to sinks implementing OutcomeRecorder.
func (m *MultiSink) RecordOutcome(o Outcome) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(OutcomeRecorder); ok {
			if err := rec.RecordOutcome(o); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordDispatch forwards to sinks implementing DispatchRecorder.
func (m *MultiSink) RecordDispatch(ev DispatchEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(DispatchRecorder); ok {
			if err := rec.RecordDispatch(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
