// Package monitoring reports simulator errors to Sentry.
package monitoring

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	coremon "github.com/kilianp07/ersim/core/monitoring"
)

// Config defines settings for Sentry error monitoring. An empty DSN disables
// reporting.
type Config struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

func (c Config) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry.traces_sample_rate must be within [0,1]")
	}
	return nil
}

// SentryMonitor sends captured errors and panics through its own hub, so the
// process-wide Sentry hub is left untouched.
type SentryMonitor struct {
	hub *sentry.Hub
}

// NewSentryMonitor returns a NopMonitor when no DSN is configured.
func NewSentryMonitor(cfg Config) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	scope := sentry.NewScope()
	scope.SetTag("service", "ersim")
	return &SentryMonitor{hub: sentry.NewHub(client, scope)}, nil
}

func (m *SentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	m.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		m.hub.CaptureException(err)
	})
}

// Recover reports a panic, flushes and re-raises it.
func (m *SentryMonitor) Recover() {
	if r := recover(); r != nil {
		m.ReportPanic(r)
		m.Flush(2 * time.Second)
		panic(r)
	}
}

func (m *SentryMonitor) ReportPanic(v any) { m.hub.Recover(v) }

func (m *SentryMonitor) Flush(timeout time.Duration) { m.hub.Flush(timeout) }
