// Package metrics provides the Prometheus and InfluxDB implementations of
// the simulation metrics sinks and registers them with the sink factory.
package metrics
