// Package infra holds the adapters of the simulator: the zerolog logger, the
// arrival CSV reader, the Prometheus and InfluxDB sinks and the MQTT tick
// stream. Adapters depend only on interfaces defined in the core packages.
package infra
