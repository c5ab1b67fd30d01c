// Package metrics defines the sink interfaces fed by the simulation clock.
// Every sink records tick snapshots; optional recorder interfaces are
// discovered by type assertion for emergency outcomes and dispatch decisions.
// Sinks are created from configuration through a factory registry and are
// wrapped in a MultiSink when more than one is configured.
package metrics
