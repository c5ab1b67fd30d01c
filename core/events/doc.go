// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - Dispatched: a unit was bound to an emergency
//   - Unassigned: a newly arrived emergency found no eligible idle unit
//   - Resolved: a unit reached its emergency
//   - Expired: an emergency passed its deadline, possibly aborting a trip
//   - TickCompleted: the output record of a processed tick
package events
