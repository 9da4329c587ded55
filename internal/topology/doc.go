// Package topology supplies the routing layer a namespace facade
// consumes: given a query's region, which stores (or remote holders) own
// which sub-regions, and which of them are currently healthy enough to
// dispatch to.
//
// Table is the concrete, minimal implementation spec.md §4.8 asks for — a
// region→store assignment, adapted from the teacher's
// coordinator.ShardRegistry (which mapped shard IDs to node IDs; Table
// maps Regions to store.Store directly, since this repository's stores
// are the unit of placement, not numbered shards).
//
// HealthMonitor generalizes the teacher's coordinator.HealthMonitor from
// periodic HTTP polling of node /health endpoints to periodic probing of
// a store.Store's own coherent/backfilling state, so an in-process store
// stuck mid-backfill or otherwise unable to serve is caught the same way
// a crashed remote node would be.
package topology
