// Package store defines the Store contract: a coherent replica of a
// region's keyspace that serves reads and writes and participates in
// backfills as either source or sink. It is adapted from the teacher's
// internal/storage.MemoryStore and internal/shard.Shard, generalized from
// a fixed-shard-count, always-serving key-value map into the full state
// machine spec.md §4.4 requires:
//
//	coherent ∧ ¬backfilling   (serving)
//	¬coherent ∧ ¬backfilling  (stale; must backfill)
//	¬coherent ∧ backfilling   (receiving)
//	coherent ∧ backfilling    — forbidden
//
// Both flags and the state timestamp are meant to be durable; MemStore
// keeps them in memory only (no WAL), matching the teacher's in-memory
// storage backend and leaving persistence as future work exactly as the
// teacher's doc.go does for its own map-backed store.
package store
