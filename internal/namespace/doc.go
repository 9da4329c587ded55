// Package namespace is the outward entry point spec.md §4.8 describes:
// for each incoming Read/Write, compute the query's region, ask the
// routing layer for a covering disjoint partition, shard the query across
// it, dispatch each piece to its store, and unshard the responses.
//
// Namespace depends only on topology.Router, never a concrete Table,
// keeping the "consumer of the region algebra" boundary spec.md §1 draws
// around cluster membership narrow — generalizing the routing call the
// teacher's cmd/coordinator/main.go made directly against its in-memory
// node list into an interface a remote-aware router can also satisfy.
package namespace
