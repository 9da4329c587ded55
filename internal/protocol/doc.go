// Package protocol defines the query algebra every storage protocol must
// implement: Read and Write values that know their own Region, can be
// sharded across a disjoint cover, and can unshard a set of per-region
// responses back into one. This is the "protocol polymorphism" boundary
// from the design notes — the clustering core depends only on these
// interfaces, never on a concrete protocol's internals.
//
// Timestamps live here too: StateTimestamp names a point in a store's
// write history, TransitionTimestamp names the (before, after) pair of a
// single write. OrderToken ties an operation to its origin so the facade
// and store can honor the same-origin ordering guarantee.
package protocol
