// Package region implements the region algebra: the set-of-keys lattice
// that every storage protocol in this repository shards and unshards
// queries against.
//
// A Region is not an arbitrary set of keys — it's a half-open range over
// the 32-bit FNV-1a hash ring, the same lattice sketched by the key-space
// diagram in the teacher's shard package: the ring is cut into contiguous
// arcs, and ownership of a key is decided by hashing it and checking which
// arc its hash falls into. This keeps the lattice closed under
// intersection (the intersection of two arcs is an arc, possibly empty)
// without needing a general union() operator — coverage is expressed only
// as a predicate, per the core's contract.
//
// Regions are values: two Regions with the same Lo/Hi compare equal with
// ==, they serialize deterministically, and none of their methods block or
// fail.
package region
