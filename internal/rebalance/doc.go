// Package rebalance reshapes a set of stores covering some region into a
// new partition of that region, generalizing the teacher's
// coordinator.ShardRegistry.RebalanceShards (round-robin shard-to-node
// assignment) from relabeling an assignment table to actually moving
// data: goals that don't match an existing store's region exactly are
// filled by copying the overlapping key ranges out of every recyclee that
// intersects them, using region.Intersection to compute exactly which
// keys move from which source.
//
// Per the design notes resolving spec.md's open question on rebalance
// interruptibility, Rebalance checks its interruptor between goals; within
// one goal it is seen only by each recyclee's range read. Either way a
// goal's transfer completes or the whole call fails, so a caller never
// observes a goal store half-populated.
package rebalance
