// Package stream implements the operator set from
// original_source/src/rdb_protocol/datum_stream.cc: a single-pass sequence
// of dynamic documents (Datum) with map/filter/concat_map/slice/zip/union
// transformations and count/reduce/group_map_reduce terminals.
//
// Two backings mirror the teacher's eager/lazy split:
//
//   - Eager wraps an in-memory []Datum; transformations still evaluate
//     lazily, pulled element-by-element through Next(), even though the
//     source is already fully materialized.
//   - Lazy wraps a RangeSource (in practice a kvprotocol.RangeScan
//     dispatched through a namespace), pulling up to MaxBatchSize entries
//     per round trip instead of one key at a time.
//
// Every operator takes a Stream and returns a Stream, so transformation
// stacks compose uniformly over either backing — exactly the
// "transformations are move-in, move-out" ownership model from §9 of the
// spec this package implements, realized in Go as plain composition
// instead of C++ move semantics.
package stream
