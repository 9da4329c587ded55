// Package kvprotocol is the concrete refinement of protocol.Read/Write
// that the teacher's internal/shard.Shard implemented directly against its
// storage.Store: point Get/Put/Delete, plus a region-scoped range scan.
// Where the teacher mixed statistics counting and storage access into one
// method (Shard.Get, Shard.Put), kvprotocol splits the concern into an
// opaque query value that knows how to shard and unshard itself, and an
// ExecRead/ExecWrite body that runs against whatever store.KV it's handed.
package kvprotocol
