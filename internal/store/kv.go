package store

import (
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
)

// KVEntry is one key/value pair surfaced by a KV.Range scan.
type KVEntry struct {
	Key   string
	Value []byte
}

// KV is the raw, protocol-agnostic view a byte-map-backed store exposes to
// the queries it executes. A store holding its state as plain key→bytes
// pairs (like MemStore) implements KV directly; protocol Read/Write values
// that know how to run themselves against a KV stay decoupled from any
// particular store implementation, which is the crux of keeping the core
// protocol-agnostic: the store doesn't know what a "get" or "range scan"
// means, it just hands out a KV and the query does the rest.
type KV interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte)
	Delete(key string)
	// Range returns every entry whose key hash falls within r, in no
	// particular order.
	Range(r region.Region) []KVEntry
}

// Executable is implemented by protocol.Read values that know how to run
// themselves against a KV. A store that holds its state as a KV type-
// asserts an incoming protocol.Read to this interface rather than
// switching on concrete query types, so new query shapes plug in without
// the store package changing.
type Executable interface {
	ExecRead(kv KV) (protocol.ReadResponse, error)
}

// ExecutableWrite is the write-side counterpart of Executable.
type ExecutableWrite interface {
	ExecWrite(kv KV) (protocol.WriteResponse, error)
}
