package stream

import (
	"encoding/json"
	"fmt"

	"github.com/dreamware/shardcore/internal/kvprotocol"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/store"
	"github.com/dreamware/shardcore/internal/xerrors"
)

// RangeSource is what a Lazy stream pulls batches from. after is the last
// key already delivered ("" for the first call); FetchBatch returns up to
// limit entries with key > after, in key order, plus whether more remain.
type RangeSource interface {
	FetchBatch(after string, limit int) (entries []store.KVEntry, more bool, err error)
}

// Lazy is a Stream backed by a RangeSource, the refinement of
// lazy_datum_stream_t: elements are pulled MaxBatchSize at a time instead
// of one round trip per element, and each Datum is the JSON-decoded value
// of one key/value entry.
type Lazy struct {
	source    RangeSource
	batchSize int

	cursor string
	buf    []store.KVEntry
	bufIdx int
	done   bool
}

// NewLazy wraps source as a Stream, batching MaxBatchSize entries per
// fetch.
func NewLazy(source RangeSource) *Lazy {
	return &Lazy{source: source, batchSize: MaxBatchSize}
}

func (l *Lazy) Next() (Datum, bool, error) {
	for l.bufIdx >= len(l.buf) {
		if l.done {
			return nil, false, nil
		}
		batch, more, err := l.source.FetchBatch(l.cursor, l.batchSize)
		if err != nil {
			return nil, false, err
		}
		l.buf = batch
		l.bufIdx = 0
		l.done = !more
		if len(batch) == 0 {
			return nil, false, nil
		}
		l.cursor = batch[len(batch)-1].Key
	}

	entry := l.buf[l.bufIdx]
	l.bufIdx++
	d, err := decodeEntry(entry)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

func decodeEntry(e store.KVEntry) (Datum, error) {
	var d Datum
	if err := json.Unmarshal(e.Value, &d); err != nil {
		return nil, fmt.Errorf("stream: %w: value at key %q is not a JSON document: %v", xerrors.ErrUserQuery, e.Key, err)
	}
	return d, nil
}

// KVRangeSource adapts a kvprotocol.RangeScan dispatched through Dispatch
// into a RangeSource, the "range read to a namespace" backing described in
// spec.md §4.7. Dispatch typically closes over a namespace.Namespace's
// Read method.
//
// The underlying store has no native cursor, so KVRangeSource fetches the
// full span once and paginates client-side; this still bounds each Next()
// call to at most MaxBatchSize decodes; it does not save the round trip to
// the store, which a server-side cursor would.
type KVRangeSource struct {
	Dispatch func(protocol.Read) (protocol.ReadResponse, error)
	Span     region.Region

	fetched bool
	entries []store.KVEntry
}

func (k *KVRangeSource) FetchBatch(after string, limit int) ([]store.KVEntry, bool, error) {
	if !k.fetched {
		resp, err := k.Dispatch(kvprotocol.RangeScan{Span: k.Span})
		if err != nil {
			return nil, false, err
		}
		rr, ok := resp.(kvprotocol.RangeResponse)
		if !ok {
			return nil, false, fmt.Errorf("stream: %w: range dispatch returned unexpected response type", xerrors.ErrInvariant)
		}
		k.entries = rr.Entries
		k.fetched = true
	}

	start := 0
	if after != "" {
		for start < len(k.entries) && k.entries[start].Key <= after {
			start++
		}
	}
	end := start + limit
	more := false
	if end < len(k.entries) {
		more = true
	} else {
		end = len(k.entries)
	}
	return k.entries[start:end], more, nil
}
