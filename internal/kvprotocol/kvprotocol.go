package kvprotocol

import (
	"fmt"
	"sort"

	"github.com/dreamware/shardcore/internal/cache"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/store"
	"github.com/dreamware/shardcore/internal/xerrors"
)

// pointRegion returns the single-key region covering key's hash, the
// smallest non-empty Region a point query can depend on.
func pointRegion(key string) region.Region {
	h := uint64(region.HashKey(key))
	return region.Region{Lo: h, Hi: h + 1}
}

// GetResponse carries the value found for a Get, or found=false if the key
// was absent from every shard that answered.
type GetResponse struct {
	protocol.ReadResponseBase
	Value []byte
	Found bool
}

// Get is a point read for a single key, the refinement of protocol.Read
// that the teacher's Shard.Get performed directly against its
// storage.Store.
type Get struct {
	Key string
}

func (g Get) Region() region.Region { return pointRegion(g.Key) }

// Shard hands the whole query to whichever sub-region actually owns the
// key; every other sub-region gets no query at all, since a point read
// depends on exactly one key.
func (g Get) Shard(regions []region.Region) ([]protocol.Read, error) {
	if err := protocol.CheckShardPreconditions(g.Region(), regions); err != nil {
		return nil, err
	}
	out := make([]protocol.Read, 0, 1)
	for _, r := range regions {
		if r.OwnsKey(g.Key) {
			out = append(out, Get{Key: g.Key})
		}
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("kvprotocol: %w: expected exactly one owning shard for key %q, got %d", xerrors.ErrInvariant, g.Key, len(out))
	}
	return out, nil
}

// Unshard picks the single non-empty response; a point read only ever
// fans out to one shard, so there is nothing to merge.
func (g Get) Unshard(responses []protocol.ReadResponse, _ *cache.TemporaryCache) (protocol.ReadResponse, error) {
	if len(responses) != 1 {
		return nil, fmt.Errorf("kvprotocol: %w: Get.Unshard expects exactly one response, got %d", xerrors.ErrInvariant, len(responses))
	}
	resp, ok := responses[0].(GetResponse)
	if !ok {
		return nil, fmt.Errorf("kvprotocol: %w: unexpected response type for Get", xerrors.ErrInvariant)
	}
	return resp, nil
}

func (g Get) ExecRead(kv store.KV) (protocol.ReadResponse, error) {
	val, ok := kv.Get(g.Key)
	return GetResponse{Value: val, Found: ok}, nil
}

// PutResponse acknowledges a Put; it carries no data beyond success.
type PutResponse struct {
	protocol.WriteResponseBase
}

// Put is a point write for a single key.
type Put struct {
	Key   string
	Value []byte
}

func (p Put) Region() region.Region { return pointRegion(p.Key) }

func (p Put) Shard(regions []region.Region) ([]protocol.Write, error) {
	if err := protocol.CheckShardPreconditions(p.Region(), regions); err != nil {
		return nil, err
	}
	out := make([]protocol.Write, 0, 1)
	for _, r := range regions {
		if r.OwnsKey(p.Key) {
			out = append(out, Put{Key: p.Key, Value: p.Value})
		}
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("kvprotocol: %w: expected exactly one owning shard for key %q, got %d", xerrors.ErrInvariant, p.Key, len(out))
	}
	return out, nil
}

func (p Put) Unshard(responses []protocol.WriteResponse, _ *cache.TemporaryCache) (protocol.WriteResponse, error) {
	if len(responses) != 1 {
		return nil, fmt.Errorf("kvprotocol: %w: Put.Unshard expects exactly one response, got %d", xerrors.ErrInvariant, len(responses))
	}
	return responses[0], nil
}

func (p Put) ExecWrite(kv store.KV) (protocol.WriteResponse, error) {
	kv.Put(p.Key, p.Value)
	return PutResponse{}, nil
}

// DeleteResponse acknowledges a Delete.
type DeleteResponse struct {
	protocol.WriteResponseBase
}

// Delete is a point delete for a single key.
type Delete struct {
	Key string
}

func (d Delete) Region() region.Region { return pointRegion(d.Key) }

func (d Delete) Shard(regions []region.Region) ([]protocol.Write, error) {
	if err := protocol.CheckShardPreconditions(d.Region(), regions); err != nil {
		return nil, err
	}
	out := make([]protocol.Write, 0, 1)
	for _, r := range regions {
		if r.OwnsKey(d.Key) {
			out = append(out, Delete{Key: d.Key})
		}
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("kvprotocol: %w: expected exactly one owning shard for key %q, got %d", xerrors.ErrInvariant, d.Key, len(out))
	}
	return out, nil
}

func (d Delete) Unshard(responses []protocol.WriteResponse, _ *cache.TemporaryCache) (protocol.WriteResponse, error) {
	if len(responses) != 1 {
		return nil, fmt.Errorf("kvprotocol: %w: Delete.Unshard expects exactly one response, got %d", xerrors.ErrInvariant, len(responses))
	}
	return responses[0], nil
}

func (d Delete) ExecWrite(kv store.KV) (protocol.WriteResponse, error) {
	kv.Delete(d.Key)
	return DeleteResponse{}, nil
}

// RangeResponse carries every entry a RangeScan found within the queried
// region, key-sorted so repeated scans are deterministic regardless of how
// many shards answered.
type RangeResponse struct {
	protocol.ReadResponseBase
	Entries []store.KVEntry
}

// RangeScan reads every key/value pair whose hash falls within Span. It is
// the refinement the teacher's Shard.ListKeysInRange performed against a
// single shard's keyspace, generalized to an arbitrary sharded region —
// and it is the building block internal/stream pushes transformations
// down into.
type RangeScan struct {
	Span region.Region
}

func (s RangeScan) Region() region.Region { return s.Span }

// Shard intersects Span with each sub-region, dropping empty intersections
// so a RangeScan over a narrow span doesn't fan out to shards it has no
// keys in.
func (s RangeScan) Shard(regions []region.Region) ([]protocol.Read, error) {
	if err := protocol.CheckShardPreconditions(s.Span, regions); err != nil {
		return nil, err
	}
	out := make([]protocol.Read, 0, len(regions))
	for _, r := range regions {
		sub := s.Span.Intersection(r)
		if sub.Empty() {
			continue
		}
		out = append(out, RangeScan{Span: sub})
	}
	return out, nil
}

// Unshard concatenates every shard's entries and sorts by key. Sub-region
// results never overlap in key-space (Shard intersects a non-overlapping
// cover), so concatenation can't duplicate a key; the sort alone gives
// scan order independence from shard dispatch order.
func (s RangeScan) Unshard(responses []protocol.ReadResponse, _ *cache.TemporaryCache) (protocol.ReadResponse, error) {
	var all []store.KVEntry
	for _, r := range responses {
		rr, ok := r.(RangeResponse)
		if !ok {
			return nil, fmt.Errorf("kvprotocol: %w: unexpected response type for RangeScan", xerrors.ErrInvariant)
		}
		all = append(all, rr.Entries...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Key < all[j].Key })
	return RangeResponse{Entries: all}, nil
}

func (s RangeScan) ExecRead(kv store.KV) (protocol.ReadResponse, error) {
	entries := kv.Range(s.Span)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return RangeResponse{Entries: entries}, nil
}
