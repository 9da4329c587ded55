package stream

import (
	"fmt"

	"github.com/dreamware/shardcore/internal/cache"
	"github.com/dreamware/shardcore/internal/xerrors"
)

// Datum is the dynamic document type every stream element carries.
type Datum = map[string]any

// MaxBatchSize bounds how many elements a Lazy stream fetches per
// round trip to its RangeSource.
const MaxBatchSize = 64

// Stream yields Datums one at a time. Next returns (nil, false, nil) once
// exhausted, and (nil, false, err) if pulling the next element failed —
// callers must not call Next again after either.
type Stream interface {
	Next() (Datum, bool, error)
}

type mapStream struct {
	upstream Stream
	f        func(Datum) (Datum, error)
}

// Map applies f to every element.
func Map(upstream Stream, f func(Datum) (Datum, error)) Stream {
	return &mapStream{upstream: upstream, f: f}
}

func (m *mapStream) Next() (Datum, bool, error) {
	d, ok, err := m.upstream.Next()
	if err != nil || !ok {
		return nil, ok, err
	}
	out, err := m.f(d)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

type filterStream struct {
	upstream Stream
	pred     func(Datum) (bool, error)
}

// Filter keeps only elements for which pred returns true.
func Filter(upstream Stream, pred func(Datum) (bool, error)) Stream {
	return &filterStream{upstream: upstream, pred: pred}
}

func (f *filterStream) Next() (Datum, bool, error) {
	for {
		d, ok, err := f.upstream.Next()
		if err != nil || !ok {
			return nil, ok, err
		}
		keep, err := f.pred(d)
		if err != nil {
			return nil, false, err
		}
		if keep {
			return d, true, nil
		}
	}
}

type concatMapStream struct {
	upstream Stream
	f        func(Datum) ([]Datum, error)
	cur      []Datum
	idx      int
}

// ConcatMap maps each element to a slice of sub-elements and flattens the
// results in order, matching the teacher's concatmap over a lazy stream.
func ConcatMap(upstream Stream, f func(Datum) ([]Datum, error)) Stream {
	return &concatMapStream{upstream: upstream, f: f}
}

func (c *concatMapStream) Next() (Datum, bool, error) {
	for c.idx >= len(c.cur) {
		d, ok, err := c.upstream.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		sub, err := c.f(d)
		if err != nil {
			return nil, false, err
		}
		c.cur = sub
		c.idx = 0
	}
	out := c.cur[c.idx]
	c.idx++
	return out, true, nil
}

type sliceStream struct {
	upstream  Stream
	skip      int
	remaining int
	skipped   bool
}

// Slice skips l elements then delivers at most r-l more; out-of-range
// bounds (including r < l) yield an empty stream rather than an error.
func Slice(upstream Stream, l, r int) Stream {
	count := r - l
	if count < 0 {
		count = 0
	}
	if l < 0 {
		l = 0
	}
	return &sliceStream{upstream: upstream, skip: l, remaining: count}
}

func (s *sliceStream) Next() (Datum, bool, error) {
	if !s.skipped {
		for i := 0; i < s.skip; i++ {
			_, ok, err := s.upstream.Next()
			if err != nil {
				return nil, false, err
			}
			if !ok {
				break
			}
		}
		s.skipped = true
	}
	if s.remaining <= 0 {
		return nil, false, nil
	}
	d, ok, err := s.upstream.Next()
	if err != nil || !ok {
		return nil, ok, err
	}
	s.remaining--
	return d, true, nil
}

type unionStream struct {
	streams []Stream
	idx     int
}

// Union concatenates streams in argument order.
func Union(streams ...Stream) Stream {
	return &unionStream{streams: streams}
}

func (u *unionStream) Next() (Datum, bool, error) {
	for u.idx < len(u.streams) {
		d, ok, err := u.streams[u.idx].Next()
		if err != nil {
			return nil, false, err
		}
		if ok {
			return d, true, nil
		}
		u.idx++
	}
	return nil, false, nil
}

type zipStream struct {
	upstream Stream
}

// Zip interprets each element as {left, right} and emits right merged over
// left, failing with a UserQuery error if an element has no left — the
// shape only a join produces.
func Zip(upstream Stream) Stream {
	return &zipStream{upstream: upstream}
}

func (z *zipStream) Next() (Datum, bool, error) {
	d, ok, err := z.upstream.Next()
	if err != nil || !ok {
		return nil, ok, err
	}
	leftRaw, hasLeft := d["left"]
	if !hasLeft {
		return nil, false, fmt.Errorf("stream: %w: ZIP can only be called on the result of a join.", xerrors.ErrUserQuery)
	}
	left, _ := leftRaw.(Datum)
	out := make(Datum, len(left))
	for k, v := range left {
		out[k] = v
	}
	if right, ok := d["right"].(Datum); ok {
		for k, v := range right {
			out[k] = v
		}
	}
	return out, true, nil
}

// Count consumes the stream and reports how many elements it produced.
func Count(s Stream) (int, error) {
	n := 0
	for {
		_, ok, err := s.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// Reduce left-folds the stream through f. If base is non-nil it seeds the
// accumulator; otherwise the first element seeds it. An empty stream with
// no base is a UserQuery error, not a zero value, since there is no
// principled identity for an arbitrary reduce function.
func Reduce(s Stream, base *Datum, f func(acc, v Datum) (Datum, error)) (Datum, error) {
	var acc Datum
	haveAcc := false
	if base != nil {
		acc = *base
		haveAcc = true
	}
	for {
		d, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if !haveAcc {
			acc = d
			haveAcc = true
			continue
		}
		acc, err = f(acc, d)
		if err != nil {
			return nil, err
		}
	}
	if !haveAcc {
		return nil, fmt.Errorf("stream: %w: Cannot reduce over an empty stream with no base.", xerrors.ErrUserQuery)
	}
	return acc, nil
}

// GroupMapReduce groups elements by group(x), maps each to map(x), and
// folds each group's mapped values through reduce. If base is non-nil,
// each new group starts from reduce(*base, firstMapped) instead of
// firstMapped itself.
//
// scratch, when non-nil, memoizes the per-call groups accumulator in the
// shared temporary cache under scratchKey — the "grouping scratch map" use
// case for the cache noted alongside the protocol's temporary_cache_t.
func GroupMapReduce(
	s Stream,
	group func(Datum) string,
	mapFn func(Datum) Datum,
	base *Datum,
	reduce func(acc, v Datum) Datum,
	scratch *cache.TemporaryCache,
	scratchKey any,
) (map[string]Datum, error) {
	var groups map[string]Datum
	if scratch != nil {
		groups = scratch.GetOrCreate(scratchKey, func() any {
			return make(map[string]Datum)
		}).(map[string]Datum)
	} else {
		groups = make(map[string]Datum)
	}

	for {
		d, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		key := group(d)
		mapped := mapFn(d)
		if existing, seen := groups[key]; seen {
			groups[key] = reduce(existing, mapped)
			continue
		}
		if base != nil {
			groups[key] = reduce(*base, mapped)
		} else {
			groups[key] = mapped
		}
	}
	return groups, nil
}
