package store

import (
	"fmt"
	"sync"

	"github.com/dreamware/shardcore/internal/cache"
	"github.com/dreamware/shardcore/internal/interrupt"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/xerrors"
)

// MemStore is an in-memory Store, adapted from the teacher's
// storage.MemoryStore (the byte-map backend) and shard.Shard (the
// region-owning, stateful wrapper around it). One sync.RWMutex protects
// the data map, the timestamp, and the coherent/backfilling flags
// together, which trivially gives MemStore the per-key linearizability
// and same-origin ordering guarantees of spec.md §4.4: every write and
// every backfill transition passes through the same lock in the order
// callers issue them.
type MemStore struct {
	mu sync.RWMutex

	region      region.Region
	data        map[string][]byte
	timestamp   protocol.StateTimestamp
	coherent    bool
	backfilling bool

	lastOrigin map[protocol.OrderToken]protocol.StateTimestamp
}

// NewMemStore creates a MemStore that owns r and starts out coherent at
// timestamp 0, mirroring a freshly constructed shard with no prior state.
func NewMemStore(r region.Region) *MemStore {
	return &MemStore{
		region:     r,
		data:       make(map[string][]byte),
		coherent:   true,
		lastOrigin: make(map[protocol.OrderToken]protocol.StateTimestamp),
	}
}

var _ Store = (*MemStore)(nil)

func (m *MemStore) Region() region.Region { return m.region }

func (m *MemStore) Coherent() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coherent
}

func (m *MemStore) Backfilling() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.backfilling
}

func (m *MemStore) Timestamp() protocol.StateTimestamp {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timestamp
}

// view implements KV directly against m.data. Callers must hold m.mu.
type view struct{ m *MemStore }

func (v view) Get(key string) ([]byte, bool) {
	val, ok := v.m.data[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, true
}

func (v view) Put(key string, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)
	v.m.data[key] = stored
}

func (v view) Delete(key string) {
	delete(v.m.data, key)
}

func (v view) Range(r region.Region) []KVEntry {
	out := make([]KVEntry, 0)
	for k, val := range v.m.data {
		if r.OwnsKey(k) {
			cp := make([]byte, len(val))
			copy(cp, val)
			out = append(out, KVEntry{Key: k, Value: cp})
		}
	}
	return out
}

func (m *MemStore) Read(q protocol.Read, otok protocol.OrderToken, c *cache.TemporaryCache, interruptor *interrupt.Signal) (protocol.ReadResponse, error) {
	if interruptor != nil && interruptor.Pulsed() {
		return nil, xerrors.ErrInterrupted
	}
	if !q.Region().CoveredBy([]region.Region{m.region}) {
		return nil, fmt.Errorf("store: %w: read region %v not within store region %v", xerrors.ErrInvariant, q.Region(), m.region)
	}

	ex, ok := q.(Executable)
	if !ok {
		return nil, fmt.Errorf("store: %w: read query does not implement Executable", xerrors.ErrInvariant)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if st := StateOf(m.coherent, m.backfilling); st != StateServing {
		return nil, fmt.Errorf("store: %w: read requires serving state, got %s", xerrors.ErrInvariant, st)
	}

	return ex.ExecRead(view{m})
}

func (m *MemStore) Write(w protocol.Write, ts protocol.TransitionTimestamp, otok protocol.OrderToken, interruptor *interrupt.Signal) (protocol.WriteResponse, error) {
	if interruptor != nil && interruptor.Pulsed() {
		return nil, xerrors.ErrInterrupted
	}
	if !w.Region().CoveredBy([]region.Region{m.region}) {
		return nil, fmt.Errorf("store: %w: write region %v not within store region %v", xerrors.ErrInvariant, w.Region(), m.region)
	}

	ex, ok := w.(ExecutableWrite)
	if !ok {
		return nil, fmt.Errorf("store: %w: write query does not implement ExecutableWrite", xerrors.ErrInvariant)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if st := StateOf(m.coherent, m.backfilling); st != StateServing {
		return nil, fmt.Errorf("store: %w: write requires serving state, got %s", xerrors.ErrInvariant, st)
	}
	if m.timestamp != ts.Before {
		return nil, fmt.Errorf("store: %w: write expects timestamp %d, store is at %d", xerrors.ErrInvariant, ts.Before, m.timestamp)
	}
	if last, ok := m.lastOrigin[otok]; ok && last > ts.Before {
		return nil, fmt.Errorf("store: %w: write from origin %s arrived out of issue order", xerrors.ErrInvariant, otok)
	}

	resp, err := ex.ExecWrite(view{m})
	if err != nil {
		// Never commit on failure: timestamp stays put, state stays
		// unmodified from the caller's point of view (the write may have
		// partially mutated the map only if the query itself is buggy;
		// well-behaved queries validate before mutating).
		return nil, err
	}

	m.timestamp = ts.After
	m.lastOrigin[otok] = ts.After
	return resp, nil
}

func (m *MemStore) BackfilleeBegin() (BackfillRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backfilling {
		return BackfillRequest{}, fmt.Errorf("store: %w: already backfilling", xerrors.ErrInvariant)
	}
	m.backfilling = true
	m.coherent = false
	return BackfillRequest{Region: m.region, Timestamp: m.timestamp}, nil
}

func (m *MemStore) BackfilleeChunk(chunk BackfillChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.backfilling {
		return fmt.Errorf("store: %w: backfillee_chunk called outside a backfill", xerrors.ErrInvariant)
	}
	for k, val := range chunk.Puts {
		stored := make([]byte, len(val))
		copy(stored, val)
		m.data[k] = stored
	}
	for _, k := range chunk.Deletes {
		delete(m.data, k)
	}
	return nil
}

func (m *MemStore) BackfilleeEnd(ts protocol.StateTimestamp) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.backfilling {
		return fmt.Errorf("store: %w: backfillee_end called outside a backfill", xerrors.ErrInvariant)
	}
	m.backfilling = false
	m.coherent = true
	m.timestamp = ts
	return nil
}

func (m *MemStore) BackfilleeCancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.backfilling {
		return fmt.Errorf("store: %w: backfillee_cancel called outside a backfill", xerrors.ErrInvariant)
	}
	m.backfilling = false
	m.coherent = false
	return nil
}

// Backfiller streams every entry in req.Region() to chunkFn in fixed-size
// batches, taking its consistent snapshot under the same lock that
// serializes writes — so the timestamp it returns is a genuine point in
// the store's history even though writes keep landing after the call
// returns.
func (m *MemStore) Backfiller(req BackfillRequest, chunkFn func(BackfillChunk) error, interruptor *interrupt.Signal) (protocol.StateTimestamp, error) {
	m.mu.RLock()
	if req.Region != m.region {
		m.mu.RUnlock()
		return 0, fmt.Errorf("store: %w: backfill request region %v does not match store region %v", xerrors.ErrInvariant, req.Region, m.region)
	}
	if req.Timestamp > m.timestamp {
		m.mu.RUnlock()
		return 0, fmt.Errorf("store: %w: backfill request timestamp %d is ahead of store timestamp %d", xerrors.ErrInvariant, req.Timestamp, m.timestamp)
	}
	if st := StateOf(m.coherent, m.backfilling); st != StateServing {
		m.mu.RUnlock()
		return 0, fmt.Errorf("store: %w: backfiller requires serving state, got %s", xerrors.ErrInvariant, st)
	}

	end := m.timestamp
	snapshot := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		snapshot[k] = cp
	}
	m.mu.RUnlock()

	const batchSize = 256
	batch := make(map[string][]byte, batchSize)
	for k, v := range snapshot {
		if interruptor != nil && interruptor.Pulsed() {
			return 0, xerrors.ErrInterrupted
		}
		batch[k] = v
		if len(batch) == batchSize {
			if err := chunkFn(BackfillChunk{Puts: batch}); err != nil {
				return 0, err
			}
			batch = make(map[string][]byte, batchSize)
		}
	}
	if len(batch) > 0 {
		if interruptor != nil && interruptor.Pulsed() {
			return 0, xerrors.ErrInterrupted
		}
		if err := chunkFn(BackfillChunk{Puts: batch}); err != nil {
			return 0, err
		}
	}

	return end, nil
}
