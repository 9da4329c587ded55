package backfill

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dreamware/shardcore/internal/cache"
	"github.com/dreamware/shardcore/internal/interrupt"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/store"
	"github.com/dreamware/shardcore/internal/xerrors"
)

type fakePutResponse struct {
	protocol.WriteResponseBase
}

type fakePut struct {
	r     region.Region
	key   string
	value []byte
}

func (f fakePut) Region() region.Region { return f.r }
func (f fakePut) Shard(regions []region.Region) ([]protocol.Write, error) {
	return nil, nil
}
func (f fakePut) Unshard(responses []protocol.WriteResponse, c *cache.TemporaryCache) (protocol.WriteResponse, error) {
	return fakePutResponse{}, nil
}
func (f fakePut) ExecWrite(kv store.KV) (protocol.WriteResponse, error) {
	kv.Put(f.key, f.value)
	return fakePutResponse{}, nil
}

func seed(t *testing.T, s store.Store, n int) {
	t.Helper()
	otok := protocol.NewOrigin()
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%06d", i)
		ts := s.Timestamp().Next()
		if _, err := s.Write(fakePut{r: region.Full(), key: key, value: []byte{byte(i)}}, ts, otok, nil); err != nil {
			t.Fatalf("seed write %d: %v", i, err)
		}
	}
}

func TestRunConverges(t *testing.T) {
	src := store.NewMemStore(region.Full())
	seed(t, src, 10)

	dst := store.NewMemStore(region.Full())
	end, err := Run(dst, src, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if end != src.Timestamp() {
		t.Fatalf("expected converged timestamp %d, got %d", src.Timestamp(), end)
	}
	if !dst.Coherent() || dst.Backfilling() {
		t.Fatalf("expected destination to end up coherent and idle")
	}
}

// interruptAfterFirstChunk wraps a store.Store so its Backfiller pulses
// the shared interruptor immediately after the first chunk is delivered,
// modeling end-to-end scenario 6 from spec.md §8: "pulse interruptor
// after first chunk".
type interruptAfterFirstChunk struct {
	store.Store
	sig *interrupt.Signal
}

func (w interruptAfterFirstChunk) Backfiller(req store.BackfillRequest, chunkFn func(store.BackfillChunk) error, interruptor *interrupt.Signal) (protocol.StateTimestamp, error) {
	calls := 0
	wrapped := func(c store.BackfillChunk) error {
		calls++
		err := chunkFn(c)
		if calls == 1 {
			w.sig.Pulse()
		}
		return err
	}
	return w.Store.Backfiller(req, wrapped, interruptor)
}

func TestRunInterruptedLeavesBackfilleeStale(t *testing.T) {
	src := store.NewMemStore(region.Full())
	seed(t, src, 600) // several batches at the store's internal batch size

	sig := interrupt.New()
	wrapped := interruptAfterFirstChunk{Store: src, sig: sig}

	dst := store.NewMemStore(region.Full())
	_, err := Run(dst, wrapped, sig)
	if !errors.Is(err, xerrors.ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if dst.Coherent() || dst.Backfilling() {
		t.Fatalf("expected dst to be stale (¬coherent ∧ ¬backfilling) after interrupted backfill")
	}
	if src.Backfilling() {
		t.Fatalf("source must be unaffected by a cancelled backfill")
	}
}

func TestSessionResumeRetriesUntilSuccess(t *testing.T) {
	src := store.NewMemStore(region.Full())
	seed(t, src, 5)
	dst := store.NewMemStore(region.Full())

	attempts := 0
	sess := NewSession()
	sess.Backoff = 0
	end, err := sess.Resume(dst, func(attempt int) (store.Store, error) {
		attempts++
		if attempt < 2 {
			return nil, errors.New("peer unreachable")
		}
		return src, nil
	}, nil)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if end != src.Timestamp() {
		t.Fatalf("expected converged timestamp")
	}
}
