package store

import (
	"fmt"

	"github.com/dreamware/shardcore/internal/cache"
	"github.com/dreamware/shardcore/internal/interrupt"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
)

// BackfillRequest snapshots {region, timestamp} at backfillee_begin time.
// It names what the backfiller must reproduce.
type BackfillRequest struct {
	Region    region.Region
	Timestamp protocol.StateTimestamp
}

// BackfillChunk is an opaque delta emitted by a backfiller and applied by
// a backfillee. MemStore's chunks are whole-entry puts/deletes; other
// stores are free to define a denser wire format as long as it's
// serializable.
type BackfillChunk struct {
	Puts    map[string][]byte
	Deletes []string
}

// Store is a coherent replica of a region's keyspace. Implementations
// must satisfy the ordering guarantees of spec.md §4.4: per-key
// linearizability across replicas, same-origin issue-order preservation,
// and support for whatever atomic single-key operations the protocol
// defines. No cross-key or cross-origin ordering is promised.
type Store interface {
	// Region returns the region this store was constructed with. Immutable
	// for the store's lifetime.
	Region() region.Region

	// Coherent reports whether the store currently holds the authoritative
	// content for its region.
	Coherent() bool

	// Backfilling reports whether the store is currently receiving a
	// backfill.
	Backfilling() bool

	// Timestamp returns the store's current state timestamp.
	Timestamp() protocol.StateTimestamp

	// Read executes q against the store. Never mutates state.
	// Preconditions: q.Region() ⊆ Region(); Coherent() ∧ ¬Backfilling().
	// If interruptor is pulsed, Read must return or fail with
	// xerrors.ErrInterrupted within a bounded time.
	Read(q protocol.Read, otok protocol.OrderToken, c *cache.TemporaryCache, interruptor *interrupt.Signal) (protocol.ReadResponse, error)

	// Write applies w to the store, transitioning Timestamp() from
	// ts.Before to ts.After. Preconditions: w.Region() ⊆ Region();
	// Coherent() ∧ ¬Backfilling(); Timestamp() == ts.Before. The effect on
	// state is a deterministic function of (prior state, w, ts): two
	// stores in the same state, given the same (w, ts), reach
	// byte-identical states. On interruption the write may or may not
	// have committed, but the store is never left torn.
	Write(w protocol.Write, ts protocol.TransitionTimestamp, otok protocol.OrderToken, interruptor *interrupt.Signal) (protocol.WriteResponse, error)

	// BackfilleeBegin prepares the store to receive a backfill, flipping
	// Backfilling() true and Coherent() false, and returns the request the
	// backfiller needs. Precondition: ¬Backfilling().
	BackfilleeBegin() (BackfillRequest, error)

	// BackfilleeChunk applies one chunk of an in-progress backfill.
	// Precondition: Backfilling().
	BackfilleeChunk(chunk BackfillChunk) error

	// BackfilleeEnd completes a backfill successfully: Coherent() becomes
	// true, Timestamp() becomes ts, Backfilling() becomes false.
	// Precondition: Backfilling().
	BackfilleeEnd(ts protocol.StateTimestamp) error

	// BackfilleeCancel aborts an in-progress backfill: Coherent() stays
	// false, Backfilling() becomes false. Precondition: Backfilling().
	BackfilleeCancel() error

	// Backfiller streams this store's state at some consistent end
	// timestamp to chunkFn, for req.Region()/req.Timestamp() onward, and
	// returns that end timestamp. The store remains serving throughout;
	// writes after the snapshot point continue to apply without being
	// included. Preconditions: req.Region() == Region(); req.Timestamp()
	// <= Timestamp(); Coherent() ∧ ¬Backfilling(). Postcondition:
	// Timestamp() is unchanged by the call. On interruption, may return
	// incomplete; the caller must then cancel the backfillee.
	Backfiller(req BackfillRequest, chunkFn func(BackfillChunk) error, interruptor *interrupt.Signal) (protocol.StateTimestamp, error)
}

// State is the three legal combinations of (coherent, backfilling).
type State int

const (
	// StateServing: coherent and idle — reads and writes are allowed.
	StateServing State = iota
	// StateStale: not coherent and idle — must backfill before serving.
	StateStale
	// StateReceiving: not coherent and actively backfilling.
	StateReceiving
)

func (s State) String() string {
	switch s {
	case StateServing:
		return "serving"
	case StateStale:
		return "stale"
	case StateReceiving:
		return "receiving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateOf derives the State from a store's two flags. The forbidden
// (coherent ∧ backfilling) combination maps to StateStale, so it never
// counts as serving.
func StateOf(coherent, backfilling bool) State {
	switch {
	case coherent && !backfilling:
		return StateServing
	case !coherent && backfilling:
		return StateReceiving
	default:
		return StateStale
	}
}
