package namespace

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/dreamware/shardcore/internal/cache"
	"github.com/dreamware/shardcore/internal/interrupt"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/topology"
	"github.com/dreamware/shardcore/internal/xerrors"
)

// Namespace is the facade clients issue Read/Write to. It holds one
// temporary cache shared across every query it handles, per spec.md's
// note that the cache may be "per-call, or global" — Namespace chooses
// global, amortizing it across every unshard on this facade.
type Namespace struct {
	router topology.Router
	cache  *cache.TemporaryCache
}

// New builds a Namespace dispatching through router.
func New(router topology.Router) *Namespace {
	return &Namespace{router: router, cache: cache.New()}
}

// Read computes q's region, shards it across the routing layer's current
// partition, dispatches each piece, and unshards the responses.
func (n *Namespace) Read(q protocol.Read, otok protocol.OrderToken, interruptor *interrupt.Signal) (protocol.ReadResponse, error) {
	regions := n.router.RegionsFor(q.Region())
	subs, err := q.Shard(regions)
	if err != nil {
		return nil, fmt.Errorf("namespace: %w", err)
	}
	slices.SortFunc(subs, func(a, b protocol.Read) int {
		switch {
		case a.Region().Lo < b.Region().Lo:
			return -1
		case a.Region().Lo > b.Region().Lo:
			return 1
		default:
			return 0
		}
	})

	responses := make([]protocol.ReadResponse, len(subs))
	for i, sub := range subs {
		if interruptor != nil && interruptor.Pulsed() {
			return nil, xerrors.ErrInterrupted
		}
		target := n.router.StoreFor(sub.Region())
		if target == nil {
			return nil, fmt.Errorf("namespace: %w: no store assigned for region %v", xerrors.ErrInvariant, sub.Region())
		}
		resp, err := target.Read(sub, otok, n.cache, interruptor)
		if err != nil {
			return nil, err
		}
		responses[i] = resp
	}
	return q.Unshard(responses, n.cache)
}

// Write computes w's region, shards it, and dispatches each piece to its
// store with a fresh per-store TransitionTimestamp — a store's transition
// history is local to it, so the facade, not the caller, decides each
// sub-write's (before, after) pair from that store's own current
// timestamp.
func (n *Namespace) Write(w protocol.Write, otok protocol.OrderToken, interruptor *interrupt.Signal) (protocol.WriteResponse, error) {
	regions := n.router.RegionsFor(w.Region())
	subs, err := w.Shard(regions)
	if err != nil {
		return nil, fmt.Errorf("namespace: %w", err)
	}
	slices.SortFunc(subs, func(a, b protocol.Write) int {
		switch {
		case a.Region().Lo < b.Region().Lo:
			return -1
		case a.Region().Lo > b.Region().Lo:
			return 1
		default:
			return 0
		}
	})

	responses := make([]protocol.WriteResponse, len(subs))
	for i, sub := range subs {
		if interruptor != nil && interruptor.Pulsed() {
			return nil, xerrors.ErrInterrupted
		}
		target := n.router.StoreFor(sub.Region())
		if target == nil {
			return nil, fmt.Errorf("namespace: %w: no store assigned for region %v", xerrors.ErrInvariant, sub.Region())
		}
		ts := target.Timestamp().Next()
		resp, err := target.Write(sub, ts, otok, interruptor)
		if err != nil {
			return nil, err
		}
		responses[i] = resp
	}
	return w.Unshard(responses, n.cache)
}
