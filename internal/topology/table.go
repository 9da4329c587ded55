package topology

import (
	"sort"
	"sync"

	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/store"
)

// Router is the boundary a namespace facade depends on: given the region
// a query touches, which disjoint sub-regions currently have an assigned
// store, and which store owns each. Namespace never assumes Table is the
// only implementation — a cluster-aware router dispatching to
// remotestore.Client values satisfies the same interface.
type Router interface {
	// RegionsFor returns a pairwise disjoint cover of the portion of r
	// currently assigned to a store. It may be a strict subset of r if
	// part of r is unassigned.
	RegionsFor(r region.Region) []region.Region
	// StoreFor returns the store whose assigned region contains r, or nil
	// if no single assigned region contains r.
	StoreFor(r region.Region) store.Store
}

type assignment struct {
	region region.Region
	store  store.Store
}

// Table is a hash-range assignment table: regions are
// assigned to stores directly, with no notion of node identity above the
// store, generalizing coordinator.ShardRegistry's shardID→nodeID map to
// this repository's region→store placement.
type Table struct {
	mu      sync.RWMutex
	entries []assignment
}

// NewTable returns an empty routing table.
func NewTable() *Table {
	return &Table{}
}

// Assign records that s owns r, replacing any existing assignment whose
// region exactly equals r. Overlapping-but-unequal assignments are the
// caller's responsibility to avoid (Table does not itself enforce
// disjointness, mirroring the teacher's registry, which trusted its
// caller to pass a valid node list).
func (t *Table) Assign(r region.Region, s store.Store) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.entries {
		if e.region.Equal(r) {
			t.entries[i].store = s
			return
		}
	}
	t.entries = append(t.entries, assignment{region: r, store: s})
	sort.Slice(t.entries, func(i, j int) bool { return t.entries[i].region.Lo < t.entries[j].region.Lo })
}

// Unassign removes the assignment for r, if any.
func (t *Table) Unassign(r region.Region) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, e := range t.entries {
		if e.region.Equal(r) {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

func (t *Table) RegionsFor(r region.Region) []region.Region {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []region.Region
	for _, e := range t.entries {
		sub := r.Intersection(e.region)
		if !sub.Empty() {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lo < out[j].Lo })
	return out
}

func (t *Table) StoreFor(r region.Region) store.Store {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, e := range t.entries {
		if e.region.Contains(r) {
			return e.store
		}
	}
	return nil
}

// Stores returns every currently assigned store, in region order.
func (t *Table) Stores() []store.Store {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]store.Store, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.store
	}
	return out
}
