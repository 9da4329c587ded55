package rebalance

import (
	"fmt"

	"github.com/dreamware/shardcore/internal/cache"
	"github.com/dreamware/shardcore/internal/interrupt"
	"github.com/dreamware/shardcore/internal/kvprotocol"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/store"
	"github.com/dreamware/shardcore/internal/xerrors"
)

// Rebalance reshapes recyclees (stores covering some region R) into one
// store per element of goals (a new partition of the same R). Preconditions
// mirror spec.md §4.6: recyclee regions pairwise disjoint, goal regions
// pairwise disjoint, and the two covers denote the same region. Every
// input store is either reused as-is (when a goal matches its region
// exactly) or left to be garbage collected; every other output store is
// freshly populated from whichever recyclees overlap its goal region.
func Rebalance(recyclees []store.Store, goals []region.Region, interruptor *interrupt.Signal) ([]store.Store, error) {
	if err := checkPreconditions(recyclees, goals); err != nil {
		return nil, err
	}

	out := make([]store.Store, len(goals))
	for i, g := range goals {
		if interruptor != nil && interruptor.Pulsed() {
			return nil, xerrors.ErrInterrupted
		}

		if reused := findExact(recyclees, g); reused != nil {
			out[i] = reused
			continue
		}

		dst, err := populate(recyclees, g, interruptor)
		if err != nil {
			return nil, fmt.Errorf("rebalance: goal %v: %w", g, err)
		}
		out[i] = dst
	}
	return out, nil
}

func findExact(recyclees []store.Store, g region.Region) store.Store {
	for _, r := range recyclees {
		if r.Region().Equal(g) {
			return r
		}
	}
	return nil
}

// populate builds a fresh store owning g and copies in every key whose
// hash falls in g from every recyclee that overlaps it.
func populate(recyclees []store.Store, g region.Region, interruptor *interrupt.Signal) (store.Store, error) {
	dst := store.NewMemStore(g)
	if _, err := dst.BackfilleeBegin(); err != nil {
		return nil, err
	}

	for _, r := range recyclees {
		overlap := r.Region().Intersection(g)
		if overlap.Empty() {
			continue
		}

		resp, err := r.Read(kvprotocol.RangeScan{Span: overlap}, protocol.NewOrigin(), cache.New(), interruptor)
		if err != nil {
			_ = dst.BackfilleeCancel()
			return nil, err
		}
		rr, ok := resp.(kvprotocol.RangeResponse)
		if !ok {
			_ = dst.BackfilleeCancel()
			return nil, fmt.Errorf("%w: range scan returned unexpected response type", xerrors.ErrInvariant)
		}

		puts := make(map[string][]byte, len(rr.Entries))
		for _, e := range rr.Entries {
			puts[e.Key] = e.Value
		}
		if err := dst.BackfilleeChunk(store.BackfillChunk{Puts: puts}); err != nil {
			_ = dst.BackfilleeCancel()
			return nil, err
		}
	}

	if err := dst.BackfilleeEnd(0); err != nil {
		return nil, err
	}
	return dst, nil
}

func checkPreconditions(recyclees []store.Store, goals []region.Region) error {
	recycleeRegions := make([]region.Region, len(recyclees))
	for i, r := range recyclees {
		recycleeRegions[i] = r.Region()
	}
	if err := pairwiseDisjoint(recycleeRegions); err != nil {
		return fmt.Errorf("rebalance: recyclees: %w", err)
	}
	if err := pairwiseDisjoint(goals); err != nil {
		return fmt.Errorf("rebalance: goals: %w", err)
	}
	for _, r := range recycleeRegions {
		if !r.CoveredBy(goals) {
			return fmt.Errorf("rebalance: %w: recyclee region %v not covered by goals", xerrors.ErrInvariant, r)
		}
	}
	for _, g := range goals {
		if !g.CoveredBy(recycleeRegions) {
			return fmt.Errorf("rebalance: %w: goal region %v not covered by recyclees", xerrors.ErrInvariant, g)
		}
	}
	return nil
}

func pairwiseDisjoint(regions []region.Region) error {
	for i := 0; i < len(regions); i++ {
		for j := i + 1; j < len(regions); j++ {
			if regions[i].Overlaps(regions[j]) {
				return fmt.Errorf("%w: %v and %v overlap", xerrors.ErrInvariant, regions[i], regions[j])
			}
		}
	}
	return nil
}
