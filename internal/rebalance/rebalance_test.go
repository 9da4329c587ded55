package rebalance

import (
	"errors"
	"testing"

	"github.com/dreamware/shardcore/internal/cache"
	"github.com/dreamware/shardcore/internal/kvprotocol"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/store"
	"github.com/dreamware/shardcore/internal/xerrors"
)

func put(t *testing.T, s store.Store, key, value string) {
	t.Helper()
	ts := s.Timestamp().Next()
	if _, err := s.Write(kvprotocol.Put{Key: key, Value: []byte(value)}, ts, protocol.NewOrigin(), nil); err != nil {
		t.Fatalf("write %q: %v", key, err)
	}
}

func get(t *testing.T, s store.Store, key string) (string, bool) {
	t.Helper()
	resp, err := s.Read(kvprotocol.Get{Key: key}, protocol.NewOrigin(), cache.New(), nil)
	if err != nil {
		t.Fatalf("read %q: %v", key, err)
	}
	g := resp.(kvprotocol.GetResponse)
	return string(g.Value), g.Found
}

func TestRebalanceSplitMovesKeysToTheRightGoal(t *testing.T) {
	full := region.Full()
	src := store.NewMemStore(full)
	put(t, src, "a", "1")
	put(t, src, "zzz", "2")

	halves := full.Split(2)
	out, err := Rebalance([]store.Store{src}, halves, nil)
	if err != nil {
		t.Fatalf("Rebalance: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 output stores, got %d", len(out))
	}

	for _, key := range []string{"a", "zzz"} {
		want, _ := get(t, src, key)
		var found bool
		var got string
		for _, s := range out {
			if s.Region().OwnsKey(key) {
				got, found = get(t, s, key)
			}
		}
		if !found {
			t.Errorf("key %q missing from every rebalanced store", key)
		}
		if got != want {
			t.Errorf("key %q: got %q, want %q", key, got, want)
		}
	}
}

func TestRebalanceExactMatchReusesStore(t *testing.T) {
	h := uint64(region.HashKey("k"))
	r := region.Region{Lo: h, Hi: h + 1}
	src := store.NewMemStore(r)
	put(t, src, "k", "v")

	out, err := Rebalance([]store.Store{src}, []region.Region{r}, nil)
	if err != nil {
		t.Fatalf("Rebalance: %v", err)
	}
	if out[0] != src {
		t.Fatalf("expected exact-match goal to reuse the original store")
	}
}

// putOnOwner writes key to whichever store in stores owns its hash,
// since a key's half-ring owner depends on FNV-1a and isn't chosen by the
// test.
func putOnOwner(t *testing.T, stores []store.Store, key, value string) {
	t.Helper()
	for _, s := range stores {
		if s.Region().OwnsKey(key) {
			put(t, s, key, value)
			return
		}
	}
	t.Fatalf("no store owns key %q", key)
}

func TestRebalanceMergeCombinesTwoStores(t *testing.T) {
	full := region.Full()
	halves := full.Split(2)
	a := store.NewMemStore(halves[0])
	b := store.NewMemStore(halves[1])
	putOnOwner(t, []store.Store{a, b}, "left-key", "L")

	out, err := Rebalance([]store.Store{a, b}, []region.Region{full}, nil)
	if err != nil {
		t.Fatalf("Rebalance: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected a single merged store, got %d", len(out))
	}
	if v, ok := get(t, out[0], "left-key"); !ok || v != "L" {
		t.Errorf("expected merged store to carry left-key=L, got (%q, %v)", v, ok)
	}
}

func TestRebalanceRejectsOverlappingGoals(t *testing.T) {
	src := store.NewMemStore(region.Full())
	_, err := Rebalance([]store.Store{src}, []region.Region{{Lo: 0, Hi: 10}, {Lo: 5, Hi: 20}}, nil)
	if !errors.Is(err, xerrors.ErrInvariant) {
		t.Fatalf("expected ErrInvariant for overlapping goals, got %v", err)
	}
}

func TestRebalanceRejectsMismatchedCoverage(t *testing.T) {
	src := store.NewMemStore(region.Region{Lo: 0, Hi: 100})
	_, err := Rebalance([]store.Store{src}, []region.Region{{Lo: 0, Hi: 50}}, nil)
	if !errors.Is(err, xerrors.ErrInvariant) {
		t.Fatalf("expected ErrInvariant for goals that don't cover the recyclees, got %v", err)
	}
}
