package region

import "testing"

// TestContains verifies the containment law: a.Contains(b) holds iff b is
// covered by [a].
func TestContains(t *testing.T) {
	tests := []struct {
		name string
		a    Region
		b    Region
		want bool
	}{
		{"full contains empty", Full(), Region{}, true},
		{"full contains sub-range", Full(), Region{Lo: 10, Hi: 20}, true},
		{"disjoint ranges", Region{Lo: 0, Hi: 10}, Region{Lo: 20, Hi: 30}, false},
		{"equal ranges", Region{Lo: 0, Hi: 10}, Region{Lo: 0, Hi: 10}, true},
		{"partial overlap is not containment", Region{Lo: 0, Hi: 10}, Region{Lo: 5, Hi: 15}, false},
		{"empty contains anything trivially false unless arg empty", Region{}, Region{Lo: 0, Hi: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Contains(tt.b)
			if got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
			if got != tt.b.CoveredBy([]Region{tt.a}) {
				t.Errorf("Contains/CoveredBy disagree: %v vs %v", got, tt.b.CoveredBy([]Region{tt.a}))
			}
		})
	}
}

// TestIntersectionCommutative checks a.Intersection(b) == b.Intersection(a).
func TestIntersectionCommutative(t *testing.T) {
	a := Region{Lo: 0, Hi: 20}
	b := Region{Lo: 10, Hi: 30}
	if a.Intersection(b) != b.Intersection(a) {
		t.Fatalf("intersection not commutative")
	}
}

// TestIntersectionOfDisjointIsEmpty checks the invariant from spec.md §3:
// intersection of two non-overlapping regions is empty, and the empty
// region is covered by the empty cover.
func TestIntersectionOfDisjointIsEmpty(t *testing.T) {
	a := Region{Lo: 0, Hi: 10}
	b := Region{Lo: 10, Hi: 20}
	got := a.Intersection(b)
	if !got.Empty() {
		t.Fatalf("expected empty intersection, got %v", got)
	}
	if !got.CoveredBy(nil) {
		t.Fatalf("expected empty region to be covered by no regions")
	}
}

// TestSelfCoverage checks a.CoveredBy([a]) for all a, including empty.
func TestSelfCoverage(t *testing.T) {
	for _, a := range []Region{Full(), {}, {Lo: 5, Hi: 9}} {
		if !a.CoveredBy([]Region{a}) {
			t.Errorf("%v not covered by itself", a)
		}
	}
}

// TestCoveredByGap checks that a gap in the cover is detected.
func TestCoveredByGap(t *testing.T) {
	r := Region{Lo: 0, Hi: 100}
	cover := []Region{{Lo: 0, Hi: 40}, {Lo: 60, Hi: 100}}
	if r.CoveredBy(cover) {
		t.Fatalf("expected gap [40,60) to break coverage")
	}
}

// TestCoveredByOverlappingExcess checks that an overlapping, over-covering
// set still satisfies CoveredBy (the predicate only requires superset,
// not a disjoint partition).
func TestCoveredByOverlappingExcess(t *testing.T) {
	r := Region{Lo: 10, Hi: 20}
	cover := []Region{{Lo: 0, Hi: 15}, {Lo: 12, Hi: 25}}
	if !r.CoveredBy(cover) {
		t.Fatalf("expected overlapping cover to satisfy CoveredBy")
	}
}

func TestSplitProducesDisjointCoveringRegions(t *testing.T) {
	full := Full()
	parts := full.Split(4)
	if len(parts) != 4 {
		t.Fatalf("expected 4 parts, got %d", len(parts))
	}
	for i := 0; i < len(parts); i++ {
		for j := i + 1; j < len(parts); j++ {
			if parts[i].Overlaps(parts[j]) {
				t.Errorf("parts %d and %d overlap: %v, %v", i, j, parts[i], parts[j])
			}
		}
	}
	if !full.CoveredBy(parts) {
		t.Errorf("split parts do not cover the full region")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	r := Region{Lo: 0x1000, Hi: 0x2000}
	data, err := r.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Region
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != r {
		t.Errorf("round trip mismatch: got %v, want %v", got, r)
	}
}

func TestOwnsKeyConsistentWithHash(t *testing.T) {
	key := "user:123"
	h := uint64(HashKey(key))
	r := Region{Lo: h, Hi: h + 1}
	if !r.OwnsKey(key) {
		t.Errorf("expected region containing the key's hash to own it")
	}
	other := Region{Lo: h + 1, Hi: h + 2}
	if other.OwnsKey(key) {
		t.Errorf("expected adjacent region to not own the key")
	}
}
