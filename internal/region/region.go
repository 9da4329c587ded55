package region

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// Region is a half-open range [Lo, Hi) over the 32-bit hash ring, widened
// to uint64 so Hi can represent "one past the maximum hash value" (2^32)
// without overflow. Lo <= Hi always; there is no wraparound region,
// matching the non-wrapping shard ranges the teacher's key-space diagram
// assigns to each shard.
type Region struct {
	Lo uint64
	Hi uint64
}

// ringEnd is one past the maximum 32-bit hash value, so Full() is a true
// half-open range over every possible FNV-1a output.
const ringEnd uint64 = 1 << 32

// Full is the region covering the entire hash ring.
func Full() Region {
	return Region{Lo: 0, Hi: ringEnd}
}

// HashKey maps a key to its position on the hash ring using FNV-1a, the
// same hash the teacher's shard package uses for OwnsKey.
func HashKey(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

// Empty reports whether the region contains no keys.
func (r Region) Empty() bool {
	return r.Lo >= r.Hi
}

// Contains reports whether r is a superset of x: every key in x is also in
// r. An empty x is contained by any region, including the empty region.
func (r Region) Contains(x Region) bool {
	if x.Empty() {
		return true
	}
	if r.Empty() {
		return false
	}
	return r.Lo <= x.Lo && x.Hi <= r.Hi
}

// Overlaps reports whether r and x share at least one key.
func (r Region) Overlaps(x Region) bool {
	if r.Empty() || x.Empty() {
		return false
	}
	return r.Lo < x.Hi && x.Lo < r.Hi
}

// Intersection returns the region containing exactly the keys in both r
// and x. If the regions don't overlap, the result is empty.
func (r Region) Intersection(x Region) Region {
	if !r.Overlaps(x) {
		return Region{}
	}
	lo := r.Lo
	if x.Lo > lo {
		lo = x.Lo
	}
	hi := r.Hi
	if x.Hi < hi {
		hi = x.Hi
	}
	return Region{Lo: lo, Hi: hi}
}

// CoveredBy reports whether the union of xs is a superset of r: every key
// in r is in at least one member of xs. No union() operator is required
// by the algebra — only this predicate.
func (r Region) CoveredBy(xs []Region) bool {
	if r.Empty() {
		return true
	}
	// Collect the sub-intervals of r that are covered, then check they
	// merge into exactly [r.Lo, r.Hi) with no gaps.
	type interval struct{ lo, hi uint64 }
	var covered []interval
	for _, x := range xs {
		c := r.Intersection(x)
		if !c.Empty() {
			covered = append(covered, interval{c.Lo, c.Hi})
		}
	}
	if len(covered) == 0 {
		return false
	}
	// Sort by lo (insertion sort is fine; xs is small in practice).
	for i := 1; i < len(covered); i++ {
		for j := i; j > 0 && covered[j-1].lo > covered[j].lo; j-- {
			covered[j-1], covered[j] = covered[j], covered[j-1]
		}
	}
	frontier := r.Lo
	for _, c := range covered {
		if c.lo > frontier {
			return false
		}
		if c.hi > frontier {
			frontier = c.hi
		}
	}
	return frontier >= r.Hi
}

// Equal reports structural equality. Region already supports == directly
// since it has no hidden identity, but Equal is provided for readability
// and for use as a comparator in generic code.
func (r Region) Equal(x Region) bool {
	return r == x
}

// OwnsKey reports whether key's hash falls within the region.
func (r Region) OwnsKey(key string) bool {
	h := uint64(HashKey(key))
	return r.Lo <= h && h < r.Hi
}

// Split divides the region into n contiguous, pairwise non-overlapping
// sub-regions whose union equals r. Used by the rebalancer and by tests
// that need a disjoint cover. Returns fewer than n regions only if r is
// too small to split further. Every returned region has width at least 1;
// the last one absorbs any remainder.
func (r Region) Split(n int) []Region {
	if n <= 0 || r.Empty() {
		return nil
	}
	width := r.Hi - r.Lo
	step := width / uint64(n)
	if step == 0 {
		step = 1
	}
	out := make([]Region, 0, n)
	lo := r.Lo
	for i := 0; i < n; i++ {
		hi := lo + step
		if i == n-1 || hi > r.Hi {
			hi = r.Hi
		}
		if lo >= hi {
			lo = hi
			continue
		}
		out = append(out, Region{Lo: lo, Hi: hi})
		lo = hi
	}
	return out
}

func (r Region) String() string {
	return fmt.Sprintf("[0x%09x, 0x%09x)", r.Lo, r.Hi)
}

// MarshalBinary gives Region the stable, self-describing encoding required
// of every boundary value: a 16-byte big-endian pair (Lo, Hi).
func (r Region) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], r.Lo)
	binary.BigEndian.PutUint64(buf[8:16], r.Hi)
	return buf, nil
}

// UnmarshalBinary decodes a Region encoded by MarshalBinary.
func (r *Region) UnmarshalBinary(data []byte) error {
	if len(data) != 16 {
		return fmt.Errorf("region: invalid encoding length %d", len(data))
	}
	r.Lo = binary.BigEndian.Uint64(data[0:8])
	r.Hi = binary.BigEndian.Uint64(data[8:16])
	return nil
}
