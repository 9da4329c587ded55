package topology

import (
	"fmt"
	"log"
	"sync"

	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/store"
	"github.com/dreamware/shardcore/internal/xerrors"
)

// Prober checks whether a store is fit to serve. The default prober
// requires StateServing; callers that run stores out-of-process can
// supply one that round-trips a liveness RPC instead.
type Prober func(s store.Store) error

// DefaultProber rejects any store not in StateServing, the in-process
// equivalent of the teacher's HTTP /health check: a store mid-backfill or
// left stale by a cancelled backfill is not fit to receive traffic.
func DefaultProber(s store.Store) error {
	if st := store.StateOf(s.Coherent(), s.Backfilling()); st != store.StateServing {
		return fmt.Errorf("%w: store for region %v is %s, not serving", xerrors.ErrTransient, s.Region(), st)
	}
	return nil
}

type regionHealth struct {
	status           string // "healthy", "unhealthy", "unknown"
	consecutiveFails int
}

// HealthMonitor periodically probes a set of regions' stores and tracks
// which are healthy, generalizing coordinator.HealthMonitor's polling of
// node /health endpoints from node identity to region identity.
type HealthMonitor struct {
	mu          sync.RWMutex
	prober      Prober
	onUnhealthy func(region.Region)
	maxFailures int
	status      map[region.Region]*regionHealth
}

// NewHealthMonitor creates a monitor using prober, marking a region
// unhealthy after 3 consecutive failed probes (the teacher's default).
// A nil prober defaults to DefaultProber.
func NewHealthMonitor(prober Prober) *HealthMonitor {
	if prober == nil {
		prober = DefaultProber
	}
	return &HealthMonitor{
		prober:      prober,
		maxFailures: 3,
		status:      make(map[region.Region]*regionHealth),
	}
}

// SetOnUnhealthy sets the callback invoked, in its own goroutine, each
// time a region newly crosses the failure threshold (again after any
// recovery) — typically wired to
// trigger a rebalance.Rebalance call picking a new store for the region.
func (h *HealthMonitor) SetOnUnhealthy(callback func(region.Region)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onUnhealthy = callback
}

// Check probes r's store once and updates its tracked health.
func (h *HealthMonitor) Check(r region.Region, s store.Store) {
	err := h.prober(s)

	h.mu.Lock()
	defer h.mu.Unlock()

	rh, ok := h.status[r]
	if !ok {
		rh = &regionHealth{status: "unknown"}
		h.status[r] = rh
	}

	if err != nil {
		rh.consecutiveFails++
		log.Printf("topology: health probe failed for region %v (attempt %d/%d): %v", r, rh.consecutiveFails, h.maxFailures, err)
		if rh.consecutiveFails >= h.maxFailures {
			wasHealthy := rh.status != "unhealthy"
			rh.status = "unhealthy"
			if wasHealthy && h.onUnhealthy != nil {
				cb := h.onUnhealthy
				go cb(r)
			}
		}
		return
	}

	rh.status = "healthy"
	rh.consecutiveFails = 0
}

// IsHealthy reports whether r's store is currently believed healthy.
// An unprobed region reports false.
func (h *HealthMonitor) IsHealthy(r region.Region) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rh, ok := h.status[r]
	return ok && rh.status == "healthy"
}

// CheckAll probes every assigned region in t.
func (h *HealthMonitor) CheckAll(t *Table) {
	t.mu.RLock()
	entries := make([]assignment, len(t.entries))
	copy(entries, t.entries)
	t.mu.RUnlock()

	for _, e := range entries {
		h.Check(e.region, e.store)
	}
}
