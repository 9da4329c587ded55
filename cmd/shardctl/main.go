// Command shardctl is the coordinator demo binary: it accepts shardnode
// registrations, assigns each one a disjoint slice of the hash ring, and
// routes client data requests through internal/namespace to whichever
// remotestore.Client currently owns the requested key's region.
//
// Adapted from the teacher's cmd/coordinator/main.go: the same getenv
// configuration, node-registry mutex, round-robin auto-assignment on
// registration, and broadcast/health endpoints, generalized from
// shard-ID assignment to region assignment and from direct HTTP
// forwarding to dispatch through internal/namespace.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/exp/slices"

	"github.com/dreamware/shardcore/internal/cluster"
	"github.com/dreamware/shardcore/internal/kvprotocol"
	"github.com/dreamware/shardcore/internal/namespace"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/remotestore"
	"github.com/dreamware/shardcore/internal/topology"
)

func main() {
	addr := getenv("SHARDCTL_ADDR", ":8080")
	partitions := getenvInt("SHARDCTL_PARTITIONS", 4)
	srv := newServer(partitions)

	mux := http.NewServeMux()
	mux.HandleFunc("/register", srv.handleRegister)
	mux.HandleFunc("/nodes", srv.handleListNodes)
	mux.HandleFunc("/broadcast", srv.handleBroadcast)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/data/", srv.handleData)
	mux.HandleFunc("/partitions", srv.handlePartitions)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stopHealth := make(chan struct{})
	go srv.healthLoop(stopHealth)

	go func() {
		log.Printf("shardctl listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	close(stopHealth)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	log.Println("shardctl stopped")
}

type server struct {
	mu         sync.RWMutex
	nodes      []cluster.NodeInfo
	partitions []region.Region
	assigned   map[int]string // partition index -> node ID, for round-robin bookkeeping
	table      *topology.Table
	ns         *namespace.Namespace
	health     *topology.HealthMonitor
}

func newServer(numPartitions int) *server {
	table := topology.NewTable()
	hm := topology.NewHealthMonitor(nil)
	hm.SetOnUnhealthy(func(r region.Region) {
		log.Printf("shardctl: region %v reported unhealthy", r)
	})
	return &server{
		partitions: region.Full().Split(numPartitions),
		assigned:   make(map[int]string),
		table:      table,
		ns:         namespace.New(table),
		health:     hm,
	}
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req cluster.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Node.ID == "" || req.Node.Addr == "" {
		http.Error(w, "missing id/addr", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.nodes, func(n cluster.NodeInfo) bool { return n.ID == req.Node.ID })
	if idx >= 0 {
		s.nodes[idx] = req.Node
	} else {
		s.nodes = append(s.nodes, req.Node)
		s.autoAssignPartitions(req.Node)
	}
	w.WriteHeader(http.StatusNoContent)
}

// autoAssignPartitions gives the newly joined node the next unassigned
// partition, the region-keyed generalization of the teacher's round-robin
// shard-ID assignment.
func (s *server) autoAssignPartitions(node cluster.NodeInfo) {
	for i, p := range s.partitions {
		if _, taken := s.assigned[i]; taken {
			continue
		}
		s.assigned[i] = node.ID
		client := remotestore.NewClient(node.Addr, p)
		s.table.Assign(p, client)
		log.Printf("shardctl: assigned partition %v to node %s", p, node.ID)
		return
	}
	log.Printf("shardctl: no free partition for node %s", node.ID)
}

func (s *server) handleListNodes(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_ = json.NewEncoder(w).Encode(struct {
		Nodes []cluster.NodeInfo `json:"nodes"`
	}{Nodes: s.nodes})
}

func (s *server) handlePartitions(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_ = json.NewEncoder(w).Encode(struct {
		Partitions []region.Region `json:"partitions"`
		Assigned   map[int]string  `json:"assigned"`
	}{Partitions: s.partitions, Assigned: s.assigned})
}

func (s *server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req cluster.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Path == "" || req.Path[0] != '/' {
		http.Error(w, "path must start with '/'", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	targets := append([]cluster.NodeInfo(nil), s.nodes...)
	s.mu.RUnlock()

	type result struct {
		NodeID string `json:"node_id"`
		Err    string `json:"err,omitempty"`
	}
	out := make([]result, 0, len(targets))
	ctx, cancel := context.WithTimeout(r.Context(), 4*time.Second)
	defer cancel()
	for _, n := range targets {
		err := cluster.PostJSON(ctx, n.Addr+req.Path, req.Payload, nil)
		res := result{NodeID: n.ID}
		if err != nil {
			res.Err = err.Error()
		}
		out = append(out, res)
	}
	_ = json.NewEncoder(w).Encode(struct {
		SentTo  int      `json:"sent_to"`
		Results []result `json:"results"`
	}{SentTo: len(targets), Results: out})
}

// handleData routes GET/PUT/DELETE on /data/{key} through the namespace
// facade to whichever node's remotestore.Client owns the key's region.
func (s *server) handleData(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/data/")
	if key == "" {
		http.Error(w, "key required", http.StatusBadRequest)
		return
	}
	otok := protocol.NewOrigin()

	switch r.Method {
	case http.MethodGet:
		resp, err := s.ns.Read(kvprotocol.Get{Key: key}, otok, nil)
		if err != nil {
			writeDataError(w, err)
			return
		}
		got := resp.(kvprotocol.GetResponse)
		if !got.Found {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(got.Value)
	case http.MethodPut:
		defer r.Body.Close()
		value, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		if _, err := s.ns.Write(kvprotocol.Put{Key: key, Value: value}, otok, nil); err != nil {
			writeDataError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if _, err := s.ns.Write(kvprotocol.Delete{Key: key}, otok, nil); err != nil {
			writeDataError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeDataError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusServiceUnavailable)
}

// healthLoop periodically probes every assigned partition's store until
// stop is closed, driving the teacher's 10-second health-check cadence.
func (s *server) healthLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.health.CheckAll(s.table)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
