// Command shardnode runs one storage node: a single store.MemStore
// covering a region, served over HTTP via internal/remotestore, that
// registers itself with a shardctl coordinator so the coordinator's
// routing table can dispatch to it.
//
// Adapted from the teacher's cmd/node/main.go: the same getenv/
// mustGetenv configuration surface, registration-with-retry dance, and
// graceful-shutdown signal handling, generalized from a node owning a
// shard map keyed by int IDs to a node owning exactly one region.Region.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dreamware/shardcore/internal/cluster"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/remotestore"
	"github.com/dreamware/shardcore/internal/store"
)

var logFatal = log.Fatalf

func main() {
	nodeID := mustGetenv("NODE_ID")
	listen := getenv("NODE_LISTEN", ":8081")
	public := getenv("NODE_ADDR", "http://127.0.0.1:8081")
	coord := mustGetenv("COORDINATOR_ADDR")

	mem := store.NewMemStore(region.Full())
	handler := remotestore.NewHandler(mem)

	mux := handler.Routes()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("shardnode[%s] listening on %s (public %s)", nodeID, listen, public)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	register(ctx, coord, nodeID, public)
	cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	log.Printf("shardnode[%s] stopped", nodeID)
}

// register attempts to register with the coordinator, retrying a fixed
// number of times with a short backoff, the same pattern the teacher's
// node used for its own coordinator registration.
func register(ctx context.Context, coord, id, addr string) {
	body := cluster.RegisterRequest{Node: cluster.NodeInfo{ID: id, Addr: addr}}
	var lastErr error
	for i := 0; i < 5; i++ {
		lastErr = cluster.PostJSON(ctx, coord+"/register", body, nil)
		if lastErr == nil {
			log.Printf("registered with coordinator @ %s", coord)
			return
		}
		log.Printf("register retry %d: %v", i+1, lastErr)
		time.Sleep(500 * time.Millisecond)
	}
	logFatal("failed to register with coordinator: %v", lastErr)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustGetenv(k string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	logFatal("missing env %s", k)
	return ""
}
