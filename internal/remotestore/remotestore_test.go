package remotestore

import (
	"net/http/httptest"
	"testing"

	"github.com/dreamware/shardcore/internal/kvprotocol"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/store"
)

func newTestServer(t *testing.T, r region.Region) (*Client, func()) {
	t.Helper()
	mem := store.NewMemStore(r)
	h := NewHandler(mem)
	srv := httptest.NewServer(h.Routes())
	c := NewClient(srv.URL, r)
	return c, srv.Close
}

func TestClientPutThenGetRoundTrips(t *testing.T) {
	r := region.Full()
	c, closeFn := newTestServer(t, r)
	defer closeFn()

	otok := protocol.NewOrigin()
	ts := c.Timestamp().Next()
	if _, err := c.Write(kvprotocol.Put{Key: "hello", Value: []byte("world")}, ts, otok, nil); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp, err := c.Read(kvprotocol.Get{Key: "hello"}, otok, nil, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got, ok := resp.(kvprotocol.GetResponse)
	if !ok {
		t.Fatalf("unexpected response type %T", resp)
	}
	if !got.Found || string(got.Value) != "world" {
		t.Fatalf("expected to find %q, got %+v", "world", got)
	}
}

func TestClientStatusReflectsBackfillState(t *testing.T) {
	r := region.Full()
	c, closeFn := newTestServer(t, r)
	defer closeFn()

	if !c.Coherent() || c.Backfilling() {
		t.Fatalf("expected a fresh store to be coherent and not backfilling")
	}
}

func TestClientRangeScanReturnsSortedEntries(t *testing.T) {
	r := region.Full()
	c, closeFn := newTestServer(t, r)
	defer closeFn()

	otok := protocol.NewOrigin()
	for _, k := range []string{"c", "a", "b"} {
		ts := c.Timestamp().Next()
		if _, err := c.Write(kvprotocol.Put{Key: k, Value: []byte(k)}, ts, otok, nil); err != nil {
			t.Fatalf("write %q: %v", k, err)
		}
	}

	resp, err := c.Read(kvprotocol.RangeScan{Span: region.Full()}, otok, nil, nil)
	if err != nil {
		t.Fatalf("range scan: %v", err)
	}
	entries := resp.(kvprotocol.RangeResponse).Entries
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key >= entries[i].Key {
			t.Fatalf("expected sorted entries, got %v then %v", entries[i-1].Key, entries[i].Key)
		}
	}
}

func TestClientBackfillLifecycle(t *testing.T) {
	r := region.Full()
	c, closeFn := newTestServer(t, r)
	defer closeFn()

	req, err := c.BackfilleeBegin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if req.Region != r {
		t.Fatalf("expected request region %v, got %v", r, req.Region)
	}
	if !c.Backfilling() {
		t.Fatalf("expected store to report backfilling after begin")
	}

	if err := c.BackfilleeChunk(store.BackfillChunk{Puts: map[string][]byte{"k": []byte("v")}}); err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if err := c.BackfilleeEnd(1); err != nil {
		t.Fatalf("end: %v", err)
	}
	if !c.Coherent() || c.Backfilling() {
		t.Fatalf("expected store to be coherent and idle after end")
	}
}
