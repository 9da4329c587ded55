package remotestore

import (
	"context"
	"fmt"

	"github.com/dreamware/shardcore/internal/cache"
	"github.com/dreamware/shardcore/internal/cluster"
	"github.com/dreamware/shardcore/internal/interrupt"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/store"
)

// Client implements store.Store against a cmd/shardnode HTTP endpoint,
// the remote analogue of store.MemStore, generalizing cmd/node/main.go's
// handleShardRequest client side into a type satisfying the same
// interface as a local store.
type Client struct {
	baseURL string
	region  region.Region
}

// NewClient returns a Client dispatching to baseURL for region r. baseURL
// must not have a trailing slash.
func NewClient(baseURL string, r region.Region) *Client {
	return &Client{baseURL: baseURL, region: r}
}

func (c *Client) Region() region.Region { return c.region }

type statusResponse struct {
	Coherent    bool                    `json:"coherent"`
	Backfilling bool                    `json:"backfilling"`
	Timestamp   protocol.StateTimestamp `json:"timestamp"`
}

func (c *Client) status() (statusResponse, error) {
	var out statusResponse
	err := cluster.GetJSON(context.Background(), c.baseURL+"/store/status", &out)
	return out, err
}

func (c *Client) Coherent() bool {
	st, err := c.status()
	return err == nil && st.Coherent
}

func (c *Client) Backfilling() bool {
	st, err := c.status()
	return err == nil && st.Backfilling
}

func (c *Client) Timestamp() protocol.StateTimestamp {
	st, _ := c.status()
	return st.Timestamp
}

type readRequest struct {
	Query queryEnvelope     `json:"query"`
	Otok  protocol.OrderToken `json:"otok"`
}

type readResult struct {
	Response responseEnvelope `json:"response"`
}

func (c *Client) Read(q protocol.Read, otok protocol.OrderToken, _ *cache.TemporaryCache, interruptor *interrupt.Signal) (protocol.ReadResponse, error) {
	env, err := encodeQuery(q)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if interruptor != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-interruptor.Done():
				cancel()
			case <-ctx.Done():
			}
		}()
	}
	var out readResult
	if err := cluster.PostJSON(ctx, c.baseURL+"/store/read", readRequest{Query: env, Otok: otok}, &out); err != nil {
		return nil, fmt.Errorf("remotestore: read: %w", err)
	}
	return decodeReadResponse(out.Response)
}

type writeRequest struct {
	Query queryEnvelope               `json:"query"`
	TS    protocol.TransitionTimestamp `json:"ts"`
	Otok  protocol.OrderToken         `json:"otok"`
}

type writeResult struct {
	Response responseEnvelope `json:"response"`
}

func (c *Client) Write(w protocol.Write, ts protocol.TransitionTimestamp, otok protocol.OrderToken, interruptor *interrupt.Signal) (protocol.WriteResponse, error) {
	env, err := encodeWrite(w)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if interruptor != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-interruptor.Done():
				cancel()
			case <-ctx.Done():
			}
		}()
	}
	var out writeResult
	if err := cluster.PostJSON(ctx, c.baseURL+"/store/write", writeRequest{Query: env, TS: ts, Otok: otok}, &out); err != nil {
		return nil, fmt.Errorf("remotestore: write: %w", err)
	}
	return decodeWriteResponse(out.Response)
}

func (c *Client) BackfilleeBegin() (store.BackfillRequest, error) {
	var out store.BackfillRequest
	err := cluster.PostJSON(context.Background(), c.baseURL+"/store/backfill/begin", nil, &out)
	return out, err
}

func (c *Client) BackfilleeChunk(chunk store.BackfillChunk) error {
	return cluster.PostJSON(context.Background(), c.baseURL+"/store/backfill/chunk", chunk, nil)
}

func (c *Client) BackfilleeEnd(ts protocol.StateTimestamp) error {
	return cluster.PostJSON(context.Background(), c.baseURL+"/store/backfill/end", map[string]protocol.StateTimestamp{"timestamp": ts}, nil)
}

func (c *Client) BackfilleeCancel() error {
	return cluster.PostJSON(context.Background(), c.baseURL+"/store/backfill/cancel", nil, nil)
}

// Backfiller is not exposed remotely: over this client a remote store can
// only act as a backfillee, never be streamed from directly by another
// process. Present to satisfy store.Store; always fails.
func (c *Client) Backfiller(req store.BackfillRequest, chunkFn func(store.BackfillChunk) error, interruptor *interrupt.Signal) (protocol.StateTimestamp, error) {
	return 0, fmt.Errorf("remotestore: Client does not support serving as a backfiller; use the local store directly")
}
