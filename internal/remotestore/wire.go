package remotestore

import (
	"fmt"

	"github.com/dreamware/shardcore/internal/kvprotocol"
	"github.com/dreamware/shardcore/internal/protocol"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/store"
	"github.com/dreamware/shardcore/internal/xerrors"
)

// queryEnvelope is the discriminated-union wire shape for a protocol.Read
// or protocol.Write: a "kind" tag plus the concrete kvprotocol fields that
// matter for that kind. Flattening every kvprotocol type into one struct
// keeps the envelope a single small JSON object instead of a tagged
// interface, the same flat-request-body shape cmd/node/main.go used for
// its PUT/GET/DELETE bodies.
type queryEnvelope struct {
	Kind  string        `json:"kind"`
	Key   string        `json:"key,omitempty"`
	Value []byte        `json:"value,omitempty"`
	Span  region.Region `json:"span,omitempty"`
}

func encodeQuery(q protocol.Read) (queryEnvelope, error) {
	switch v := q.(type) {
	case kvprotocol.Get:
		return queryEnvelope{Kind: "get", Key: v.Key}, nil
	case kvprotocol.RangeScan:
		return queryEnvelope{Kind: "range", Span: v.Span}, nil
	default:
		return queryEnvelope{}, fmt.Errorf("remotestore: %w: unsupported read query type %T", xerrors.ErrInvariant, q)
	}
}

func encodeWrite(w protocol.Write) (queryEnvelope, error) {
	switch v := w.(type) {
	case kvprotocol.Put:
		return queryEnvelope{Kind: "put", Key: v.Key, Value: v.Value}, nil
	case kvprotocol.Delete:
		return queryEnvelope{Kind: "delete", Key: v.Key}, nil
	default:
		return queryEnvelope{}, fmt.Errorf("remotestore: %w: unsupported write query type %T", xerrors.ErrInvariant, w)
	}
}

func decodeQuery(env queryEnvelope) (protocol.Read, error) {
	switch env.Kind {
	case "get":
		return kvprotocol.Get{Key: env.Key}, nil
	case "range":
		return kvprotocol.RangeScan{Span: env.Span}, nil
	default:
		return nil, fmt.Errorf("remotestore: %w: unknown read kind %q", xerrors.ErrInvariant, env.Kind)
	}
}

func decodeWrite(env queryEnvelope) (protocol.Write, error) {
	switch env.Kind {
	case "put":
		return kvprotocol.Put{Key: env.Key, Value: env.Value}, nil
	case "delete":
		return kvprotocol.Delete{Key: env.Key}, nil
	default:
		return nil, fmt.Errorf("remotestore: %w: unknown write kind %q", xerrors.ErrInvariant, env.Kind)
	}
}

// responseEnvelope carries a protocol.ReadResponse/WriteResponse back,
// keyed the same way as queryEnvelope so one shape covers both
// directions of the RPC.
type responseEnvelope struct {
	Kind    string          `json:"kind"`
	Value   []byte          `json:"value,omitempty"`
	Found   bool            `json:"found,omitempty"`
	Entries []store.KVEntry `json:"entries,omitempty"`
}

func encodeReadResponse(resp protocol.ReadResponse) (responseEnvelope, error) {
	switch v := resp.(type) {
	case kvprotocol.GetResponse:
		return responseEnvelope{Kind: "get", Value: v.Value, Found: v.Found}, nil
	case kvprotocol.RangeResponse:
		return responseEnvelope{Kind: "range", Entries: v.Entries}, nil
	default:
		return responseEnvelope{}, fmt.Errorf("remotestore: %w: unsupported read response type %T", xerrors.ErrInvariant, resp)
	}
}

func decodeReadResponse(env responseEnvelope) (protocol.ReadResponse, error) {
	switch env.Kind {
	case "get":
		return kvprotocol.GetResponse{Value: env.Value, Found: env.Found}, nil
	case "range":
		return kvprotocol.RangeResponse{Entries: env.Entries}, nil
	default:
		return nil, fmt.Errorf("remotestore: %w: unknown read response kind %q", xerrors.ErrInvariant, env.Kind)
	}
}

func encodeWriteResponse(resp protocol.WriteResponse) (responseEnvelope, error) {
	switch resp.(type) {
	case kvprotocol.PutResponse:
		return responseEnvelope{Kind: "put"}, nil
	case kvprotocol.DeleteResponse:
		return responseEnvelope{Kind: "delete"}, nil
	default:
		return responseEnvelope{}, fmt.Errorf("remotestore: %w: unsupported write response type %T", xerrors.ErrInvariant, resp)
	}
}

func decodeWriteResponse(env responseEnvelope) (protocol.WriteResponse, error) {
	switch env.Kind {
	case "put":
		return kvprotocol.PutResponse{}, nil
	case "delete":
		return kvprotocol.DeleteResponse{}, nil
	default:
		return nil, fmt.Errorf("remotestore: %w: unknown write response kind %q", xerrors.ErrInvariant, env.Kind)
	}
}
