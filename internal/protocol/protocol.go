package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dreamware/shardcore/internal/cache"
	"github.com/dreamware/shardcore/internal/region"
	"github.com/dreamware/shardcore/internal/xerrors"
)

// ReadResponse is a serializable value type; the core imposes no further
// structure on it. Protocols refine.
type ReadResponse interface {
	isReadResponse()
}

// WriteResponse is a serializable value type; the core imposes no further
// structure on it.
type WriteResponse interface {
	isWriteResponse()
}

// ReadResponseBase marks a type as a protocol.ReadResponse. Concrete
// response types outside this package embed it, since isReadResponse
// must be declared here to satisfy the interface's unexported method.
type ReadResponseBase struct{}

func (ReadResponseBase) isReadResponse() {}

// WriteResponseBase marks a type as a protocol.WriteResponse. Concrete
// response types outside this package embed it, since isWriteResponse
// must be declared here to satisfy the interface's unexported method.
type WriteResponseBase struct{}

func (WriteResponseBase) isWriteResponse() {}

// Read is an opaque, serializable query associated with a Region. A read
// depends on all keys in that region.
type Read interface {
	// Region reports which keys this read depends on.
	Region() region.Region

	// Shard breaks the read into sub-reads over regions. regions must be a
	// pairwise non-overlapping cover of Region(); each sub-read's Region()
	// is a subset of one element of regions. The result is not positional:
	// an implementation may leave out elements of regions that hold none of
	// the read's keys (kvprotocol's queries do), so the result can be
	// shorter than regions and result[i] need not belong to regions[i].
	Shard(regions []region.Region) ([]Read, error)

	// Unshard recombines the responses to a shard() call, in the same
	// order, into the response a single store covering Region() would
	// have produced. Pure modulo the temporary cache.
	Unshard(responses []ReadResponse, c *cache.TemporaryCache) (ReadResponse, error)
}

// Write is an opaque, serializable query associated with a Region. A
// write depends on and may modify keys in that region.
type Write interface {
	Region() region.Region
	Shard(regions []region.Region) ([]Write, error)
	Unshard(responses []WriteResponse, c *cache.TemporaryCache) (WriteResponse, error)
}

// CheckShardPreconditions validates the shard() precondition shared by
// every protocol: regions must be pairwise non-overlapping and their
// union must cover r. Concrete Read/Write implementations call this
// before doing any protocol-specific decomposition so a caller that
// violates the contract gets ErrInvariant instead of silently wrong
// output.
func CheckShardPreconditions(r region.Region, regions []region.Region) error {
	if !r.CoveredBy(regions) {
		return fmt.Errorf("protocol: %w: regions do not cover %v", xerrors.ErrInvariant, r)
	}
	for i := 0; i < len(regions); i++ {
		for j := i + 1; j < len(regions); j++ {
			if regions[i].Overlaps(regions[j]) {
				return fmt.Errorf("protocol: %w: regions %v and %v overlap", xerrors.ErrInvariant, regions[i], regions[j])
			}
		}
	}
	return nil
}

// StateTimestamp names a point in a store's write history: the state
// after some number of writes have been applied.
type StateTimestamp int64

// TransitionTimestamp names the (before, after) pair of a single write.
// Successive writes chain: the After of one write equals the Before of
// the next.
type TransitionTimestamp struct {
	Before StateTimestamp
	After  StateTimestamp
}

// Next builds the TransitionTimestamp for the write that follows ts.
func (ts StateTimestamp) Next() TransitionTimestamp {
	return TransitionTimestamp{Before: ts, After: ts + 1}
}

// OrderToken identifies the origin (client/thread) of an operation so
// that queries from the same origin are applied in issue order. It
// carries no meaning beyond equality — two tokens from the same origin
// must compare equal, and tokens from different origins are assumed to be
// reliably distinct.
type OrderToken struct {
	id uuid.UUID
}

// NewOrigin allocates a fresh OrderToken representing a new origin. A
// client or thread should allocate one token and reuse it for every
// operation it issues, not mint a new one per call.
func NewOrigin() OrderToken {
	return OrderToken{id: uuid.Must(uuid.NewV7())}
}

func (t OrderToken) String() string {
	return t.id.String()
}

// Equal reports whether two tokens represent the same origin.
func (t OrderToken) Equal(o OrderToken) bool {
	return t.id == o.id
}

// MarshalJSON lets an OrderToken cross the remotestore RPC boundary
// despite its id field being unexported.
func (t OrderToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.id)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (t *OrderToken) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &t.id)
}
