// Package remotestore is the HTTP/JSON RPC surface that lets a namespace
// facade dispatch to a store.Store living in another process, generalizing
// cmd/node/main.go's "/shard/{id}/store/{key}" handlers to the region-based
// store.Store contract: /store/read, /store/write, and the four
// /store/backfill/* steps. Client implements store.Store by marshaling
// requests with internal/cluster's PostJSON/GetJSON helpers; Handler
// implements the server side with the stdlib net/http mux the teacher
// already uses.
//
// The wire format only knows about internal/kvprotocol's query/response
// types today (Get, Put, Delete, RangeScan); a query implementing
// protocol.Read/Write from any other package fails to encode with
// xerrors.ErrInvariant. Extending the envelope to a new protocol package
// means adding a case to encodeQuery/decodeQuery, the same shape the
// teacher used for its own fixed GET/PUT/DELETE switch in
// handleShardRequest.
package remotestore
