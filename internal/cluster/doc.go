// Package cluster provides the wire helpers shared by cmd/shardnode and
// cmd/shardctl for node registration and inter-process JSON RPC:
// NodeInfo names a node by ID and address, and PostJSON/GetJSON wrap
// net/http with a shared timeout and status-code check. This is the same
// transport internal/remotestore builds its request/response envelopes
// on top of.
//
// See internal/topology for region-to-store assignment and
// internal/remotestore for the store.Store RPC surface itself; this
// package only carries the registration handshake and generic JSON
// round trip both of those build on.
package cluster
