// Package server hosts the MCP transport layer: the session registry, the
// streamable HTTP transport (JSON-RPC over POST, server push over GET,
// teardown over DELETE), health probes, the dedicated metrics listener and
// the wiring that puts the OAuth facade in front of it all.
package server
