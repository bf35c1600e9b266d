// Package oauth implements the OAuth 2.0 Authorization Server facade the MCP
// server presents to its clients.
//
// hh.ru supports neither dynamic client registration nor arbitrary redirect
// URIs: one statically registered application with one fixed redirect URI.
// The facade bridges that gap: registration always hands out the single
// configured client id, the authorize endpoint proxies to hh.ru under the
// facade's own redirect URI while parking the caller's redirect URI and state
// behind a generated state key, the fixed callback resolves that key and
// forwards the upstream authorization code to the caller, and the token
// endpoint exchanges the code upstream with the fixed credentials, returning
// hh.ru's opaque tokens with only the issuer rewritten.
//
// Because all MCP clients share one upstream application identity, the only
// security boundary is the bearer token itself, validated live against the
// hh.ru /me endpoint on every request.
package oauth
