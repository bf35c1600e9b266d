// Package batch handles tool parameters that accept one id or a list of
// ids, and aggregates per-id outcomes so bulk tool calls report partial
// failures instead of aborting on the first one.
package batch
