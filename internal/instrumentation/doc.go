// Package instrumentation provides OpenTelemetry-based metrics for the MCP
// server: HTTP traffic, OAuth flow outcomes, live token validations, hh.ru
// API calls and tool invocations.
//
// Metrics are exported either through the Prometheus exporter (scraped from
// a dedicated metrics port) or the stdout exporter for development. All
// recording methods are safe to call on a disabled provider; they become
// no-ops.
package instrumentation
