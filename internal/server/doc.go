// Package server exposes the HTTP endpoints of the long-running watch mode:
// Prometheus metrics on /metrics and health probes on /healthz, /readyz and
// /healthz/detailed.
//
// Readiness follows the batches: the process becomes ready after the first
// batch completes and reports not ready while the most recent batch failed.
package server
