// Package observability provides structured logging and metrics
// for the Unified Workspace API.
//
// This package implements:
//   - zap logger construction from configuration (json or console)
//   - Prometheus collectors for the authentication path
//   - The /metrics HTTP handler
package observability
