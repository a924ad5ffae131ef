// Package infrastructure provides the ambient runtime services of a report
// run: structured logging with per-run trace IDs, and OpenTelemetry spans and
// pipeline metrics exported through a private Prometheus registry.
package infrastructure
