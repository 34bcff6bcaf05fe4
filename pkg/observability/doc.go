// Package observability provides structured logging, Prometheus metrics,
// health checks and graceful shutdown for the dues service.
//
// Logging is structured JSON over stdlib slog. Metrics cover the HTTP
// surface plus the billing reconciler (passes, invoices issued, reminders
// sent and failed). The health checker probes the database and, when
// configured, the redis instance backing the distributed pass lock.
package observability
