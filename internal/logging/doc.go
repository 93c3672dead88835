// Package logging assembles structured slog loggers used across ticketsmith.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so workflow stages tag log lines
// with run IDs and stage names. Every record can also be published to a
// StreamHub, which the HTTP server relays to clients as server-sent events.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// records with the same shape as the rest of the system.
package logging
