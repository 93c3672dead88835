// Package notifications pushes ticket run outcomes to an ntfy topic.
//
// NewService returns a no-op Service when no topic is configured, so callers
// publish unconditionally. Delivery failures are returned to the caller, which
// logs them as warnings; a failed push never fails a ticket run.
package notifications
