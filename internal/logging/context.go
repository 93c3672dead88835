package logging

import (
	"context"
	"log/slog"

	"ticketsmith/internal/services"
)

// Structured log keys shared by every component.
const (
	FieldComponent     = "component"
	FieldRunID         = "run_id"
	FieldStage         = "stage"
	FieldCorrelationID = "correlation_id"
	FieldIssueKey      = "issue_key"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields converts the run id, stage and request id carried by ctx into
// log attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	lookups := []struct {
		key string
		get func(context.Context) (string, bool)
	}{
		{FieldRunID, services.RunIDFromContext},
		{FieldStage, services.StageFromContext},
		{FieldCorrelationID, services.RequestIDFromContext},
	}
	var fields []slog.Attr
	for _, lookup := range lookups {
		if value, ok := lookup.get(ctx); ok {
			fields = append(fields, slog.String(lookup.key, value))
		}
	}
	return fields
}

// WithContext adds the ContextFields of ctx to logger. A nil logger becomes
// a no-op logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(Args(fields...)...)
	}
	return logger
}
