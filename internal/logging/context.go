package logging

import (
	"context"
	"log/slog"

	"archivist/internal/services"
)

// stringKeys maps context-carried identifiers to their log keys.
var stringKeys = []struct {
	key   string
	value func(context.Context) (string, bool)
}{
	{FieldService, services.ServiceFromContext},
	{FieldAccountID, services.AccountIDFromContext},
	{FieldContentID, services.ContentIDFromContext},
	{FieldCorrelationID, services.RequestIDFromContext},
}

// ContextFields returns the identifiers carried by ctx as attributes.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	var attrs []Attr
	for _, sk := range stringKeys {
		if v, ok := sk.value(ctx); ok {
			attrs = append(attrs, slog.String(sk.key, v))
		}
	}
	if worker, ok := services.WorkerFromContext(ctx); ok {
		attrs = append(attrs, slog.Int(FieldWorker, worker))
	}
	return attrs
}

// WithContext binds the identifiers in ctx to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if attrs := ContextFields(ctx); len(attrs) > 0 {
		return logger.With(toArgs(attrs)...)
	}
	return logger
}
