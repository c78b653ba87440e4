package services

import "context"

type contextKey string

const (
	serviceKey   contextKey = "service"
	accountIDKey contextKey = "account_id"
	contentIDKey contextKey = "content_id"
	workerKey    contextKey = "worker"
	requestIDKey contextKey = "request_id"
)

// WithService annotates context with the service key (youtube, ...).
func WithService(ctx context.Context, service string) context.Context {
	if service == "" {
		return ctx
	}
	return context.WithValue(ctx, serviceKey, service)
}

// ServiceFromContext returns the service key if present.
func ServiceFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, serviceKey)
}

// WithAccountID annotates context with the external account identifier.
func WithAccountID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, accountIDKey, id)
}

// AccountIDFromContext returns the account identifier if present.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, accountIDKey)
}

// WithContentID annotates context with the content identifier.
func WithContentID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, contentIDKey, id)
}

// ContentIDFromContext returns the content identifier if present.
func ContentIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, contentIDKey)
}

// WithWorker annotates context with the download worker index.
func WithWorker(ctx context.Context, worker int) context.Context {
	return context.WithValue(ctx, workerKey, worker)
}

// WorkerFromContext returns the download worker index if present.
func WorkerFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(workerKey).(int)
	return v, ok
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
