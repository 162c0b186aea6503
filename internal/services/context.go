package services

import "context"

type contextKey string

const (
	sceneKey     contextKey = "scene"
	batchKey     contextKey = "batch"
	requestIDKey contextKey = "request_id"
)

// WithScene annotates context with the scene number being processed.
func WithScene(ctx context.Context, number int) context.Context {
	return context.WithValue(ctx, sceneKey, number)
}

// SceneFromContext extracts the scene number if present.
func SceneFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(sceneKey).(int); ok {
		return v, true
	}
	return 0, false
}

// WithBatch annotates context with the batch number being processed.
func WithBatch(ctx context.Context, number int) context.Context {
	return context.WithValue(ctx, batchKey, number)
}

// BatchFromContext extracts the batch number if present.
func BatchFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(batchKey).(int); ok {
		return v, true
	}
	return 0, false
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
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
