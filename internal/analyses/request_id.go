package analyses

import "context"

type requestIDKey struct{}

// WithRequestID tags ctx with the id of the HTTP request or queue message
// that started the work. Empty ids leave ctx unchanged.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// detached keeps ctx's values but not its cancellation, for work that must
// outlive the request that queued it.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
