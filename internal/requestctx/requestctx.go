// Package requestctx carries per-request values that lower layers need
// without importing the HTTP middleware.
package requestctx

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	localeKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey, locale)
}

// GetLocale returns the negotiated locale or "" when none was set.
func GetLocale(ctx context.Context) string {
	if value, ok := ctx.Value(localeKey).(string); ok {
		return value
	}
	return ""
}
