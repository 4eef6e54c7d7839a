// Package log carries a *zap.Logger through a context.Context so library
// code can log without globals.
package log

import (
	"context"

	"go.uber.org/zap"
)

type logCtxKey struct{}

// IntoContext attaches the logger to the context.
func IntoContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, logCtxKey{}, logger)
}

// FromContext returns the logger attached to the context, falling back to
// the global logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(logCtxKey{}).(*zap.Logger); ok {
		return logger
	}
	return zap.L()
}
