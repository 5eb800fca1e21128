package ctxzap

import (
	"context"

	"go.uber.org/zap"
)

type loggerKeyType int

const loggerKey loggerKeyType = 0

var nop = zap.NewNop().Sugar()

func ToContext(ctx context.Context, log *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// Extract returns the logger stored in ctx, or a no-op logger if there is none.
func Extract(ctx context.Context) *zap.SugaredLogger {
	if log, ok := ctx.Value(loggerKey).(*zap.SugaredLogger); ok {
		return log
	}

	return nop
}

// With attaches the key-value pairs to the context logger and stores the result back.
func With(ctx context.Context, args ...interface{}) context.Context {
	return ToContext(ctx, Extract(ctx).With(args...))
}
