package loggercontext

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

type key string

const loggerKey key = "loggerKey"

// fallback is returned when no logger is on the context. The logging
// package registers its DefaultLogger here to avoid an import cycle.
var fallback *zap.SugaredLogger

func SetFallback(logger *zap.SugaredLogger) {
	fallback = logger
}

func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func Logger(ctx context.Context) *zap.SugaredLogger {
	value := ctx.Value(loggerKey)
	logger, ok := value.(*zap.SugaredLogger)
	if !ok {
		fmt.Fprintln(os.Stderr, "logger was not found in the context")
		return fallback
	}
	return logger
}
