// Package trace attaches per-request trace IDs and loggers to contexts.
package trace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/qiniu/x/xlog"
)

// TraceID identifies one request through the logs.
type TraceID string

const TracePrefix = "commitmcp"

// NewTraceID creates a unique trace ID for the given protocol method.
func NewTraceID(method string) TraceID {
	// Method names like tools/call become tools_call in the ID.
	method = strings.ReplaceAll(method, "/", "_")
	return TraceID(fmt.Sprintf("%s_%s_%s", TracePrefix, method, uuid.NewString()))
}

type contextKey string

const traceLoggerKey contextKey = "trace_logger"

// NewContext returns a context carrying a logger bound to the trace ID.
func NewContext(ctx context.Context, traceID TraceID) context.Context {
	logger := xlog.New(string(traceID))
	return context.WithValue(ctx, traceLoggerKey, logger)
}

// FromContext returns the trace logger stored in the context, or a fresh
// one when the context carries none.
func FromContext(ctx context.Context) *xlog.Logger {
	if logger, ok := ctx.Value(traceLoggerKey).(*xlog.Logger); ok {
		return logger
	}
	return xlog.NewWith(ctx)
}
