// Debug logging helpers for the extraction client. Each helper is a
// no-op unless a logger and case log are attached to the context.

package extraction

import (
	"context"
	"net/http/httptrace"
	"time"

	"github.com/lamim/extract-api-bench/internal/debug"
)

// LogRequest records the extraction request via the debug logger if available in context.
func LogRequest(ctx context.Context, method, url string, headers map[string]string, inputFile string, bodySize int, timing *debug.TimingBreakdown) {
	caseLog := CaseLogFromContext(ctx)
	logger := DebugLoggerFromContext(ctx)
	if logger == nil || caseLog == nil {
		return
	}
	logger.LogRequest(caseLog, method, url, headers, inputFile, bodySize, timing)
}

// LogResponse records the extraction response via the debug logger if available in context.
func LogResponse(ctx context.Context, statusCode int, headers map[string]string, body string, duration time.Duration, timing *debug.TimingBreakdown) {
	caseLog := CaseLogFromContext(ctx)
	logger := DebugLoggerFromContext(ctx)
	if logger == nil || caseLog == nil {
		return
	}
	logger.LogResponse(caseLog, statusCode, headers, body, duration, timing)
}

// LogError records an error via the debug logger if available in context.
func LogError(ctx context.Context, message, kind, errContext string) {
	caseLog := CaseLogFromContext(ctx)
	logger := DebugLoggerFromContext(ctx)
	if logger == nil || caseLog == nil {
		return
	}
	logger.LogError(caseLog, message, kind, errContext)
}

// NewTraceContext creates an httptrace context for timing breakdown if debug is enabled.
// Returns the enhanced context, timing breakdown pointer, and a finalize function.
func NewTraceContext(ctx context.Context) (context.Context, *debug.TimingBreakdown, func()) {
	caseLog := CaseLogFromContext(ctx)
	logger := DebugLoggerFromContext(ctx)
	if logger == nil || caseLog == nil {
		return ctx, nil, func() {}
	}

	timing, finalize := logger.NewTraceContext(caseLog)
	trace := logger.GetTraceFromCase(caseLog)
	if trace != nil {
		return httptrace.WithClientTrace(ctx, trace), timing, finalize
	}
	return ctx, timing, finalize
}

// HeadersToMap converts http.Header to a map for logging.
func HeadersToMap(headers map[string][]string) map[string]string {
	if headers == nil {
		return nil
	}
	result := make(map[string]string, len(headers))
	for k, v := range headers {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
