// Package extraction provides the client for the document extraction
// API and the result types consumed by the runner.
package extraction

import (
	"context"
	"fmt"
	"time"

	"github.com/lamim/extract-api-bench/internal/debug"
)

// ErrorKind categorizes an extraction failure.
type ErrorKind string

const (
	// KindNetwork covers transport failures: dial, TLS, timeout,
	// reading the input artifact or the response body.
	KindNetwork ErrorKind = "network"
	// KindHTTP covers non-2xx responses.
	KindHTTP ErrorKind = "http"
	// KindParse covers response bodies that fail to decode as JSON.
	KindParse ErrorKind = "parse"
)

// Error describes a failed extraction attempt. Status is set only for
// http kind errors.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Result is the outcome of one extraction call. Exactly one of Fields
// and Err is set. Latency covers the full request/response cycle and is
// recorded on success and failure alike.
type Result struct {
	CaseID  string
	Fields  map[string]string
	Err     *Error
	Latency time.Duration
}

// contextKey is a private type for context keys to avoid collisions
type contextKey int

const (
	// debugLoggerKey is the context key for the debug logger
	debugLoggerKey contextKey = iota
	// caseLogKey is the context key for the current case log
	caseLogKey
)

// WithDebugLogger returns a context with the debug logger attached
func WithDebugLogger(ctx context.Context, logger *debug.Logger) context.Context {
	return context.WithValue(ctx, debugLoggerKey, logger)
}

// DebugLoggerFromContext retrieves the debug logger from context
func DebugLoggerFromContext(ctx context.Context) *debug.Logger {
	if logger, ok := ctx.Value(debugLoggerKey).(*debug.Logger); ok {
		return logger
	}
	return nil
}

// WithCaseLog returns a context with the case log attached
func WithCaseLog(ctx context.Context, caseLog *debug.CaseLog) context.Context {
	return context.WithValue(ctx, caseLogKey, caseLog)
}

// CaseLogFromContext retrieves the case log from context
func CaseLogFromContext(ctx context.Context) *debug.CaseLog {
	if caseLog, ok := ctx.Value(caseLogKey).(*debug.CaseLog); ok {
		return caseLog
	}
	return nil
}
