package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Logger is a structured logger for remoteflow components
type Logger struct {
	*slog.Logger
}

// Options configures New.
type Options struct {
	Level  slog.Level
	Format string // "json" or "text"
	Output io.Writer
}

// New creates a structured logger tagged with component.
func New(component string, opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	logger := slog.New(handler).With(
		slog.String("component", component),
		slog.String("system", "remoteflow"),
	)
	return &Logger{Logger: logger}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil || l.Logger == nil {
		return Nop()
	}
	return l
}

// WithContext returns a logger carrying the trace and span IDs found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	return &Logger{
		Logger: l.Logger.With(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		),
	}
}

// WithSession returns a logger with session-specific fields
func (l *Logger) WithSession(sessionID, target string) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			slog.String("session_id", sessionID),
			slog.String("target", target),
		),
	}
}

// WithWorkflow returns a logger with the handle token attached
func (l *Logger) WithWorkflow(token string) *Logger {
	return &Logger{
		Logger: l.Logger.With(
			slog.String("workflow", token),
		),
	}
}

// SessionDialed logs a new session
func (l *Logger) SessionDialed(sessionID, target, transport string) {
	l.Info("session dialed",
		slog.String("session_id", sessionID),
		slog.String("target", target),
		slog.String("transport", transport),
	)
}

// SessionClosed logs session teardown
func (l *Logger) SessionClosed(sessionID string, err error) {
	attrs := []any{slog.String("session_id", sessionID)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.Info("session closed", attrs...)
}

// ChainSent logs a successful chain request
func (l *Logger) ChainSent(token, other, output, input string) {
	l.Debug("workflow chained",
		slog.String("workflow", token),
		slog.String("chained_with", other),
		slog.String("output_name", output),
		slog.String("input_name", input),
	)
}

// ChainFailed logs a failed chain request
func (l *Logger) ChainFailed(token, other string, err error) {
	l.Warn("workflow chain failed",
		slog.String("workflow", token),
		slog.String("chained_with", other),
		slog.String("error", err.Error()),
	)
}

// ReleaseSent logs a delete request the service acknowledged
func (l *Logger) ReleaseSent(token string) {
	l.Debug("workflow released",
		slog.String("workflow", token),
	)
}

// ReleaseSwallowed logs a teardown failure that was deliberately discarded
func (l *Logger) ReleaseSwallowed(token string, err error) {
	l.Debug("workflow release failed; ignored",
		slog.String("workflow", token),
		slog.String("error", err.Error()),
	)
}

// RPC logs a single remote call
func (l *Logger) RPC(method, code string, durationMS float64) {
	l.Debug("rpc",
		slog.String("method", method),
		slog.String("code", code),
		slog.Float64("duration_ms", durationMS),
	)
}
