// Package log is the structured logger used across snapdemo.
//
// Components receive a Logger explicitly or pull one from a context with
// FromContext. Three implementations exist:
//
//   - ZapLogger writes console, logfmt or json lines through go.uber.org/zap.
//   - NoopLogger drops everything and is the fallback for a bare context.
//   - SpanLogger mirrors every entry onto an OpenTelemetry span as an event.
//
// Provider calls made by the session run inside a span, so
//
//	ctx = log.SetContextLogger(ctx, logger)
//	log.FromContext(ctx).Info("signing requested", "variant", "LSAG")
//
// both prints the line and records it on the active span.
//
// The zap backend is configured through LOG_FORMAT (console, logfmt, json),
// LOG_LEVEL (debug, info, warn, error, fatal) and LOG_OUTPUT (stderr, stdout
// or a file path).
package log
