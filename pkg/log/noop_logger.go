package log

var _ Logger = NoopLogger{}

// NoopLogger discards every entry.
type NoopLogger struct{}

// NewNoopLogger returns a Logger that drops everything.
func NewNoopLogger() Logger { return NoopLogger{} }

// Debug does nothing.
func (NoopLogger) Debug(string, ...any) {}

// Info does nothing.
func (NoopLogger) Info(string, ...any) {}

// Warn does nothing.
func (NoopLogger) Warn(string, ...any) {}

// Error does nothing.
func (NoopLogger) Error(string, ...any) {}

// Fatal does nothing. Unlike ZapLogger it does not exit.
func (NoopLogger) Fatal(string, ...any) {}

// WithKV returns the same NoopLogger.
func (n NoopLogger) WithKV(string, any) Logger { return n }

// GetAllKV always returns nil.
func (NoopLogger) GetAllKV() []any { return nil }

// WithName returns the same NoopLogger.
func (n NoopLogger) WithName(string) Logger { return n }

// Name always returns "noop".
func (NoopLogger) Name() string { return "noop" }

// AddCallerSkip returns the same NoopLogger.
func (n NoopLogger) AddCallerSkip(int) Logger { return n }
