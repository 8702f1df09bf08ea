package log

// Logger writes leveled, structured entries. keysAndValues are alternating
// keys and values, e.g. "op", "sign_sag", "ring", 3.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	// Fatal logs and may terminate the process, depending on the backend.
	Fatal(msg string, keysAndValues ...any)

	// WithKV returns a logger that attaches key/value to every entry.
	WithKV(key string, value any) Logger
	// GetAllKV returns the pairs attached through WithKV.
	GetAllKV() []any
	// WithName returns a logger scoped to a component name.
	WithName(name string) Logger
	Name() string
	// AddCallerSkip skips extra frames when reporting the caller. Loggers
	// that do not report callers return themselves.
	AddCallerSkip(skip int) Logger
}

// Level is the severity of an entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// SpanEventRecorder receives log entries as span events.
type SpanEventRecorder interface {
	TraceID() string
	SpanID() string

	// RecordEvent adds an event carrying keysAndValues as attributes.
	RecordEvent(name string, keysAndValues ...any)
	// RecordError adds an event and marks the span as failed.
	RecordError(name string, keysAndValues ...any)
}
