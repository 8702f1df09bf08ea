package log_test

import "github.com/alicesring/snapdemo/pkg/log"

var _ log.Logger = &recordingLogger{}

type entry struct {
	Level         log.Level
	Message       string
	KeysAndValues []any
}

// recordingLogger keeps the last entry and the caller skip it was given.
type recordingLogger struct {
	last       entry
	name       string
	kv         []any
	callerSkip int
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{name: "recorder"}
}

func (l *recordingLogger) Debug(msg string, kv ...any) { l.record(log.LevelDebug, msg, kv) }
func (l *recordingLogger) Info(msg string, kv ...any)  { l.record(log.LevelInfo, msg, kv) }
func (l *recordingLogger) Warn(msg string, kv ...any)  { l.record(log.LevelWarn, msg, kv) }
func (l *recordingLogger) Error(msg string, kv ...any) { l.record(log.LevelError, msg, kv) }
func (l *recordingLogger) Fatal(msg string, kv ...any) { l.record(log.LevelFatal, msg, kv) }

func (l *recordingLogger) WithKV(key string, value any) log.Logger {
	l.kv = append(l.kv, key, value)
	return l
}

func (l *recordingLogger) GetAllKV() []any { return l.kv }

func (l *recordingLogger) WithName(name string) log.Logger {
	l.name = name
	return l
}

func (l *recordingLogger) Name() string { return l.name }

func (l *recordingLogger) AddCallerSkip(skip int) log.Logger {
	l.callerSkip += skip
	return l
}

func (l *recordingLogger) record(level log.Level, msg string, kv []any) {
	l.last = entry{Level: level, Message: msg, KeysAndValues: append(append([]any{}, l.kv...), kv...)}
}

type recordingSpan struct {
	hasErr bool
	last   []any
}

func (r *recordingSpan) TraceID() string { return "trace-1" }
func (r *recordingSpan) SpanID() string  { return "span-1" }

func (r *recordingSpan) RecordEvent(name string, kv ...any) {
	r.last = append([]any{"msg", name}, kv...)
}

func (r *recordingSpan) RecordError(name string, kv ...any) {
	r.hasErr = true
	r.last = append([]any{"msg", name}, kv...)
}

func toMap(kv []any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}
