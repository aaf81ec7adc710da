package telemetry

import (
	"sort"

	"go.uber.org/zap"
)

// Sink receives observability events from the pipeline and the presentation
// commands. The real analytics backend is collaborator-owned; this package
// ships a structured-log implementation and a no-op.
type Sink interface {
	Track(event string, props map[string]any)
}

// Logger emits events as structured zap entries, each stamped with the
// caller's stable anonymous identifier.
type Logger struct {
	log        *zap.Logger
	distinctID string
}

// NewLogger wraps a zap logger as an event sink.
func NewLogger(log *zap.Logger, distinctID string) *Logger {
	return &Logger{log: log, distinctID: distinctID}
}

// Track records one event. Property keys are sorted so log output stays
// stable.
func (l *Logger) Track(event string, props map[string]any) {
	fields := make([]zap.Field, 0, len(props)+2)
	fields = append(fields,
		zap.String("event", event),
		zap.String("distinct_id", l.distinctID),
	)

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, props[k]))
	}

	l.log.Info("track", fields...)
}

// Nop discards all events. Used by tests and quiet runs.
type Nop struct{}

// Track implements Sink.
func (Nop) Track(string, map[string]any) {}
