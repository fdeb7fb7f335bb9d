package observability

import (
	"context"
	"time"
)

type SanitizerFunc func(key string, value any) any

// LogEntry represents a structured log entry.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`

	Component string `json:"component,omitempty"`
	Stack     string `json:"stack,omitempty"`
}

// StructuredLogger is the logging surface used while composing infrastructure.
//
// Messages are event names ("cdn.zone.resolved"); details travel as map fields.
type StructuredLogger interface {
	Debug(message string, fields ...map[string]any)
	Info(message string, fields ...map[string]any)
	Warn(message string, fields ...map[string]any)
	Error(message string, fields ...map[string]any)

	WithField(key string, value any) StructuredLogger
	WithFields(fields map[string]any) StructuredLogger

	// WithComponent scopes entries to a construct path such as "Site/Cdn".
	WithComponent(path string) StructuredLogger
	// WithStack scopes entries to a stack name.
	WithStack(name string) StructuredLogger

	Flush(ctx context.Context) error
	Close() error
}

// LoggerConfig configures logger implementations.
type LoggerConfig struct {
	Format       string `json:"format" yaml:"format"`
	Level        string `json:"level" yaml:"level"`
	EnableCaller bool   `json:"enable_caller" yaml:"enableCaller"`
	EnableStack  bool   `json:"enable_stack" yaml:"enableStack"`
}

func mergeFields(base map[string]any, sets ...map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}
