package logger

import (
	"sync"

	"github.com/theory-cloud/cdntheory/pkg/observability"
)

var (
	globalMu     sync.RWMutex
	globalLogger observability.StructuredLogger = observability.NewNoOpLogger()
)

// Logger returns the global structured logger singleton.
func Logger() observability.StructuredLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the global structured logger singleton.
//
// Passing nil resets the logger to a no-op implementation.
func SetLogger(next observability.StructuredLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if next == nil {
		globalLogger = observability.NewNoOpLogger()
		return
	}
	globalLogger = next
}

// For returns next scoped to component, falling back to the global logger when
// next is nil.
func For(next observability.StructuredLogger, component string) observability.StructuredLogger {
	if next == nil {
		next = Logger()
	}
	if component == "" {
		return next
	}
	return next.WithComponent(component)
}
