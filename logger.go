package jsbind

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package's logger. Runtimes created afterwards use
// it unless RuntimeOptions.Logger overrides it.
// This must be called before any runtime is created.
func SetLogger(l *zap.Logger) {
	logger = l
}
