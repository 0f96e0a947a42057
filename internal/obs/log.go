package obs

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logMu  sync.Mutex
	logger = zap.NewNop()
)

// InitLogger builds the process-wide logger. Development mode switches to the
// human-readable console encoder.
func InitLogger(service string, development bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	l = l.With(zap.String("service", service))

	logMu.Lock()
	logger = l
	logMu.Unlock()
	return nil
}

// L returns the shared logger. Safe to call before InitLogger; it returns a
// no-op logger until initialization.
func L() *zap.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	return logger
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	_ = L().Sync()
}
