//go:build debug

package pool

import "go.uber.org/zap"

// defaultLogger logs pool lifecycle events to stderr when built with -tags debug.
func defaultLogger() *zap.Logger {
	l, err := zap.NewDevelopment(zap.AddCaller())
	if err != nil {
		return zap.NewNop()
	}
	return l.Named("lazypool")
}
