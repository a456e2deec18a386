package logger

import (
	"go.uber.org/fx/fxevent"
)

// GetFxLogger routes fx lifecycle events through our zap core
func (l *Logger) GetFxLogger() fxevent.Logger {
	return &fxevent.ZapLogger{Logger: l.Desugar()}
}
