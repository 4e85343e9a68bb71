package notify

import (
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Notifier = (*Log)(nil)

// Log writes signals to the logger.
type Log struct {
	logger ports.Logger
}

// NewLog creates a Log notifier.
func NewLog(logger ports.Logger) *Log {
	return &Log{logger: logger}
}

// NotifyError implements ports.Notifier.
func (l *Log) NotifyError(stage, message string) {
	l.logger.Error(zerr.With(zerr.New(message), "stage", stage))
}

// NotifyReload implements ports.Notifier.
func (l *Log) NotifyReload() {
	l.logger.Info("reloading browsers")
}
