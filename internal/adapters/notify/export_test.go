package notify

import "go.trai.ch/press/internal/core/ports"

// NewDesktopWithFunc creates a Desktop notifier with a stubbed notification call.
func NewDesktopWithFunc(logger ports.Logger, fn func(title, message string, icon any) error) *Desktop {
	return &Desktop{logger: logger, notify: fn}
}
