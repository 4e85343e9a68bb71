// Package notify delivers build signals to the desktop, the log and connected browsers.
package notify

import "go.trai.ch/press/internal/core/ports"

var _ ports.Notifier = Multi(nil)

// Multi fans every signal out to each notifier in order.
type Multi []ports.Notifier

// NotifyError implements ports.Notifier.
func (m Multi) NotifyError(stage, message string) {
	for _, n := range m {
		n.NotifyError(stage, message)
	}
}

// NotifyReload implements ports.Notifier.
func (m Multi) NotifyReload() {
	for _, n := range m {
		n.NotifyReload()
	}
}
