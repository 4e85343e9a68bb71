package notify

import (
	"github.com/gen2brain/beeep"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Notifier = (*Desktop)(nil)

// Desktop shows build failures as desktop notifications.
type Desktop struct {
	logger ports.Logger
	notify func(title, message string, icon any) error
}

// NewDesktop creates a Desktop notifier.
func NewDesktop(logger ports.Logger) *Desktop {
	beeep.AppName = "press"
	return &Desktop{logger: logger, notify: beeep.Notify}
}

// NotifyError implements ports.Notifier. Failures are logged as warnings.
func (d *Desktop) NotifyError(stage, message string) {
	if err := d.notify(stage, message, ""); err != nil {
		d.logger.Warn(zerr.Wrap(err, "desktop notification failed").Error())
	}
}

// NotifyReload implements ports.Notifier. Reloads are not shown on the desktop.
func (d *Desktop) NotifyReload() {}
