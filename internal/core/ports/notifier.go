package ports

// Notifier delivers build signals to humans and connected browsers.
// Implementations swallow and log their own failures.
//
//go:generate mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks
type Notifier interface {
	// NotifyError reports that a transform stage failed.
	NotifyError(stage, message string)
	// NotifyReload asks connected browsers to reload.
	NotifyReload()
}
