package ports

import "time"

// Metrics records pipeline measurements.
type Metrics interface {
	// ObservePipeline records one pipeline run of class in mode.
	ObservePipeline(class, mode string, d time.Duration, err error)
	// ObserveStage records the duration of one stage invocation.
	ObserveStage(stage string, d time.Duration, err error)
	// IncImageCache counts an image cache lookup.
	IncImageCache(hit bool)
	// SetLiveReloadClients records the number of connected live-reload clients.
	SetLiveReloadClients(n int)
}
