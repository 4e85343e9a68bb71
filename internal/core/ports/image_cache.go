package ports

import "context"

// ImageCache stores optimized image bytes keyed by the hash of their source.
//
//go:generate mockgen -source=image_cache.go -destination=mocks/mock_image_cache.go -package=mocks
type ImageCache interface {
	// GetOrCompute returns the cached bytes for key, calling compute on a miss.
	// Concurrent calls for the same key share one compute call.
	GetOrCompute(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, bool, error)
	// Clear removes every cached entry.
	Clear() error
}
