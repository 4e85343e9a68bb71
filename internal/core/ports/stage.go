package ports

import (
	"context"

	"go.trai.ch/press/internal/core/domain"
)

// Stage wraps one tool invocation as a transform of a single asset.
//
//go:generate mockgen -source=stage.go -destination=mocks/mock_stage.go -package=mocks
type Stage interface {
	// Name returns the stage name used in errors, spans and metrics.
	Name() string
	// Apply transforms the asset. Failures are returned as *domain.ToolError.
	Apply(ctx context.Context, asset *domain.Asset) (*domain.Asset, error)
}
