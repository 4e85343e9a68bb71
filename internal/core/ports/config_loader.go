package ports

import "go.trai.ch/press/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration from the given working directory.
	// Defaults apply when no configuration file exists. The result is validated.
	Load(cwd string) (*domain.Config, error)
}
