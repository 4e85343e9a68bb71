// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/press/internal/adapters/config"
	_ "go.trai.ch/press/internal/adapters/fs"
	_ "go.trai.ch/press/internal/adapters/linear"
	_ "go.trai.ch/press/internal/adapters/logger"
	_ "go.trai.ch/press/internal/adapters/metrics"
	_ "go.trai.ch/press/internal/adapters/server"
	_ "go.trai.ch/press/internal/adapters/toolrunner"
	_ "go.trai.ch/press/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/press/internal/app"
)
