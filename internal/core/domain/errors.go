package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

var (
	// ErrConfigMissingPath is returned when an asset class has no path mapping.
	ErrConfigMissingPath = zerr.New("asset class has no path mapping")

	// ErrConfigInvalidPath is returned when a path mapping is empty or escapes the destination root.
	ErrConfigInvalidPath = zerr.New("invalid path mapping")

	// ErrConfigInvalidOption is returned when a tool option has an unusable value.
	ErrConfigInvalidOption = zerr.New("invalid configuration option")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrUnknownAssetClass is returned when a configuration key names no asset class.
	ErrUnknownAssetClass = zerr.New("unknown asset class")

	// ErrInvalidBustStrategy is returned when the cache-bust strategy is unknown.
	ErrInvalidBustStrategy = zerr.New("invalid cache-bust strategy, expected 'hash' or 'timestamp'")

	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that is not registered.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not registered.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrNoTargetsSpecified is returned when a run names no task.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrTaskExecutionFailed is returned when a task action fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrBuildExecutionFailed is returned when the build process fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrToolFailed marks a transform stage failure.
	ErrToolFailed = zerr.New("transform failed")

	// ErrSourceResolveFailed is returned when the source glob of a class cannot be expanded.
	ErrSourceResolveFailed = zerr.New("failed to resolve sources")

	// ErrReadFailed is returned when a source file cannot be read.
	ErrReadFailed = zerr.New("failed to read file")

	// ErrWriteFailed is returned when an output file cannot be written.
	ErrWriteFailed = zerr.New("failed to write file")

	// ErrCleanFailed is returned when a directory cannot be removed.
	ErrCleanFailed = zerr.New("failed to clean directory")

	// ErrCacheReadFailed is returned when the image cache cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read image cache")

	// ErrCacheWriteFailed is returned when the image cache cannot be written.
	ErrCacheWriteFailed = zerr.New("failed to write image cache")

	// ErrWatcherFailed is returned when the file watcher cannot start.
	ErrWatcherFailed = zerr.New("failed to start file watcher")

	// ErrServerFailed is returned when the dev server stops unexpectedly.
	ErrServerFailed = zerr.New("dev server failed")

	// ErrToolNotFound is returned when an external optimizer is not on PATH.
	ErrToolNotFound = zerr.New("external tool not found")
)

// ToolError reports that one transform stage failed on one file.
type ToolError struct {
	Stage      string
	Message    string
	SourcePath string
	Err        error
}

// NewToolError builds a ToolError from the cause returned by a tool.
func NewToolError(stage, sourcePath string, cause error) *ToolError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &ToolError{Stage: stage, Message: msg, SourcePath: sourcePath, Err: cause}
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.SourcePath == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.SourcePath, e.Message)
}

// Unwrap returns the underlying tool error.
func (e *ToolError) Unwrap() error {
	return e.Err
}
