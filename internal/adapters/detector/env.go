// Package detector decides whether the process talks to a human at a terminal
// or runs in a batch context such as CI.
package detector

import (
	"os"

	"golang.org/x/term"
)

// Mode is the interaction mode of the process.
type Mode int

const (
	// ModeAuto defers to environment detection.
	ModeAuto Mode = iota
	// ModeInteractive enables desktop notifications.
	ModeInteractive
	// ModeBatch disables everything that needs a desktop session.
	ModeBatch
)

// DetectEnvironment returns ModeBatch when stderr is not a terminal or a CI
// environment variable is set, and ModeInteractive otherwise.
func DetectEnvironment() Mode {
	return detect(term.IsTerminal(int(os.Stderr.Fd())), os.Getenv("CI"))
}

func detect(isTTY bool, ci string) Mode {
	if !isTTY || ci == "true" || ci == "1" {
		return ModeBatch
	}
	return ModeInteractive
}

// ResolveMode applies the --notify flag to the detected mode.
// userFlag is one of "auto", "on", "off" or empty.
func ResolveMode(autoDetected Mode, userFlag string) Mode {
	switch userFlag {
	case "on":
		return ModeInteractive
	case "off":
		return ModeBatch
	default:
		return autoDetected
	}
}
