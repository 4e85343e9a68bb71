package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// BustStrategy selects how cache-busting tokens are derived.
type BustStrategy string

const (
	// BustHash derives the token from the content, so unchanged files keep their name.
	BustHash BustStrategy = "hash"
	// BustTimestamp derives the token from the build time.
	BustTimestamp BustStrategy = "timestamp"
)

// CriticalOptions configures critical CSS extraction.
type CriticalOptions struct {
	// Width and Height describe the viewport considered above the fold.
	Width  int
	Height int
	// Stylesheet is the logical name of the built stylesheet, before cache-busting.
	Stylesheet string
	// Browser enables the headless browser extractor instead of static selector matching.
	Browser bool
}

// Options holds tool settings that are not path mappings.
type Options struct {
	Host      string
	Port      int
	CacheBust BustStrategy
	Critical  CriticalOptions
	Debounce  time.Duration
	// Targets lists the browser engines CSS prefixing and JS lowering aim for, e.g. "chrome49".
	Targets []string
}

// DefaultOptions returns the stock tool settings.
func DefaultOptions() Options {
	return Options{
		Host:      "localhost",
		Port:      3000,
		CacheBust: BustHash,
		Critical: CriticalOptions{
			Width:      1920,
			Height:     1280,
			Stylesheet: "styles.min.css",
		},
		Debounce: 100 * time.Millisecond,
		Targets:  []string{"chrome49", "firefox45", "safari9", "edge14", "ios9"},
	}
}

// Validate checks option values that cannot be defaulted.
func (o Options) Validate() error {
	switch o.CacheBust {
	case BustHash, BustTimestamp:
	default:
		return zerr.With(ErrInvalidBustStrategy, "strategy", string(o.CacheBust))
	}
	if o.Port <= 0 || o.Port > 65535 {
		return zerr.With(ErrConfigInvalidOption, "port", o.Port)
	}
	if o.Critical.Width <= 0 || o.Critical.Height <= 0 {
		return zerr.With(ErrConfigInvalidOption, "critical", "viewport must be positive")
	}
	if o.Debounce < 0 {
		return zerr.With(ErrConfigInvalidOption, "debounce", o.Debounce.String())
	}
	return nil
}

// Config is the validated project configuration.
type Config struct {
	Registry *Registry
	Options  Options
}
