package ports

import "context"

// CriticalExtractor selects the stylesheet rules needed to render the visible part of a page.
//
//go:generate mockgen -source=critical.go -destination=mocks/mock_critical.go -package=mocks
type CriticalExtractor interface {
	// Extract returns the subset of css that applies to above-the-fold content of page.
	Extract(ctx context.Context, page, css []byte) ([]byte, error)
}
