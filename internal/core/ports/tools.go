package ports

import "context"

// ToolRunner runs external optimizer binaries that filter stdin to stdout.
//
//go:generate mockgen -source=tools.go -destination=mocks/mock_tools.go -package=mocks
type ToolRunner interface {
	// Available reports whether the named binary can be found on PATH.
	Available(name string) bool
	// Run executes the binary with args, feeding stdin and returning stdout.
	Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error)
}
