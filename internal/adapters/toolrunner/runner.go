// Package toolrunner runs external optimizer binaries as stdin to stdout filters.
package toolrunner

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ToolRunner = (*Runner)(nil)

// Runner implements ports.ToolRunner with os/exec.
type Runner struct {
	mu     sync.Mutex
	lookup map[string]string
}

// New creates a Runner.
func New() *Runner {
	return &Runner{lookup: make(map[string]string)}
}

// Available reports whether name resolves on PATH. Results are memoized.
func (r *Runner) Available(name string) bool {
	_, err := r.resolve(name)
	return err == nil
}

// Run executes name with args. The process is killed when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	path, err := r.resolve(name)
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...) //nolint:gosec // Tool names are fixed by the stages
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		wrapped := zerr.With(zerr.Wrap(err, "tool exited with error"), "tool", name)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			wrapped = zerr.With(wrapped, "stderr", msg)
		}
		return nil, wrapped
	}
	return stdout.Bytes(), nil
}

func (r *Runner) resolve(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if path, ok := r.lookup[name]; ok {
		if path == "" {
			return "", zerr.With(domain.ErrToolNotFound, "tool", name)
		}
		return path, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		r.lookup[name] = ""
		return "", zerr.With(domain.ErrToolNotFound, "tool", name)
	}
	r.lookup[name] = path
	return path, nil
}
