// Package linear provides a synchronous, line-oriented task renderer.
package linear

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/ui/output"
	"go.trai.ch/press/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer with chronological, prefixed lines.
// Root spans are tasks; their children are stages, printed indented on completion.
type Renderer struct {
	output *termenv.Output

	mu    sync.Mutex
	w     *bufio.Writer
	spans map[string]*spanState
}

type spanState struct {
	name      string
	startTime time.Time
	child     bool
}

// NewRenderer creates a Renderer writing to w. A nil writer selects stderr.
func NewRenderer(w io.Writer) *Renderer {
	if w == nil {
		w = os.Stderr
	}
	return &Renderer{
		output: output.NewWithProfile(w, output.ColorProfileANSI),
		w:      bufio.NewWriter(w),
		spans:  make(map[string]*spanState),
	}
}

// OnPlanEmit prints the planned tasks.
func (r *Renderer) OnPlanEmit(tasks []string, _ map[string][]string, targets []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.w, "Planning %d task(s) for target(s): %v\n", len(tasks), targets)
	_ = r.w.Flush()
}

// OnTaskStart prints a start line for root spans and records child spans.
func (r *Renderer) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, child := r.spans[parentID]
	r.spans[spanID] = &spanState{name: name, startTime: startTime, child: child}
	if child {
		return
	}

	prefix := r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
	_, _ = fmt.Fprintf(r.w, "%s Starting...\n", prefix)
	_ = r.w.Flush()
}

// OnTaskComplete prints the outcome and duration of a span.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.spans[spanID]
	if !ok {
		return
	}
	delete(r.spans, spanID)

	duration := endTime.Sub(s.startTime).Round(time.Millisecond)
	prefix := fmt.Sprintf("[%s]", s.name)
	if s.child {
		prefix = "  " + style.Arrow + " " + s.name
	}

	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.w, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
	} else {
		symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.w, "%s %s Completed in %v\n", prefix, symbol, duration)
	}
	_ = r.w.Flush()
}

// Flush writes any buffered output.
func (r *Renderer) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.Flush()
}
