package dispatch_test

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/engine/dispatch"
)

// slowRunner takes a second per run and records which runs finished
// without being cancelled.
type slowRunner struct {
	mu        sync.Mutex
	started   int
	completed []int
	canceled  []int
}

func (r *slowRunner) Run(ctx context.Context) ([]domain.WrittenFile, error) {
	r.mu.Lock()
	r.started++
	id := r.started
	r.mu.Unlock()

	select {
	case <-time.After(time.Second):
		r.mu.Lock()
		r.completed = append(r.completed, id)
		r.mu.Unlock()
		return nil, nil
	case <-ctx.Done():
		r.mu.Lock()
		r.canceled = append(r.canceled, id)
		r.mu.Unlock()
		return nil, ctx.Err()
	}
}

func TestDispatcher_SupersedesInFlightRun(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		scss := &slowRunner{}
		d := dispatch.NewDispatcher(map[domain.AssetClass]dispatch.Runner{domain.ClassSCSS: scss})
		ctx := context.Background()

		d.Dispatch(ctx, domain.ClassSCSS)
		synctest.Wait()
		assert.True(t, d.Busy(domain.ClassSCSS))

		time.Sleep(500 * time.Millisecond)
		d.Dispatch(ctx, domain.ClassSCSS)
		d.Wait()

		assert.Equal(t, 2, scss.started)
		assert.Equal(t, []int{1}, scss.canceled)
		assert.Equal(t, []int{2}, scss.completed)
		assert.False(t, d.Busy(domain.ClassSCSS))
	})
}

func TestDispatcher_ClassesRunIndependently(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		scss, js := &slowRunner{}, &slowRunner{}
		d := dispatch.NewDispatcher(map[domain.AssetClass]dispatch.Runner{
			domain.ClassSCSS: scss,
			domain.ClassJS:   js,
		})
		ctx := context.Background()

		start := time.Now()
		d.Dispatch(ctx, domain.ClassSCSS)
		d.Dispatch(ctx, domain.ClassJS)
		d.Dispatch(ctx, domain.ClassFonts) // no runner
		d.Wait()

		assert.Equal(t, time.Second, time.Since(start))
		assert.Equal(t, []int{1}, scss.completed)
		assert.Equal(t, []int{1}, js.completed)
	})
}

func TestDispatcher_CancelledParent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		scss := &slowRunner{}
		d := dispatch.NewDispatcher(map[domain.AssetClass]dispatch.Runner{domain.ClassSCSS: scss})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d.Dispatch(ctx, domain.ClassSCSS)
		d.Wait()

		assert.Zero(t, scss.started)
	})
}

func TestDispatcher_CloseRejectsLateDispatches(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		scss := &slowRunner{}
		d := dispatch.NewDispatcher(map[domain.AssetClass]dispatch.Runner{domain.ClassSCSS: scss})
		ctx := context.Background()

		d.Dispatch(ctx, domain.ClassSCSS)
		synctest.Wait()

		closed := make(chan struct{})
		go func() {
			d.Close()
			close(closed)
		}()
		synctest.Wait()

		// A batch firing while Close waits must not start another run.
		d.Dispatch(ctx, domain.ClassSCSS)
		<-closed
		d.Dispatch(ctx, domain.ClassSCSS)
		d.Wait()

		assert.Equal(t, 1, scss.started)
		assert.Equal(t, []int{1}, scss.completed)
		assert.False(t, d.Busy(domain.ClassSCSS))
	})
}
