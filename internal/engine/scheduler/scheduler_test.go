package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.trai.ch/press/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

// setupScheduler creates a scheduler whose tracer accepts every call.
func setupScheduler(t *testing.T, parallelism int) (*scheduler.Scheduler, *mocks.MockTracer) {
	t.Helper()
	ctrl := gomock.NewController(t)

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()

	return scheduler.NewScheduler(tracer, parallelism), tracer
}

// recorder collects the order in which task actions run.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) action(name string, err error) domain.Action {
	return func(context.Context) error {
		r.mu.Lock()
		r.order = append(r.order, name)
		r.mu.Unlock()
		return err
	}
}

func (r *recorder) index(name string) int {
	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return -1
}

func TestScheduler_DiamondDependency(t *testing.T) {
	s, tracer := setupScheduler(t, 4)
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Len(4), gomock.Any(), []string{"A"}).Times(1)

	rec := &recorder{}
	require.NoError(t, s.Register(domain.Task{Name: "A", Dependencies: []string{"B", "C"}, Action: rec.action("A", nil)}))
	require.NoError(t, s.Register(domain.Task{Name: "B", Dependencies: []string{"D"}, Action: rec.action("B", nil)}))
	require.NoError(t, s.Register(domain.Task{Name: "C", Dependencies: []string{"D"}, Action: rec.action("C", nil)}))
	require.NoError(t, s.Register(domain.Task{Name: "D", Action: rec.action("D", nil)}))

	require.NoError(t, s.Run(context.Background(), "A"))

	require.Len(t, rec.order, 4)
	assert.Equal(t, "D", rec.order[0])
	assert.Equal(t, "A", rec.order[3])
	assert.Less(t, rec.index("B"), rec.index("A"))
	assert.Less(t, rec.index("C"), rec.index("A"))
	for _, name := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, scheduler.StatusCompleted, s.Status(name))
	}
}

func TestScheduler_RegisterCycle(t *testing.T) {
	s, _ := setupScheduler(t, 1)

	require.NoError(t, s.Register(domain.Task{Name: "A", Dependencies: []string{"B"}}))
	err := s.Register(domain.Task{Name: "B", Dependencies: []string{"A"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle detected")
}

func TestScheduler_MissingDependency(t *testing.T) {
	s, _ := setupScheduler(t, 1)
	require.NoError(t, s.Register(domain.Task{Name: "A", Dependencies: []string{"ghost"}}))

	err := s.Run(context.Background(), "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing dependency")
}

func TestScheduler_FailurePropagation(t *testing.T) {
	s, tracer := setupScheduler(t, 2)
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())

	rec := &recorder{}
	boom := errors.New("boom")
	require.NoError(t, s.Register(domain.Task{Name: "prod:scss", Action: rec.action("prod:scss", boom)}))
	require.NoError(t, s.Register(domain.Task{Name: "prod:html", Dependencies: []string{"prod:scss"}, Action: rec.action("prod:html", nil)}))
	require.NoError(t, s.Register(domain.Task{Name: "prod:js", Action: rec.action("prod:js", nil)}))
	require.NoError(t, s.Register(domain.Task{Name: "build:prod", Dependencies: []string{"prod:html", "prod:js"}}))

	err := s.Run(context.Background(), "build:prod")
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "task execution failed")

	assert.ElementsMatch(t, []string{"prod:scss", "prod:js"}, rec.order)
	assert.Equal(t, scheduler.StatusFailed, s.Status("prod:scss"))
	assert.Equal(t, scheduler.StatusCompleted, s.Status("prod:js"))
	assert.Equal(t, scheduler.StatusSkipped, s.Status("prod:html"))
	assert.Equal(t, scheduler.StatusSkipped, s.Status("build:prod"))
	assert.Equal(t, []string{"prod:scss"}, s.Failed())
}

func TestScheduler_JoinsIndependentFailures(t *testing.T) {
	s, tracer := setupScheduler(t, 2)
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())

	errA, errB := errors.New("a failed"), errors.New("b failed")
	require.NoError(t, s.Register(domain.Task{Name: "a", Action: func(context.Context) error { return errA }}))
	require.NoError(t, s.Register(domain.Task{Name: "b", Action: func(context.Context) error { return errB }}))
	require.NoError(t, s.Register(domain.Task{Name: "all", Dependencies: []string{"a", "b"}}))

	err := s.Run(context.Background(), "all")
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
}

func TestScheduler_ParallelismLimit(t *testing.T) {
	s, tracer := setupScheduler(t, 2)
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())

	var running, peak atomic.Int32
	action := func(context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	}

	deps := []string{"t1", "t2", "t3", "t4", "t5"}
	for _, name := range deps {
		require.NoError(t, s.Register(domain.Task{Name: name, Action: action}))
	}
	require.NoError(t, s.Register(domain.Task{Name: "all", Dependencies: deps}))

	require.NoError(t, s.Run(context.Background(), "all"))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestScheduler_Cancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, tracer := setupScheduler(t, 4)
		tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())

		blocking := func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}
		interrupted := func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}
		require.NoError(t, s.Register(domain.Task{Name: "dev:serve", Action: blocking}))
		require.NoError(t, s.Register(domain.Task{Name: "dev:scss", Action: interrupted}))
		require.NoError(t, s.Register(domain.Task{Name: "build:dev", Dependencies: []string{"dev:serve", "dev:scss"}}))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx, "build:dev") }()

		synctest.Wait()
		cancel()

		err := <-done
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, s.Failed())
		assert.Equal(t, scheduler.StatusCompleted, s.Status("dev:serve"))
		assert.Equal(t, scheduler.StatusSkipped, s.Status("dev:scss"))
		assert.Equal(t, scheduler.StatusSkipped, s.Status("build:dev"))
	})
}

func TestScheduler_NoTargets(t *testing.T) {
	s, _ := setupScheduler(t, 1)
	err := s.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
}
