// Package scheduler runs tasks of the build graph in dependency order.
package scheduler

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

// TaskStatus represents the status of a task.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting to be executed.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the task is currently executing.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the task has finished successfully.
	StatusCompleted TaskStatus = "Completed"
	// StatusFailed indicates the task execution failed.
	StatusFailed TaskStatus = "Failed"
	// StatusSkipped indicates a dependency failed or the run was cancelled first.
	StatusSkipped TaskStatus = "Skipped"
)

// Scheduler owns the task graph and executes subgraphs of it.
type Scheduler struct {
	graph       *domain.Graph
	tracer      ports.Tracer
	parallelism int

	mu         sync.RWMutex
	taskStatus map[string]TaskStatus
}

// NewScheduler creates a Scheduler running at most parallelism tasks at once.
func NewScheduler(tracer ports.Tracer, parallelism int) *Scheduler {
	return &Scheduler{
		graph:       domain.NewGraph(),
		tracer:      tracer,
		parallelism: max(parallelism, 1),
		taskStatus:  make(map[string]TaskStatus),
	}
}

// Register adds a task. Duplicate names and cycles through registered tasks are rejected.
func (s *Scheduler) Register(t domain.Task) error {
	return s.graph.AddTask(t)
}

// Graph returns the task graph.
func (s *Scheduler) Graph() *domain.Graph {
	return s.graph
}

// Status returns the status of a task in the latest run.
func (s *Scheduler) Status(name string) TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskStatus[name]
}

// Failed returns the tasks that failed in the latest run.
func (s *Scheduler) Failed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var failed []string
	for task := range s.graph.Walk() {
		if s.taskStatus[task.Name] == StatusFailed {
			failed = append(failed, task.Name)
		}
	}
	return failed
}

func (s *Scheduler) updateStatus(name string, status TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

func (s *Scheduler) initTaskStatuses(tasks []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.taskStatus)
	for _, task := range tasks {
		s.taskStatus[task] = StatusPending
	}
}

// Run validates the subgraph reachable from targets and executes it. Each task
// starts once all of its dependencies completed; a task shared by several
// dependents runs once. A failed task blocks its dependents only.
// The returned error joins the errors of every failed task, plus ctx.Err() when
// the run was cancelled.
func (s *Scheduler) Run(ctx context.Context, targets ...string) error {
	order, err := s.graph.Plan(targets...)
	if err != nil {
		return err
	}

	deps := make(map[string][]string, len(order))
	for _, name := range order {
		task, _ := s.graph.GetTask(name)
		deps[name] = task.Dependencies
	}
	s.tracer.EmitPlan(ctx, order, deps, targets)
	s.initTaskStatuses(order)

	state := s.newRunState(ctx, order)
	err = state.runExecutionLoop()

	s.mu.Lock()
	for name, status := range s.taskStatus {
		if status == StatusPending {
			s.taskStatus[name] = StatusSkipped
		}
	}
	s.mu.Unlock()

	return err
}

type result struct {
	task string
	err  error
}

type schedulerRunState struct {
	s         *Scheduler
	ctx       context.Context
	inDegree  map[string]int
	tasks     map[string]domain.Task
	ready     []string
	active    int
	resultsCh chan result
	errs      error
}

func (s *Scheduler) newRunState(ctx context.Context, order []string) *schedulerRunState {
	inDegree := make(map[string]int, len(order))
	tasks := make(map[string]domain.Task, len(order))
	var ready []string

	for _, name := range order {
		task, _ := s.graph.GetTask(name)
		tasks[name] = task
		inDegree[name] = len(task.Dependencies)
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	return &schedulerRunState{
		s:         s,
		ctx:       ctx,
		inDegree:  inDegree,
		tasks:     tasks,
		ready:     ready,
		resultsCh: make(chan result, s.parallelism),
	}
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *schedulerRunState) runExecutionLoop() error {
	for {
		state.schedule()
		if state.isDone() || (state.active == 0 && state.ctx.Err() != nil) {
			break
		}
		state.handleResult(<-state.resultsCh)
	}

	if err := state.ctx.Err(); err != nil {
		return errors.Join(state.errs, err)
	}
	return state.errs
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.s.parallelism && state.ctx.Err() == nil {
		name := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.updateStatus(name, StatusRunning)
		go state.executeTask(state.tasks[name])
	}
}

func (state *schedulerRunState) executeTask(t domain.Task) {
	// The span ends before the result is sent so renderers see it first.
	res := func() result {
		ctx, span := state.s.tracer.Start(state.ctx, t.Name)
		defer span.End()

		if t.Action == nil {
			return result{task: t.Name}
		}
		err := t.Action(ctx)
		if err != nil {
			span.RecordError(err)
		}
		return result{task: t.Name, err: err}
	}()

	state.resultsCh <- res
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--

	if res.err != nil {
		if state.ctx.Err() != nil && errors.Is(res.err, state.ctx.Err()) {
			// Interrupted, not failed.
			state.s.updateStatus(res.task, StatusSkipped)
			return
		}
		enhanced := zerr.With(zerr.Wrap(res.err, domain.ErrTaskExecutionFailed.Error()), "task", res.task)
		state.errs = errors.Join(state.errs, enhanced)
		state.s.updateStatus(res.task, StatusFailed)
		return
	}

	state.s.updateStatus(res.task, StatusCompleted)
	for _, dep := range state.s.graph.Dependents(res.task) {
		if _, ok := state.tasks[dep]; !ok {
			continue
		}
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}
