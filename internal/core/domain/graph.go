package domain

import (
	"context"
	"iter"
	"strings"

	"go.trai.ch/zerr"
)

// Action is the work performed by a task once its dependencies completed.
type Action func(ctx context.Context) error

// Task is a named, dependency-ordered unit of work in the build graph.
// A task with a nil Action is a composite: running it only runs its dependencies.
type Task struct {
	Name         string
	Dependencies []string
	Action       Action
}

// Graph represents a dependency graph of tasks.
type Graph struct {
	tasks      map[string]Task
	order      []string
	dependents map[string][]string
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks:      make(map[string]Task),
		dependents: make(map[string][]string),
	}
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same name already exists or if the task
// closes a cycle through tasks that are already registered. Dependencies that are
// not registered yet are allowed and reported by Plan.
func (g *Graph) AddTask(t Task) error {
	if t.Name == "" {
		return zerr.With(ErrTaskNotFound, "task_name", "")
	}
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task_name", t.Name)
	}

	t.Dependencies = append([]string(nil), t.Dependencies...)
	g.tasks[t.Name] = t

	// The graph was acyclic before, so any new cycle passes through t.
	if err := g.visit(t.Name, make(map[string]int), nil, nil, false); err != nil {
		delete(g.tasks, t.Name)
		return err
	}

	g.order = append(g.order, t.Name)
	for _, dep := range t.Dependencies {
		g.dependents[dep] = append(g.dependents[dep], t.Name)
	}
	return nil
}

// GetTask returns the task registered under name.
func (g *Graph) GetTask(name string) (Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// TaskCount returns the number of registered tasks.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// Dependents returns the names of the tasks that directly depend on name.
func (g *Graph) Dependents(name string) []string {
	return g.dependents[name]
}

// Plan resolves the subgraph reachable from targets and returns it in a valid
// execution order, dependencies first. Each task appears once.
func (g *Graph) Plan(targets ...string) ([]string, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargetsSpecified
	}

	state := make(map[string]int)
	order := make([]string, 0, len(g.tasks))
	for _, target := range targets {
		if _, ok := g.tasks[target]; !ok {
			return nil, zerr.With(ErrTaskNotFound, "task", target)
		}
		if state[target] != 0 {
			continue
		}
		if err := g.visit(target, state, nil, &order, true); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Walk returns an iterator over every registered task in registration order.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.order {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}

// visit runs a three-colour depth-first search from u.
// state holds 0 for unvisited, 1 for visiting and 2 for visited nodes.
// When strict is false, edges to unregistered tasks are ignored.
func (g *Graph) visit(u string, state map[string]int, path []string, order *[]string, strict bool) error {
	state[u] = 1
	path = append(path, u)

	task, exists := g.tasks[u]
	if !exists {
		if !strict {
			state[u] = 2
			return nil
		}
		parent := ""
		if len(path) > 1 {
			parent = path[len(path)-2]
		}
		return zerr.With(zerr.With(ErrMissingDependency, "dependency", u), "task", parent)
	}

	for _, dep := range task.Dependencies {
		switch state[dep] {
		case 1:
			return buildCycleError(path, dep)
		case 0:
			if err := g.visit(dep, state, path, order, strict); err != nil {
				return err
			}
		}
	}

	state[u] = 2
	if order != nil {
		*order = append(*order, u)
	}
	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func buildCycleError(path []string, dep string) error {
	start := 0
	for i, node := range path {
		if node == dep {
			start = i
			break
		}
	}
	cycle := append(append([]string(nil), path[start:]...), dep)
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(cycle, " -> "))
}
