package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestGraph_AddTask_Cycle(t *testing.T) {
	tests := []struct {
		name      string
		tasks     []domain.Task
		wantCycle string
	}{
		{
			name:      "Self Cycle A->A",
			tasks:     []domain.Task{{Name: "A", Dependencies: []string{"A"}}},
			wantCycle: "A -> A",
		},
		{
			name: "Two Node Cycle A->B->A",
			tasks: []domain.Task{
				{Name: "A", Dependencies: []string{"B"}},
				{Name: "B", Dependencies: []string{"A"}},
			},
			wantCycle: "B -> A -> B",
		},
		{
			name: "Three Node Cycle A->B->C->A",
			tasks: []domain.Task{
				{Name: "A", Dependencies: []string{"B"}},
				{Name: "B", Dependencies: []string{"C"}},
				{Name: "C", Dependencies: []string{"A"}},
			},
			wantCycle: "C -> A -> B -> C",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := domain.NewGraph()
			var err error
			for _, task := range tt.tasks {
				if err = g.AddTask(task); err != nil {
					break
				}
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), "cycle detected")

			var zErr *zerr.Error
			require.ErrorAs(t, err, &zErr)
			assert.Equal(t, tt.wantCycle, zErr.Metadata()["cycle"])

			// The offending task is not kept.
			_, found := g.GetTask(tt.tasks[len(tt.tasks)-1].Name)
			assert.False(t, found)
		})
	}
}

func TestGraph_AddTask_Duplicate(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(domain.Task{Name: "A"}))

	err := g.AddTask(domain.Task{Name: "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task already exists")
}

func TestGraph_Plan_SharedDependency(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(domain.Task{Name: "A", Dependencies: []string{"B", "C"}}))
	require.NoError(t, g.AddTask(domain.Task{Name: "B", Dependencies: []string{"D"}}))
	require.NoError(t, g.AddTask(domain.Task{Name: "C", Dependencies: []string{"D"}}))
	require.NoError(t, g.AddTask(domain.Task{Name: "D"}))

	order, err := g.Plan("A")
	require.NoError(t, err)
	require.Len(t, order, 4)

	assert.Equal(t, "D", order[0])
	assert.Equal(t, "A", order[3])
	assert.ElementsMatch(t, []string{"B", "C"}, order[1:3])
}

func TestGraph_Plan_Subgraph(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(domain.Task{Name: "A", Dependencies: []string{"B"}}))
	require.NoError(t, g.AddTask(domain.Task{Name: "B"}))
	require.NoError(t, g.AddTask(domain.Task{Name: "C"}))

	order, err := g.Plan("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, order)
}

func TestGraph_Plan_Errors(t *testing.T) {
	t.Run("missing dependency", func(t *testing.T) {
		g := domain.NewGraph()
		require.NoError(t, g.AddTask(domain.Task{Name: "A", Dependencies: []string{"ghost"}}))

		_, err := g.Plan("A")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing dependency")
	})

	t.Run("unknown target", func(t *testing.T) {
		g := domain.NewGraph()
		_, err := g.Plan("nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "task not found")
	})

	t.Run("no targets", func(t *testing.T) {
		g := domain.NewGraph()
		_, err := g.Plan()
		require.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
	})
}

func TestGraph_Dependents(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(domain.Task{Name: "B", Dependencies: []string{"D"}}))
	require.NoError(t, g.AddTask(domain.Task{Name: "C", Dependencies: []string{"D"}}))
	require.NoError(t, g.AddTask(domain.Task{Name: "D"}))

	assert.ElementsMatch(t, []string{"B", "C"}, g.Dependents("D"))
	assert.Empty(t, g.Dependents("B"))
	assert.Equal(t, 3, g.TaskCount())

	var names []string
	for task := range g.Walk() {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{"B", "C", "D"}, names)
}
