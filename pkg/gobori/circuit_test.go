package gobori

import (
	"context"
	"fmt"
	"testing"
)

func newCircuitModel(t *testing.T, n int) (*Model, []int) {
	t.Helper()
	m := NewModel()
	vars := make([]int, n)
	for i := range vars {
		var err error
		vars[i], err = m.CreateVariable(fmt.Sprintf("x%d", i), 0, n-1)
		if err != nil {
			t.Fatalf("CreateVariable error: %v", err)
		}
	}
	return m, vars
}

func TestCircuitForbidsPrematureSubtour(t *testing.T) {
	m, vars := newCircuitModel(t, 4)
	m.AddConstraint(NewCircuit(vars))
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(vars[0], 1)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() after x0=1 = (%v,%v)", ok, err)
	}
	v1, _ := m.Variable(vars[1])
	if v1.dom.Contains(0) {
		t.Error("x1 should no longer be able to close a 2-node subtour back to 0")
	}

	m.EnqueueInstantiate(vars[1], 0)
	ok, err = m.Propagate()
	if err != nil {
		t.Fatalf("Propagate() unexpected error: %v", err)
	}
	if ok {
		t.Error("closing x0->x1->x0 before visiting all 4 nodes should be infeasible")
	}
}

func TestCircuitForcesLastSuccessorToCloseTour(t *testing.T) {
	m, vars := newCircuitModel(t, 3)
	m.AddConstraint(NewCircuit(vars))
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(vars[0], 1)
	m.EnqueueInstantiate(vars[1], 2)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	v2, _ := m.Variable(vars[2])
	if val, inst := v2.Value(); !inst || val != 0 {
		t.Errorf("x2 = (%d,%v), want (0,true) to close the 3-node tour 0->1->2->0", val, inst)
	}
}

func TestCircuitSatisfactionCheck(t *testing.T) {
	m, vars := newCircuitModel(t, 3)
	c := NewCircuit(vars)
	m.AddConstraint(c)
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(vars[0], 1)
	m.EnqueueInstantiate(vars[1], 2)
	m.EnqueueInstantiate(vars[2], 0)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	if got := c.IsSatisfied(); got != True {
		t.Errorf("IsSatisfied() = %v, want True for the full 3-node tour", got)
	}
}

func TestCircuitSolveAllHamiltonianCycles(t *testing.T) {
	m, vars := newCircuitModel(t, 4)
	m.AddConstraint(NewCircuit(vars))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}

	sv := NewSolver(m)
	count := sv.SolveAll(context.Background(), func(*Solution) bool { return true })
	if count != 6 {
		t.Errorf("SolveAll count = %d, want 6 (3! directed Hamiltonian cycles on 4 nodes)", count)
	}
}
