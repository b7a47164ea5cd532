package gobori

import (
	"context"
	"fmt"
	"testing"
)

func TestAllDifferentForcesLastValue(t *testing.T) {
	m := NewModel()
	vars := make([]int, 3)
	vars[0], _ = m.CreateVariableFromValue("a", 0)
	vars[1], _ = m.CreateVariableFromValue("b", 1)
	vars[2], _ = m.CreateVariable("c", 0, 2)
	m.AddConstraint(NewAllDifferent(vars))
	mustBuildAndPresolve(t, m)

	vc, _ := m.Variable(vars[2])
	if val, ok := vc.Value(); !ok || val != 2 {
		t.Errorf("c = (%d,%v), want (2,true)", val, ok)
	}
}

func TestAllDifferentIncrementalRemoval(t *testing.T) {
	m := NewModel()
	a, _ := m.CreateVariable("a", 0, 3)
	b, _ := m.CreateVariable("b", 0, 3)
	c, _ := m.CreateVariable("c", 0, 3)
	m.AddConstraint(NewAllDifferent([]int{a, b, c}))
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(a, 1)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	vb, _ := m.Variable(b)
	vcv, _ := m.Variable(c)
	if vb.dom.Contains(1) || vcv.dom.Contains(1) {
		t.Error("1 should be pruned from b and c once a=1")
	}
}

func TestAllDifferentDetectsConflict(t *testing.T) {
	m := NewModel()
	a, _ := m.CreateVariableFromValue("a", 5)
	b, _ := m.CreateVariableFromValue("b", 5)
	m.AddConstraint(NewAllDifferent([]int{a, b}))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}
	ok, err := m.PresolveFixpoint()
	if err != nil {
		t.Fatalf("PresolveFixpoint unexpected error: %v", err)
	}
	if ok {
		t.Fatal("all_different should reject two variables already forced to the same value")
	}
}

func TestAllDifferentSolveAllPermutations(t *testing.T) {
	m := NewModel()
	vars := make([]int, 3)
	for i := range vars {
		vars[i], _ = m.CreateVariable(fmt.Sprintf("v%d", i), 0, 2)
	}
	m.AddConstraint(NewAllDifferent(vars))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}

	sv := NewSolver(m)
	count := sv.SolveAll(context.Background(), func(*Solution) bool { return true })
	if count != 6 {
		t.Errorf("SolveAll count = %d, want 6 (3! permutations)", count)
	}
}
