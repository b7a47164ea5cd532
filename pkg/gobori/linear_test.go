package gobori

import (
	"context"
	"testing"
)

func TestIntLinEqForcesLastVariable(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariableFromValue("x", 2)
	y, _ := m.CreateVariable("y", 0, 5)
	m.AddConstraint(NewIntLinEq([]int{1, 1}, []int{x, y}, 5))
	mustBuildAndPresolve(t, m)

	vy, _ := m.Variable(y)
	if val, ok := vy.Value(); !ok || val != 3 {
		t.Errorf("y = (%d,%v), want (3,true) since x=2 and x+y=5", val, ok)
	}
}

func TestIntLinEqInfeasibleWhenNotDivisible(t *testing.T) {
	m := NewModel()
	y, _ := m.CreateVariable("y", 0, 9)
	m.AddConstraint(NewIntLinEq([]int{2}, []int{y}, 5))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}
	ok, err := m.PresolveFixpoint()
	if err != nil {
		t.Fatalf("PresolveFixpoint unexpected error: %v", err)
	}
	if ok {
		t.Fatal("2*y = 5 has no integer solution in [0,9], want infeasible")
	}
}

func TestIntLinEqSolveAllCompositions(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 2)
	y, _ := m.CreateVariable("y", 0, 2)
	z, _ := m.CreateVariable("z", 0, 2)
	m.AddConstraint(NewIntLinEq([]int{1, 1, 1}, []int{x, y, z}, 3))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}

	sv := NewSolver(m)
	count := sv.SolveAll(context.Background(), func(*Solution) bool { return true })
	if count != 7 {
		t.Errorf("SolveAll count = %d, want 7", count)
	}
}

func TestIntLinLeTightensUpperBoundAfterInstantiate(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 5)
	y, _ := m.CreateVariable("y", 0, 5)
	m.AddConstraint(NewIntLinLe([]int{1, 1}, []int{x, y}, 6))
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(x, 5)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	vy, _ := m.Variable(y)
	if vy.Data().Max != 1 {
		t.Errorf("y.Max = %d, want 1 since x+y<=6 and x=5", vy.Data().Max)
	}
}

func TestIntLinLeInfeasibleWhenMinimumExceedsBound(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 4, 9)
	y, _ := m.CreateVariable("y", 4, 9)
	m.AddConstraint(NewIntLinLe([]int{1, 1}, []int{x, y}, 6))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}
	ok, err := m.PresolveFixpoint()
	if err != nil {
		t.Fatalf("PresolveFixpoint unexpected error: %v", err)
	}
	if ok {
		t.Fatal("x+y<=6 with both x,y>=4 should be infeasible")
	}
}

func TestIntLinLeSatisfactionCheck(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariableFromValue("x", 2)
	y, _ := m.CreateVariableFromValue("y", 3)
	c := NewIntLinLe([]int{1, 1}, []int{x, y}, 5)
	m.AddConstraint(c)
	mustBuildAndPresolve(t, m)

	if got := c.IsSatisfied(); got != True {
		t.Errorf("IsSatisfied() = %v, want True since 2+3<=5", got)
	}
}

func TestIntLinNeForcesExclusionOfLastValue(t *testing.T) {
	m, x, y := newTwoVarModel(t, 0, 5)
	m.AddConstraint(NewIntLinNe([]int{1, 1}, []int{x, y}, 5))
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(x, 2)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	vy, _ := m.Variable(y)
	if vy.dom.Contains(3) {
		t.Error("y should no longer contain 3, since x+y=5 is the forbidden value")
	}
	if vy.Data().Size != 5 {
		t.Errorf("y size = %d, want 5", vy.Data().Size)
	}
}

func TestIntLinNeSatisfactionCheck(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariableFromValue("x", 2)
	y, _ := m.CreateVariableFromValue("y", 2)
	c := NewIntLinNe([]int{1, 1}, []int{x, y}, 5)
	m.AddConstraint(c)
	mustBuildAndPresolve(t, m)

	if got := c.IsSatisfied(); got != True {
		t.Errorf("IsSatisfied() = %v, want True since 2+2=4 != 5", got)
	}
}
