package gobori

import "testing"

func TestBoolClauseUnitPropagationForcesOtherLiteral(t *testing.T) {
	m := NewModel()
	a, _ := m.CreateVariable("a", 0, 1)
	b, _ := m.CreateVariable("b", 0, 1)
	m.AddConstraint(NewBoolClause([]int{a}, []int{b}))
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(a, 0)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	vb, _ := m.Variable(b)
	if val, inst := vb.Value(); !inst || val != 0 {
		t.Errorf("b = (%d,%v), want (0,true) since a=0 forbids a || !b unless b=0", val, inst)
	}
}

func TestBoolClauseSingleLiteralForcedByPresolve(t *testing.T) {
	m := NewModel()
	a, _ := m.CreateVariable("a", 0, 1)
	m.AddConstraint(NewBoolClause([]int{a}, nil))
	mustBuildAndPresolve(t, m)

	va, _ := m.Variable(a)
	if val, inst := va.Value(); !inst || val != 1 {
		t.Errorf("a = (%d,%v), want (1,true) since the clause is just 'a'", val, inst)
	}
}

func TestBoolClauseInfeasibleWhenBothLiteralsFalsified(t *testing.T) {
	m := NewModel()
	a, _ := m.CreateVariableFromValue("a", 0)
	b, _ := m.CreateVariableFromValue("b", 1)
	m.AddConstraint(NewBoolClause([]int{a}, []int{b}))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}
	ok, err := m.PresolveFixpoint()
	if err != nil {
		t.Fatalf("PresolveFixpoint unexpected error: %v", err)
	}
	if ok {
		t.Fatal("a=0, b=1 falsifies both a and !b, want infeasible")
	}
}

func TestArrayBoolAndForcesVarsWhenResultTrue(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 1)
	y, _ := m.CreateVariable("y", 0, 1)
	r, _ := m.CreateVariableFromValue("r", 1)
	m.AddConstraint(NewArrayBoolAnd([]int{x, y}, r))
	mustBuildAndPresolve(t, m)

	vx, _ := m.Variable(x)
	vy, _ := m.Variable(y)
	if val, inst := vx.Value(); !inst || val != 1 {
		t.Errorf("x = (%d,%v), want (1,true) since r=1 forces every conjunct", val, inst)
	}
	if val, inst := vy.Value(); !inst || val != 1 {
		t.Errorf("y = (%d,%v), want (1,true) since r=1 forces every conjunct", val, inst)
	}
}

func TestArrayBoolAndForcesResultFalseWhenAnyVarFalse(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariableFromValue("x", 0)
	y, _ := m.CreateVariable("y", 0, 1)
	r, _ := m.CreateVariable("r", 0, 1)
	m.AddConstraint(NewArrayBoolAnd([]int{x, y}, r))
	mustBuildAndPresolve(t, m)

	vr, _ := m.Variable(r)
	if val, inst := vr.Value(); !inst || val != 0 {
		t.Errorf("r = (%d,%v), want (0,true) since x=0 falsifies the conjunction", val, inst)
	}
}

func TestArrayBoolAndIncrementalForcingViaPropagate(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 1)
	y, _ := m.CreateVariable("y", 0, 1)
	r, _ := m.CreateVariable("r", 0, 1)
	m.AddConstraint(NewArrayBoolAnd([]int{x, y}, r))
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(r, 1)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	vx, _ := m.Variable(x)
	vy, _ := m.Variable(y)
	if val, inst := vx.Value(); !inst || val != 1 {
		t.Errorf("x = (%d,%v), want (1,true)", val, inst)
	}
	if val, inst := vy.Value(); !inst || val != 1 {
		t.Errorf("y = (%d,%v), want (1,true)", val, inst)
	}
}

func TestArrayBoolOrForcesVarsZeroWhenResultFalse(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 1)
	y, _ := m.CreateVariable("y", 0, 1)
	r, _ := m.CreateVariableFromValue("r", 0)
	m.AddConstraint(NewArrayBoolOr([]int{x, y}, r))
	mustBuildAndPresolve(t, m)

	vx, _ := m.Variable(x)
	vy, _ := m.Variable(y)
	if val, inst := vx.Value(); !inst || val != 0 {
		t.Errorf("x = (%d,%v), want (0,true) since r=0 forces every disjunct false", val, inst)
	}
	if val, inst := vy.Value(); !inst || val != 0 {
		t.Errorf("y = (%d,%v), want (0,true) since r=0 forces every disjunct false", val, inst)
	}
}

func TestArrayBoolOrIncrementalForcingViaPropagate(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 1)
	y, _ := m.CreateVariable("y", 0, 1)
	r, _ := m.CreateVariable("r", 0, 1)
	m.AddConstraint(NewArrayBoolOr([]int{x, y}, r))
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(x, 1)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	vr, _ := m.Variable(r)
	if val, inst := vr.Value(); !inst || val != 1 {
		t.Errorf("r = (%d,%v), want (1,true) since x=1 satisfies the disjunction", val, inst)
	}
}

func TestArrayBoolOrSatisfactionCheck(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariableFromValue("x", 1)
	y, _ := m.CreateVariableFromValue("y", 0)
	r, _ := m.CreateVariableFromValue("r", 1)
	c := NewArrayBoolOr([]int{x, y}, r)
	m.AddConstraint(c)
	mustBuildAndPresolve(t, m)

	if got := c.IsSatisfied(); got != True {
		t.Errorf("IsSatisfied() = %v, want True since x=1 makes the or true and r=1", got)
	}
}
