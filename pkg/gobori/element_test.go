package gobori

import "testing"

func newElementModel(t *testing.T, array []int, resultLo, resultHi int) (*Model, int, int) {
	t.Helper()
	m := NewModel()
	index, err := m.CreateVariable("index", 0, len(array)-1)
	if err != nil {
		t.Fatalf("CreateVariable(index) error: %v", err)
	}
	result, err := m.CreateVariable("result", resultLo, resultHi)
	if err != nil {
		t.Fatalf("CreateVariable(result) error: %v", err)
	}
	return m, index, result
}

func TestIntElementNarrowsResultToTableValues(t *testing.T) {
	array := []int{10, 20, 30, 40}
	m, index, result := newElementModel(t, array, 0, 100)
	m.AddConstraint(NewIntElement(index, array, result, 0))
	mustBuildAndPresolve(t, m)

	vr, _ := m.Variable(result)
	if vr.Data().Size != 4 {
		t.Errorf("result size = %d, want 4", vr.Data().Size)
	}
	for _, v := range array {
		if !vr.dom.Contains(v) {
			t.Errorf("result should still contain %d", v)
		}
	}
	if vr.dom.Contains(15) {
		t.Error("result should not contain 15, which is not in the table")
	}
}

func TestIntElementForwardInstantiateIndex(t *testing.T) {
	array := []int{10, 20, 30, 40}
	m, index, result := newElementModel(t, array, 0, 100)
	m.AddConstraint(NewIntElement(index, array, result, 0))
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(index, 1)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	vr, _ := m.Variable(result)
	if val, inst := vr.Value(); !inst || val != 20 {
		t.Errorf("result = (%d,%v), want (20,true) since index=1 and array[1]=20", val, inst)
	}
}

func TestIntElementReverseInstantiateResult(t *testing.T) {
	array := []int{10, 20, 30, 40}
	m, index, result := newElementModel(t, array, 0, 100)
	m.AddConstraint(NewIntElement(index, array, result, 0))
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(result, 30)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	vi, _ := m.Variable(index)
	if val, inst := vi.Value(); !inst || val != 2 {
		t.Errorf("index = (%d,%v), want (2,true) since only array[2]=30", val, inst)
	}
}

func TestIntElementOneBasedOffset(t *testing.T) {
	array := []int{100, 200, 300}
	m := NewModel()
	index, _ := m.CreateVariable("index", 1, 3)
	result, _ := m.CreateVariable("result", 0, 1000)
	m.AddConstraint(NewIntElement(index, array, result, 1))
	mustBuildAndPresolve(t, m)

	m.EnqueueInstantiate(index, 3)
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	vr, _ := m.Variable(result)
	if val, inst := vr.Value(); !inst || val != 300 {
		t.Errorf("result = (%d,%v), want (300,true) since index=3 is one-based for array[2]", val, inst)
	}
}

func TestIntElementSatisfactionCheck(t *testing.T) {
	array := []int{10, 20, 30, 40}
	m := NewModel()
	index, _ := m.CreateVariableFromValue("index", 2)
	result, _ := m.CreateVariableFromValue("result", 30)
	c := NewIntElement(index, array, result, 0)
	m.AddConstraint(c)
	mustBuildAndPresolve(t, m)

	if got := c.IsSatisfied(); got != True {
		t.Errorf("IsSatisfied() = %v, want True since array[2]=30", got)
	}
}

func TestIntElementMismatchedFixedValuesIsInfeasible(t *testing.T) {
	array := []int{10, 20, 30, 40}
	m := NewModel()
	index, _ := m.CreateVariableFromValue("index", 2)
	result, _ := m.CreateVariableFromValue("result", 99)
	m.AddConstraint(NewIntElement(index, array, result, 0))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}
	ok, err := m.PresolveFixpoint()
	if err != nil {
		t.Fatalf("PresolveFixpoint unexpected error: %v", err)
	}
	if ok {
		t.Fatal("index=2 with result=99 should be infeasible since array[2]=30")
	}
}
