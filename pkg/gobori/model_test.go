package gobori

import "testing"

func TestModelCreateVariable(t *testing.T) {
	m := NewModel()
	id, err := m.CreateVariable("x", 1, 5)
	if err != nil {
		t.Fatalf("CreateVariable error: %v", err)
	}
	if id != 0 {
		t.Errorf("first variable id = %d, want 0", id)
	}
	if m.NumVariables() != 1 {
		t.Errorf("NumVariables() = %d, want 1", m.NumVariables())
	}
	gotID, err := m.VariableByName("x")
	if err != nil || gotID != id {
		t.Errorf("VariableByName(x) = (%d,%v), want (%d,nil)", gotID, err, id)
	}
}

func TestModelCreateVariableFromValue(t *testing.T) {
	m := NewModel()
	id, err := m.CreateVariableFromValue("c", 7)
	if err != nil {
		t.Fatalf("CreateVariableFromValue error: %v", err)
	}
	v, _ := m.Variable(id)
	if val, ok := v.Value(); !ok || val != 7 {
		t.Errorf("Value() = (%d,%v), want (7,true)", val, ok)
	}
}

func TestModelFrozenAfterBuild(t *testing.T) {
	m := NewModel()
	m.CreateVariable("x", 0, 1)
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}
	if _, err := m.CreateVariable("y", 0, 1); err != ErrFrozenModel {
		t.Errorf("CreateVariable after build error = %v, want ErrFrozenModel", err)
	}
	if _, err := m.AddConstraint(NewIntEq(0, 0)); err != ErrFrozenModel {
		t.Errorf("AddConstraint after build error = %v, want ErrFrozenModel", err)
	}
}

func TestModelUnknownVariable(t *testing.T) {
	m := NewModel()
	if _, err := m.Variable(0); err != ErrUnknownVariable {
		t.Errorf("Variable(0) on empty model error = %v, want ErrUnknownVariable", err)
	}
	if _, err := m.VariableByName("nope"); err != ErrUnknownVariable {
		t.Errorf("VariableByName error = %v, want ErrUnknownVariable", err)
	}
}

func TestModelInstantiateAndRewind(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 9)
	m.BuildConstraintWatchList()

	savePoint := m.CurrentLevel()
	m.PushLevel()

	ok, err := m.Instantiate(x, 4)
	if err != nil || !ok {
		t.Fatalf("Instantiate(4) = (%v,%v), want (true,nil)", ok, err)
	}
	v, _ := m.Variable(x)
	if val, ok := v.Value(); !ok || val != 4 {
		t.Fatalf("after instantiate, Value() = (%d,%v)", val, ok)
	}
	if m.InstantiatedCount() != 1 {
		t.Errorf("InstantiatedCount() = %d, want 1", m.InstantiatedCount())
	}

	m.RewindTo(savePoint)
	v, _ = m.Variable(x)
	if _, ok := v.Value(); ok {
		t.Error("after rewind, variable should no longer be instantiated")
	}
	if v.Data().Min != 0 || v.Data().Max != 9 {
		t.Errorf("after rewind, bounds = [%d,%d], want [0,9]", v.Data().Min, v.Data().Max)
	}
	if m.InstantiatedCount() != 0 {
		t.Errorf("InstantiatedCount() after rewind = %d, want 0", m.InstantiatedCount())
	}
}

func TestModelSetMinSetMaxRemoveValue(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 9)
	m.BuildConstraintWatchList()

	if ok, err := m.SetMin(x, 3); err != nil || !ok {
		t.Fatalf("SetMin(3) = (%v,%v)", ok, err)
	}
	if ok, err := m.SetMax(x, 7); err != nil || !ok {
		t.Fatalf("SetMax(7) = (%v,%v)", ok, err)
	}
	if ok, err := m.RemoveValue(x, 5); err != nil || !ok {
		t.Fatalf("RemoveValue(5) = (%v,%v)", ok, err)
	}
	v, _ := m.Variable(x)
	d := v.Data()
	if d.Min != 3 || d.Max != 7 || d.Size != 4 {
		t.Errorf("after narrowing: min=%d max=%d size=%d, want 3/7/4", d.Min, d.Max, d.Size)
	}
	if v.dom.Contains(5) {
		t.Error("5 should have been removed")
	}
}

func TestModelSetMinNoopWhenNotTighter(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 3, 9)
	m.BuildConstraintWatchList()
	if ok, err := m.SetMin(x, 1); err != nil || !ok {
		t.Fatalf("SetMin(1) below current min = (%v,%v), want (true,nil)", ok, err)
	}
	v, _ := m.Variable(x)
	if v.Data().Min != 3 {
		t.Errorf("Min should be unchanged at 3, got %d", v.Data().Min)
	}
}

func TestModelEmptyDomainFails(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 0)
	m.BuildConstraintWatchList()
	if ok, err := m.RemoveValue(x, 0); err != nil || ok {
		t.Fatalf("removing the only value = (%v,%v), want (false,nil)", ok, err)
	}
}

func TestModelTrailCoalescesPerLevel(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 9)
	m.BuildConstraintWatchList()

	m.PushLevel()
	m.SetMin(x, 1)
	m.SetMin(x, 2)
	m.SetMax(x, 8)
	if len(m.varTrail) != 1 {
		t.Errorf("varTrail has %d entries at one level, want 1 (coalesced)", len(m.varTrail))
	}
}

func TestModelQueueEnqueueAndDrain(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 9)
	m.BuildConstraintWatchList()

	m.EnqueueSetMin(x, 5)
	m.EnqueueRemoveValue(x, 7)
	if m.queueEmpty() {
		t.Fatal("queue should hold two pending updates")
	}
	ok, err := m.Propagate()
	if err != nil || !ok {
		t.Fatalf("Propagate() = (%v,%v)", ok, err)
	}
	v, _ := m.Variable(x)
	if v.Data().Min != 5 {
		t.Errorf("Min() = %d, want 5", v.Data().Min)
	}
	if v.dom.Contains(7) {
		t.Error("7 should have been removed by the drained queue")
	}
}

func TestModelAddVariableAlias(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 0, 9)
	if err := m.AddVariableAlias("alias_x", x); err != nil {
		t.Fatalf("AddVariableAlias error: %v", err)
	}
	id, err := m.VariableByName("alias_x")
	if err != nil || id != x {
		t.Errorf("VariableByName(alias_x) = (%d,%v), want (%d,nil)", id, err, x)
	}
}
