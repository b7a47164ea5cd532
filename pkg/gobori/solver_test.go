package gobori

import (
	"context"
	"testing"
)

func TestSolverSolveFindsSingleSolution(t *testing.T) {
	m, x, y := newTwoVarModel(t, 0, 1)
	m.AddConstraint(NewIntNe(x, y))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}

	sv := NewSolver(m)
	sol, ok := sv.Solve(context.Background())
	if !ok {
		t.Fatal("Solve() reported no solution for a trivially satisfiable model")
	}
	vx, _ := sol.Value("x")
	vy, _ := sol.Value("y")
	if vx == vy {
		t.Errorf("x=%d, y=%d, want distinct values", vx, vy)
	}
}

func TestSolverSolveAllCallbackEarlyStop(t *testing.T) {
	m, x, y := newTwoVarModel(t, 0, 1)
	m.AddConstraint(NewIntNe(x, y))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}

	sv := NewSolver(m)
	seen := 0
	count := sv.SolveAll(context.Background(), func(*Solution) bool {
		seen++
		return false
	})
	if count != 1 || seen != 1 {
		t.Errorf("count=%d seen=%d, want both 1 since callback stops after the first", count, seen)
	}
}

func TestSolverSolveOptimizeMinimize(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 1, 5)
	y, _ := m.CreateVariable("y", 1, 5)
	m.AddConstraint(NewIntLt(x, y))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}

	sv := NewSolver(m)
	sol, ok := sv.SolveOptimize(context.Background(), y, true, func(*Solution) bool { return true })
	if !ok {
		t.Fatal("SolveOptimize reported no solution")
	}
	val, _ := sol.Value("y")
	if val != 2 {
		t.Errorf("minimized y = %d, want 2 (x>=1 forces y>=2)", val)
	}
}

func TestSolverSolveOptimizeMaximize(t *testing.T) {
	m := NewModel()
	x, _ := m.CreateVariable("x", 1, 5)
	y, _ := m.CreateVariable("y", 1, 5)
	m.AddConstraint(NewIntLt(x, y))
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}

	sv := NewSolver(m)
	sol, ok := sv.SolveOptimize(context.Background(), x, false, func(*Solution) bool { return true })
	if !ok {
		t.Fatal("SolveOptimize reported no solution")
	}
	val, _ := sol.Value("x")
	if val != 4 {
		t.Errorf("maximized x = %d, want 4 (y<=5 forces x<=4)", val)
	}
}

func TestSolverAddNogoodsExcludesValue(t *testing.T) {
	m := NewModel()
	m.CreateVariable("x", 0, 2)
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}

	sv := NewSolver(m)
	added := sv.AddNogoods([]NamedNoGood{
		{Literals: []NamedLiteral{{VarName: "x", Value: 1}}},
	})
	if added != 1 {
		t.Fatalf("AddNogoods returned %d, want 1", added)
	}

	var seen []int
	count := sv.SolveAll(context.Background(), func(sol *Solution) bool {
		v, _ := sol.Value("x")
		seen = append(seen, v)
		return true
	})
	if count != 2 {
		t.Errorf("SolveAll count = %d, want 2 (x=1 excluded by the added nogood)", count)
	}
	for _, v := range seen {
		if v == 1 {
			t.Error("x=1 should have been excluded by the added nogood")
		}
	}
}

func TestSolverGetNogoodsRoundTrip(t *testing.T) {
	m := NewModel()
	m.CreateVariable("x", 0, 2)
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}

	sv := NewSolver(m)
	sv.AddNogoods([]NamedNoGood{
		{Literals: []NamedLiteral{{VarName: "x", Value: 1}}, Permanent: true},
	})

	got := sv.GetNogoods(0)
	if len(got) != 1 {
		t.Fatalf("GetNogoods(0) returned %d entries, want 1", len(got))
	}
	if !got[0].Permanent {
		t.Error("round-tripped nogood should keep Permanent=true")
	}
	if len(got[0].Literals) != 1 || got[0].Literals[0].VarName != "x" || got[0].Literals[0].Value != 1 {
		t.Errorf("round-tripped literal = %+v, want {x 1}", got[0].Literals)
	}
}

func TestSolverStopCancelsSearch(t *testing.T) {
	m := NewModel()
	m.CreateVariable("x", 0, 2)
	if err := m.BuildConstraintWatchList(); err != nil {
		t.Fatalf("BuildConstraintWatchList error: %v", err)
	}

	sv := NewSolver(m)
	if sv.IsStopped() {
		t.Fatal("a fresh Solver should not report stopped")
	}
	sv.Stop()
	if !sv.IsStopped() {
		t.Fatal("IsStopped() should report true after Stop()")
	}
	sv.ResetStop()
	if sv.IsStopped() {
		t.Fatal("IsStopped() should report false after ResetStop()")
	}
}
