package gobori

import "context"

// Solution is a mapping from variable name (and any registered alias) to its
// assigned value; only instantiated variables appear.
type Solution struct {
	values map[string]int
}

// Value returns the value assigned to name and whether it was instantiated.
func (sol *Solution) Value(name string) (int, bool) {
	if sol == nil {
		return 0, false
	}
	v, ok := sol.values[name]
	return v, ok
}

// Values returns a copy of the full name-to-value mapping.
func (sol *Solution) Values() map[string]int {
	out := make(map[string]int, len(sol.values))
	for k, v := range sol.values {
		out[k] = v
	}
	return out
}

// Solver is the façade driving one Model through presolve and search. A
// Solver owns its Model for the lifetime of every call; concurrent calls
// against the same Solver are not supported.
type Solver struct {
	m *Model
	s *searcher

	presolved bool
}

// NewSolver wraps a built Model (BuildConstraintWatchList already called)
// for solving.
func NewSolver(m *Model) *Solver {
	return &Solver{m: m, s: newSearcher(m)}
}

// Stats returns a copy of the running statistics.
func (sv *Solver) Stats() Stats { return sv.s.stats }

func (sv *Solver) ensurePresolved() (bool, error) {
	if sv.presolved {
		return true, nil
	}
	ok, err := sv.m.PresolveFixpoint()
	sv.presolved = true
	return ok, err
}

// Solve searches for a single solution.
func (sv *Solver) Solve(ctx context.Context) (*Solution, bool) {
	ok, err := sv.ensurePresolved()
	if err != nil || !ok {
		return nil, false
	}
	return sv.s.solveSingle(ctx)
}

// SolveAll enumerates every solution, invoking callback with each one found
// (in discovery order). callback returning false stops enumeration early.
// The return value is the count of solutions reported.
func (sv *Solver) SolveAll(ctx context.Context, callback func(*Solution) bool) int {
	ok, err := sv.ensurePresolved()
	if err != nil || !ok {
		return 0
	}
	return sv.s.solveAll(ctx, callback)
}

// SolveOptimize performs branch-and-bound minimization (or maximization) of
// the variable objID, invoking onImprove with each improving solution found.
// The final return is the best solution found and whether any solution
// exists at all; it is optimal unless the search was cancelled, in which
// case it is best-effort.
func (sv *Solver) SolveOptimize(ctx context.Context, objID int, minimize bool, onImprove func(*Solution) bool) (*Solution, bool) {
	ok, err := sv.ensurePresolved()
	if err != nil || !ok {
		return nil, false
	}
	return sv.s.solveOptimize(ctx, objID, minimize, onImprove)
}

// Stop requests cancellation; the next safe point in an in-progress or
// future call unwinds to the root and returns as UNKNOWN.
func (sv *Solver) Stop() { sv.s.Stop() }

// IsStopped reports whether Stop has been called since the last ResetStop.
func (sv *Solver) IsStopped() bool { return sv.s.IsStopped() }

// ResetStop clears a prior Stop request, allowing the Solver to be reused.
func (sv *Solver) ResetStop() { sv.s.ResetStop() }

// SetVerbose records a verbose flag on the searcher; the search loop does
// not read it. Search narration goes through the narrator installed with
// SetNarrator.
func (sv *Solver) SetVerbose(v bool) { sv.s.verbose = v }

// SetNarrator installs the structured-logging callback the CLI driver builds
// from internal/logging.Narrator. A nil narrator disables narration; the
// core package never imports the logging package itself, so this is the
// only coupling point between the two.
func (sv *Solver) SetNarrator(n interface {
	Attempt(budget int, restarts int)
	Restart(count int, innerLimit, outerLimit float64, nogoods int)
	Solution(depth int)
	Conflict(learned bool, nogoods int)
}) {
	if n == nil {
		sv.s.narrator = nil
		return
	}
	sv.s.narrator = n
}

// SetNogoodLearning enables or disables the recording of new NoGoods at
// dead ends. Two-watched-literal unit propagation over the NoGoods already
// in the pool (solution-blocking, imported, or learned earlier) runs either
// way.
func (sv *Solver) SetNogoodLearning(v bool) { sv.s.nogoodLearning = v }

// SetRestartEnabled toggles the Luby-like restart schedule; when off, each
// Solve/SolveAll/SolveOptimize call runs a single unbounded attempt.
func (sv *Solver) SetRestartEnabled(v bool) { sv.s.restartEnabled = v }

// SetActivitySelection toggles whether variable selection consults the
// activity map at all (pure domain-size MRV when off).
func (sv *Solver) SetActivitySelection(v bool) { sv.s.activitySelection = v }

// SetActivityFirst toggles whether activity or domain size is the primary
// key in variable selection.
func (sv *Solver) SetActivityFirst(v bool) { sv.s.activityFirst = v }

// SetBisectionThreshold stores a threshold observable via
// BisectionThreshold; no bisection branching strategy is implemented yet,
// so it is otherwise inert.
func (sv *Solver) SetBisectionThreshold(v int) { sv.s.bisectionThreshold = v }

// BisectionThreshold returns the value last passed to SetBisectionThreshold.
func (sv *Solver) BisectionThreshold() int { return sv.s.bisectionThreshold }

// SetHintSolution seeds value-ordering hints from a previously found
// solution, the same mechanism restarts use to replay the best partial
// assignment.
func (sv *Solver) SetHintSolution(sol *Solution) { sv.s.SetHintSolution(sol) }

// SetActivity overrides a single variable's activity score by name.
func (sv *Solver) SetActivity(name string, score float64) error {
	vIdx, err := sv.m.VariableByName(name)
	if err != nil {
		return err
	}
	sv.s.activity[vIdx] = score
	return nil
}

// GetActivityMap returns a snapshot of every variable's current activity
// score, keyed by name.
func (sv *Solver) GetActivityMap() map[string]float64 { return sv.s.GetActivityMap() }

// GetNogoods returns up to maxCount learned/imported NoGoods translated to
// variable names, for serialization across Model instances (maxCount <= 0
// means no limit).
func (sv *Solver) GetNogoods(maxCount int) []NamedNoGood { return sv.s.GetNogoods(maxCount) }

// AddNogoods imports previously exported NoGoods, resolving each literal's
// variable name against this Solver's Model. Literals naming an unknown
// variable cause the whole NoGood to be skipped. Returns the count actually
// added.
func (sv *Solver) AddNogoods(nogoods []NamedNoGood) int { return sv.s.AddNogoods(nogoods) }

// --- searcher helpers consumed only by the Solver façade above ---

func (s *searcher) SetHintSolution(sol *Solution) {
	if sol == nil {
		return
	}
	for name, val := range sol.values {
		if vIdx, err := s.m.VariableByName(name); err == nil {
			s.hint[vIdx] = val
		}
	}
}

func (s *searcher) GetActivityMap() map[string]float64 {
	out := make(map[string]float64, len(s.activity))
	for vIdx, score := range s.activity {
		v, err := s.m.Variable(vIdx)
		if err != nil {
			continue
		}
		out[v.Name] = score
	}
	return out
}

func (s *searcher) GetNogoods(maxCount int) []NamedNoGood {
	out := make([]NamedNoGood, 0, len(s.nogoods))
	for _, ng := range s.nogoods {
		if maxCount > 0 && len(out) >= maxCount {
			break
		}
		named := NamedNoGood{Permanent: ng.Permanent}
		complete := true
		for _, lit := range ng.Literals {
			v, err := s.m.Variable(lit.VarIdx)
			if err != nil {
				complete = false
				break
			}
			named.Literals = append(named.Literals, NamedLiteral{VarName: v.Name, Value: lit.Value})
		}
		if complete {
			out = append(out, named)
		}
	}
	return out
}

func (s *searcher) AddNogoods(nogoods []NamedNoGood) int {
	added := 0
	for _, nn := range nogoods {
		literals := make([]Literal, 0, len(nn.Literals))
		ok := true
		for _, nl := range nn.Literals {
			vIdx, err := s.m.VariableByName(nl.VarName)
			if err != nil {
				ok = false
				break
			}
			literals = append(literals, Literal{VarIdx: vIdx, Value: nl.Value})
		}
		if !ok || len(literals) == 0 {
			continue
		}
		s.registerNoGood(newNoGood(literals, nn.Permanent))
		added++
	}
	s.stats.NogoodCount += added
	s.stats.NogoodsSize = len(s.nogoods)
	return added
}
