package gobori

import (
	"context"
	"math/rand"
	"sort"
	"sync/atomic"
)

// maxNogoods bounds the learned NoGood pool; eviction runs at each restart.
const maxNogoods = 100000

// Luby-like restart schedule constants. restartLimitBump is the additive
// increment applied to both limits when an attempt burns its whole conflict
// budget without learning a single new NoGood (an exploration stall, treated
// more gently than a productive attempt's geometric growth).
const (
	initialInnerLimit   = 5.0
	innerLimitMultiplier = 1.1
	initialOuterLimit   = 10.0
	activityDecay       = 0.99
	restartLimitBump    = 1.0
)

// searchFrame is one level of the explicit DFS stack.
type searchFrame struct {
	varIdx          int
	values          []int
	valIdx          int
	savePoint       int
	prevMin         int
	prevMax         int
	nogoodsBefore   int
	remainingBudget int
}

// decisionStep is one entry of the current attempt's decision trail: the
// (variable, value) pair a frame below the current one committed to in
// order to reach it. Exhausting a frame with no remaining values turns the
// decision trail of its ancestors into a learned NoGood.
type decisionStep struct {
	varIdx int
	value  int
}

// searcher is the engine behind the Solver façade: owns all search
// configuration, the activity map, the learned NoGood pool and its
// two-watched-literal watch index, and partial-assignment reuse state.
// Cancellation (ctx.Done or the stop flag) is polled once per stack
// iteration, between propagation fixpoints.
type searcher struct {
	m     *Model
	stats Stats

	nogoodLearning     bool
	restartEnabled     bool
	activitySelection  bool
	activityFirst      bool
	bisectionThreshold int
	verbose            bool
	narrator           searchNarrator

	activity map[int]float64
	hint     map[int]int

	nogoods       []*NoGood
	nogoodWatches map[int]map[int][]*NoGood

	bestAssignment      map[int]int
	bestNumInstantiated int

	scanOrder []int

	stopped atomic.Bool

	rng *rand.Rand

	innerLimit float64
	outerLimit float64

	commits []decisionStep

	clock int // monotonic counter standing in for "time" in NoGood.LastActive
}

func newSearcher(m *Model) *searcher {
	order := make([]int, m.NumVariables())
	for i := range order {
		order[i] = i
	}
	return &searcher{
		m:                 m,
		nogoodLearning:    true,
		restartEnabled:    true,
		activitySelection: true,
		activity:          make(map[int]float64),
		hint:              make(map[int]int),
		nogoodWatches:     make(map[int]map[int][]*NoGood),
		bestAssignment:    make(map[int]int),
		scanOrder:         order,
		// Fixed seed: solving the same model twice must yield the same
		// first solution and statistics, and the external API has no seed
		// knob, so the seed is constant rather than time-derived.
		rng:        rand.New(rand.NewSource(1)),
		innerLimit: initialInnerLimit,
		outerLimit: initialOuterLimit,
	}
}

// searchNarrator is satisfied structurally by *internal/logging.Narrator;
// the core package does not import the logging package, so the CLI driver
// assigns a Narrator into this field through the Solver façade instead. A
// nil narrator is always safe: every call site below nil-checks before
// invoking it.
type searchNarrator interface {
	Attempt(budget int, restarts int)
	Restart(count int, innerLimit, outerLimit float64, nogoods int)
	Solution(depth int)
	Conflict(learned bool, nogoods int)
}

func (s *searcher) Stop()      { s.stopped.Store(true) }
func (s *searcher) IsStopped() bool { return s.stopped.Load() }
func (s *searcher) ResetStop() { s.stopped.Store(false) }

// --- variable and value selection ---

func (s *searcher) selectVariable() (varIdx int, values []int) {
	varIdx = s.pickVariable(false)
	if varIdx == -1 {
		varIdx = s.pickVariable(true)
	}
	if varIdx == -1 {
		return -1, nil
	}
	return varIdx, s.orderedValues(varIdx)
}

// pickVariable scans scanOrder for the best uninstantiated variable whose
// IsDefinedVar matches wantDefined, minimizing (domainSize, -activity)
// lexicographically, or (-activity, domainSize) when activityFirst is on.
func (s *searcher) pickVariable(wantDefined bool) int {
	best := -1
	var bestA, bestB float64
	for _, vIdx := range s.scanOrder {
		v, err := s.m.Variable(vIdx)
		if err != nil || v.IsInstantiated() {
			continue
		}
		d := v.Data()
		if d.IsDefinedVar != wantDefined {
			continue
		}
		act := 0.0
		if s.activitySelection {
			act = s.activity[vIdx]
		}
		domainSize := float64(d.Size)
		var a, b float64
		if s.activitySelection && s.activityFirst {
			a, b = -act, domainSize
		} else {
			a, b = domainSize, -act
		}
		if best == -1 || a < bestA || (a == bestA && b < bestB) {
			best, bestA, bestB = vIdx, a, b
		}
	}
	return best
}

// orderedValues starts from the Domain's native iteration order and, if a
// hint value for this variable is still live, swaps it to the front.
func (s *searcher) orderedValues(vIdx int) []int {
	v, _ := s.m.Variable(vIdx)
	values := make([]int, 0, v.Data().Size)
	v.dom.IterateValues(func(val int) bool {
		values = append(values, val)
		return true
	})
	if hintVal, ok := s.hint[vIdx]; ok {
		for i, val := range values {
			if val == hintVal {
				values[0], values[i] = values[i], values[0]
				break
			}
		}
	}
	return values
}

// --- NoGood learning and two-watched-literal unit propagation ---

func (s *searcher) watchLiteral(ng *NoGood, pos int) {
	lit := ng.Literals[pos]
	byValue := s.nogoodWatches[lit.VarIdx]
	if byValue == nil {
		byValue = make(map[int][]*NoGood)
		s.nogoodWatches[lit.VarIdx] = byValue
	}
	byValue[lit.Value] = append(byValue[lit.Value], ng)
}

func (s *searcher) unwatchLiteral(ng *NoGood, lit Literal) {
	list := s.nogoodWatches[lit.VarIdx][lit.Value]
	for i, other := range list {
		if other == ng {
			s.nogoodWatches[lit.VarIdx][lit.Value] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (s *searcher) registerNoGood(ng *NoGood) {
	ng.LastActive = s.clock
	s.clock++
	s.nogoods = append(s.nogoods, ng)
	s.watchLiteral(ng, ng.W1)
	if ng.W2 != ng.W1 {
		s.watchLiteral(ng, ng.W2)
	}
}

func (s *searcher) learnNoGood(commits []decisionStep) {
	literals := make([]Literal, len(commits))
	bump := 1.0 / float64(len(commits))
	for i, c := range commits {
		literals[i] = Literal{VarIdx: c.varIdx, Value: c.value}
		s.activity[c.varIdx] += bump
	}
	s.registerNoGood(newNoGood(literals, false))
	s.stats.NogoodCount++
	s.stats.NogoodsSize = len(s.nogoods)
	if s.narrator != nil {
		s.narrator.Conflict(true, len(s.nogoods))
	}
}

// captureSolutionLiterals snapshots the current assignment of every
// non-constant variable while the solution is still live on the trail, for
// all-solutions blocking.
func (s *searcher) captureSolutionLiterals() []Literal {
	literals := make([]Literal, 0, s.m.NumVariables())
	for i := 0; i < s.m.NumVariables(); i++ {
		v, _ := s.m.Variable(i)
		if v.Data().InitialRange == 1 {
			continue // constant: can never vary, no need to block it
		}
		if val, ok := v.Value(); ok {
			literals = append(literals, Literal{VarIdx: i, Value: val})
		}
	}
	return literals
}

// blockSolution registers the captured assignment as a permanent NoGood.
// Called after the rewind to root, so literals of variables that stayed
// instantiated (forced by root propagation, identical in every solution) are
// dropped first: a watch on one of those would never fire again. An empty
// remainder means root propagation admits exactly one solution.
func (s *searcher) blockSolution(literals []Literal) (blocked bool) {
	kept := literals[:0]
	for _, lit := range literals {
		v, _ := s.m.Variable(lit.VarIdx)
		if v.IsInstantiated() {
			continue
		}
		kept = append(kept, lit)
	}
	if len(kept) == 0 {
		return false
	}
	s.registerNoGood(newNoGood(kept, true))
	s.stats.NogoodCount++
	s.stats.NogoodsSize = len(s.nogoods)
	return true
}

func (s *searcher) literalSatisfied(lit Literal) bool {
	v, err := s.m.Variable(lit.VarIdx)
	if err != nil {
		return false
	}
	val, ok := v.Value()
	return ok && val == lit.Value
}

// onInstantiateNoGood is installed on Model.noGoodOnInstantiate for the
// duration of a search; it runs two-watched-literal unit propagation for
// every learned or imported NoGood watching the (var,value) literal that was
// just instantiated.
// Runs even when learning is off: the pool may still hold permanent
// solution-blocking clauses and imported NoGoods, which must keep firing.
func (s *searcher) onInstantiateNoGood(vIdx, value int) (bool, error) {
	watchers := s.nogoodWatches[vIdx][value]
	if len(watchers) == 0 {
		return true, nil
	}
	// Copy first: propagateNoGood may mutate nogoodWatches[vIdx][value] by
	// moving a watch elsewhere, which would otherwise corrupt this range.
	snapshot := append([]*NoGood(nil), watchers...)
	for _, ng := range snapshot {
		s.stats.NogoodCheckCount++
		ok, err := s.propagateNoGood(ng, vIdx, value)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

func (s *searcher) propagateNoGood(ng *NoGood, vIdx, value int) (bool, error) {
	ng.LastActive = s.clock
	s.clock++

	var matched, other int
	l1 := ng.Literals[ng.W1]
	if l1.VarIdx == vIdx && l1.Value == value {
		matched, other = ng.W1, ng.W2
	} else {
		matched, other = ng.W2, ng.W1
	}
	matchedLit := ng.Literals[matched]

	for idx := range ng.Literals {
		if idx == ng.W1 || idx == ng.W2 {
			continue
		}
		if !s.literalSatisfied(ng.Literals[idx]) {
			s.unwatchLiteral(ng, matchedLit)
			if matched == ng.W1 {
				ng.W1 = idx
			} else {
				ng.W2 = idx
			}
			s.watchLiteral(ng, idx)
			return true, nil
		}
	}

	otherLit := ng.Literals[other]
	if s.literalSatisfied(otherLit) {
		s.stats.NogoodPruneCount++
		return false, nil
	}
	// Unit: forbid the remaining watched literal. Enqueued, not applied
	// directly, so the removal flows through Propagate and its watchers (and
	// any further NoGoods) see it like every other deduction.
	v, err := s.m.Variable(otherLit.VarIdx)
	if err != nil {
		return false, err
	}
	if v.Data().Size == 2 && v.dom.Contains(otherLit.Value) {
		s.stats.NogoodInstantiateCount++
	} else {
		s.stats.NogoodDomainCount++
	}
	s.m.EnqueueRemoveValue(otherLit.VarIdx, otherLit.Value)
	return true, nil
}

func (s *searcher) evictNoGoods() {
	if len(s.nogoods) <= maxNogoods {
		return
	}
	sort.SliceStable(s.nogoods, func(i, j int) bool {
		a, b := s.nogoods[i], s.nogoods[j]
		if a.Permanent != b.Permanent {
			return a.Permanent
		}
		return a.LastActive > b.LastActive
	})
	dropped := s.nogoods[maxNogoods:]
	s.nogoods = s.nogoods[:maxNogoods:maxNogoods]
	for _, ng := range dropped {
		s.unwatchLiteral(ng, ng.Literals[ng.W1])
		if ng.W2 != ng.W1 {
			s.unwatchLiteral(ng, ng.Literals[ng.W2])
		}
	}
	s.stats.NogoodsSize = len(s.nogoods)
}

// --- partial-assignment reuse ---

func (s *searcher) recordBestPartial() {
	count := s.m.InstantiatedCount()
	if count <= s.bestNumInstantiated {
		return
	}
	s.bestNumInstantiated = count
	s.bestAssignment = make(map[int]int, count)
	for i := 0; i < s.m.NumVariables(); i++ {
		v, _ := s.m.Variable(i)
		if val, ok := v.Value(); ok {
			s.bestAssignment[i] = val
		}
	}
}

// --- restart schedule ---

func (s *searcher) restart(learnedNew bool) {
	if !learnedNew {
		s.innerLimit += restartLimitBump
		s.outerLimit += restartLimitBump
	} else {
		s.innerLimit *= innerLimitMultiplier
		if s.innerLimit > s.outerLimit {
			s.outerLimit *= innerLimitMultiplier
			s.innerLimit = initialInnerLimit
		}
	}
	for v := range s.activity {
		s.activity[v] *= activityDecay
	}
	s.rng.Shuffle(len(s.scanOrder), func(i, j int) {
		s.scanOrder[i], s.scanOrder[j] = s.scanOrder[j], s.scanOrder[i]
	})
	s.activityFirst = !s.activityFirst
	// Overlay rather than replace: a caller-provided hint for a variable the
	// best partial never reached stays in force.
	for k, v := range s.bestAssignment {
		s.hint[k] = v
	}
	s.evictNoGoods()
	s.stats.RestartCount++
	if s.narrator != nil {
		s.narrator.Restart(s.stats.RestartCount, s.innerLimit, s.outerLimit, len(s.nogoods))
	}
}

// --- the DFS attempt itself ---

// attempt runs one bounded DFS descent from the Model's current state.
// budget <= 0 means unlimited. It returns as soon as a complete solution is
// reached (found=true), the search space from this root is exhausted
// (found=false, budgetExhausted=false: proven UNSAT), the conflict budget
// runs out first (budgetExhausted=true), or cancellation is observed.
//
// The parallel decision-commit trail feeds NoGood synthesis: commits always
// holds exactly the ancestor assignments of the current top frame, never the
// top frame's own (still-undecided) choice.
func (s *searcher) attempt(ctx context.Context, budget int) (sol *Solution, found, budgetExhausted, cancelled bool, err error) {
	rootLevel := s.m.CurrentLevel()
	s.commits = s.commits[:0]

	if ok, perr := s.m.Propagate(); perr != nil {
		return nil, false, false, false, perr
	} else if !ok {
		return nil, false, false, false, nil
	}
	if s.m.InstantiatedCount() == s.m.NumVariables() {
		if s.narrator != nil {
			s.narrator.Solution(0)
		}
		return s.snapshotSolution(), true, false, false, nil
	}

	firstVar, firstValues := s.selectVariable()
	if firstVar == -1 {
		if s.narrator != nil {
			s.narrator.Solution(0)
		}
		return s.snapshotSolution(), true, false, false, nil
	}
	stack := []searchFrame{{
		varIdx: firstVar, values: firstValues, savePoint: s.m.CurrentLevel(),
		nogoodsBefore: len(s.nogoods), remainingBudget: budget,
	}}

	conflicts := 0

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			s.m.RewindTo(rootLevel)
			return nil, false, false, true, nil
		default:
		}
		if s.stopped.Load() {
			s.m.RewindTo(rootLevel)
			return nil, false, false, true, nil
		}

		f := &stack[len(stack)-1]
		s.stats.recordDepth(len(stack))

		if f.valIdx >= len(f.values) {
			if s.nogoodLearning && len(s.commits) >= 2 {
				s.learnNoGood(s.commits)
			}
			s.recordBestPartial()
			stack = stack[:len(stack)-1]
			if len(s.commits) > 0 {
				s.commits = s.commits[:len(s.commits)-1]
			}
			// FailCount counts dead ends (frame exhaustions) only; the
			// conflict budget is charged per failed value assignment below,
			// not again here.
			s.stats.FailCount++
			if len(stack) > 0 {
				s.m.RewindTo(stack[len(stack)-1].savePoint)
			} else {
				s.m.RewindTo(rootLevel)
			}
			continue
		}

		val := f.values[f.valIdx]
		f.valIdx++

		// The branch assignment goes through the queue like any propagator
		// deduction, so every watcher (and the NoGood watch index) sees it.
		s.m.PushLevel()
		s.m.EnqueueInstantiate(f.varIdx, val)
		ok, perr := s.m.Propagate()
		if perr != nil {
			return nil, false, false, false, perr
		}
		if !ok {
			s.recordBestPartial()
			s.m.RewindTo(f.savePoint)
			conflicts++
			if budget > 0 && conflicts >= budget {
				s.m.RewindTo(rootLevel)
				return nil, false, true, false, nil
			}
			continue
		}

		s.commits = append(s.commits, decisionStep{varIdx: f.varIdx, value: val})

		if s.m.InstantiatedCount() == s.m.NumVariables() {
			s.recordBestPartial()
			if s.narrator != nil {
				s.narrator.Solution(len(stack))
			}
			return s.snapshotSolution(), true, false, false, nil
		}

		nextVar, nextValues := s.selectVariable()
		if nextVar == -1 {
			s.recordBestPartial()
			if s.narrator != nil {
				s.narrator.Solution(len(stack))
			}
			return s.snapshotSolution(), true, false, false, nil
		}
		stack = append(stack, searchFrame{
			varIdx: nextVar, values: nextValues, savePoint: s.m.CurrentLevel(),
			nogoodsBefore: len(s.nogoods), remainingBudget: budget,
		})
	}

	return nil, false, false, false, nil
}

// searchOnce runs restart-wrapped attempts until a solution is found, the
// problem is proven unsatisfiable, or the search is cancelled.
func (s *searcher) searchOnce(ctx context.Context) (sol *Solution, found, cancelled bool, err error) {
	for {
		if ctx.Err() != nil || s.stopped.Load() {
			return nil, false, true, nil
		}
		budget := -1
		if s.restartEnabled {
			budget = int(s.innerLimit)
		}
		if s.narrator != nil {
			s.narrator.Attempt(budget, s.stats.RestartCount)
		}
		nogoodsBefore := len(s.nogoods)
		sol, found, budgetExhausted, cancelled, err := s.attempt(ctx, budget)
		if err != nil {
			return nil, false, false, err
		}
		if cancelled {
			return nil, false, true, nil
		}
		if found {
			return sol, true, false, nil
		}
		if !budgetExhausted {
			return nil, false, false, nil
		}
		learnedNew := len(s.nogoods) > nogoodsBefore
		s.restart(learnedNew)
	}
}

func (s *searcher) snapshotSolution() *Solution {
	sol := &Solution{values: make(map[string]int)}
	for i := 0; i < s.m.NumVariables(); i++ {
		v, _ := s.m.Variable(i)
		if val, ok := v.Value(); ok && v.Name != "" {
			sol.values[v.Name] = val
		}
	}
	for alias, vIdx := range s.m.aliases {
		v, err := s.m.Variable(vIdx)
		if err != nil {
			continue
		}
		if val, ok := v.Value(); ok {
			sol.values[alias] = val
		}
	}
	return sol
}

// --- top-level modes driving the Solver façade ---

func (s *searcher) withNoGoodHook(fn func()) {
	s.m.noGoodOnInstantiate = s.onInstantiateNoGood
	defer func() { s.m.noGoodOnInstantiate = nil }()
	fn()
}

func (s *searcher) solveSingle(ctx context.Context) (*Solution, bool) {
	var sol *Solution
	var found bool
	s.withNoGoodHook(func() {
		sol, found, _, _ = s.searchOnce(ctx)
	})
	return sol, found
}

// solveAll enumerates solutions via repeated searchOnce calls, blocking each
// found solution with a permanent NoGood before retrying from scratch.
// callback returning false stops enumeration early.
func (s *searcher) solveAll(ctx context.Context, callback func(*Solution) bool) int {
	count := 0
	s.withNoGoodHook(func() {
		for {
			sol, found, cancelled, err := s.searchOnce(ctx)
			if err != nil || cancelled || !found {
				return
			}
			count++
			keepGoing := true
			if callback != nil {
				keepGoing = callback(sol)
			}
			// Capture while the assignment is still live, unwind to the root,
			// then block what remains branchable.
			literals := s.captureSolutionLiterals()
			s.m.RewindTo(0)
			if !s.blockSolution(literals) {
				return
			}
			if !keepGoing {
				return
			}
		}
	})
	return count
}

// solveOptimize implements branch-and-bound: each SAT tightens the
// objective's root bound and the whole search restarts from the (now
// tighter) root, until infeasibility proves the last-reported solution
// optimal.
func (s *searcher) solveOptimize(ctx context.Context, objVar int, minimize bool, onImprove func(*Solution) bool) (*Solution, bool) {
	var best *Solution
	haveBest := false
	s.withNoGoodHook(func() {
		for {
			sol, found, cancelled, err := s.searchOnce(ctx)
			if err != nil || cancelled || !found {
				return
			}
			v, _ := s.m.Variable(objVar)
			bestObj, _ := v.Value()
			best, haveBest = sol, true

			keepGoing := true
			if onImprove != nil {
				keepGoing = onImprove(sol)
			}
			if !keepGoing {
				return
			}

			// The tightened bound is enqueued at the root, so the next
			// attempt's opening Propagate dispatches it to every watcher; if
			// it empties the objective's domain the attempt proves UNSAT and
			// the loop exits with the current best.
			s.m.RewindTo(0)
			if minimize {
				s.m.EnqueueSetMax(objVar, bestObj-1)
			} else {
				s.m.EnqueueSetMin(objVar, bestObj+1)
			}
		}
	})
	return best, haveBest
}
