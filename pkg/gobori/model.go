package gobori

import "fmt"

// Model owns all Variables and Constraints for one solve and the trails
// that make backtracking O(delta): the variable-delta trail, the
// dirty-constraint trail, and the pending-update FIFO queue that decouples
// propagator event callbacks from actual mutation.
//
// Once BuildConstraintWatchList has run the set of variables and
// constraints is frozen; CreateVariable/AddConstraint after that point
// return ErrFrozenModel.
type Model struct {
	variables []*Variable
	nameToID  map[string]int
	aliases   map[string]int

	constraints      []Constraint
	varToConstraints [][]watchEntry

	varTrail             []VarTrailEntry
	dirtyConstraintTrail []DirtyEntry

	queue []pendingUpdate

	currentDecision   int
	instantiatedCount int

	built bool

	// noGoodOnInstantiate is installed by the search engine before solving
	// to drive NoGood two-watched-literal unit propagation on every new
	// instantiation.
	noGoodOnInstantiate func(vIdx, value int) (bool, error)
}

// NewModel returns an empty Model ready for CreateVariable/AddConstraint
// calls.
func NewModel() *Model {
	return &Model{
		nameToID: make(map[string]int),
		aliases:  make(map[string]int),
	}
}

// NumVariables returns the number of variables registered so far.
func (m *Model) NumVariables() int { return len(m.variables) }

// NumConstraints returns the number of constraints registered so far.
func (m *Model) NumConstraints() int { return len(m.constraints) }

// ConstraintAt returns the constraint at dense index idx.
func (m *Model) ConstraintAt(idx int) Constraint { return m.constraints[idx] }

// InstantiatedCount is the running count of variables currently at
// Size()==1, maintained as a delta on every relevant transition rather than
// recomputed from scratch.
func (m *Model) InstantiatedCount() int { return m.instantiatedCount }

// CurrentLevel returns the active decision level.
func (m *Model) CurrentLevel() int { return m.currentDecision }

// PushLevel increments and returns the new decision level. Called by the
// search engine before trying a branch.
func (m *Model) PushLevel() int {
	m.currentDecision++
	return m.currentDecision
}

// Variable returns the Variable at the given dense index.
func (m *Model) Variable(idx int) (*Variable, error) {
	if idx < 0 || idx >= len(m.variables) {
		return nil, ErrUnknownVariable
	}
	return m.variables[idx], nil
}

// VariableByName resolves a variable or alias name to its index.
func (m *Model) VariableByName(name string) (int, error) {
	if id, ok := m.nameToID[name]; ok {
		return id, nil
	}
	if id, ok := m.aliases[name]; ok {
		return id, nil
	}
	return 0, ErrUnknownVariable
}

// CreateVariable registers a new variable with domain [min,max].
func (m *Model) CreateVariable(name string, min, max int) (int, error) {
	if m.built {
		return 0, ErrFrozenModel
	}
	d, err := newDomain(min, max)
	if err != nil {
		return 0, err
	}
	return m.registerVariable(name, d), nil
}

// CreateVariableFromValue registers a variable fixed to a single value.
func (m *Model) CreateVariableFromValue(name string, value int) (int, error) {
	return m.CreateVariable(name, value, value)
}

// CreateVariableFromValues registers a variable whose domain is exactly the
// given (possibly sparse) set of values.
func (m *Model) CreateVariableFromValues(name string, values []int) (int, error) {
	if m.built {
		return 0, ErrFrozenModel
	}
	d, err := newDomainFromValues(values)
	if err != nil {
		return 0, err
	}
	return m.registerVariable(name, d), nil
}

func (m *Model) registerVariable(name string, d domain) int {
	id := len(m.variables)
	v := newVariable(id, name, d)
	m.variables = append(m.variables, v)
	m.varToConstraints = append(m.varToConstraints, nil)
	if name != "" {
		m.nameToID[name] = id
	}
	return id
}

// AddVariableAlias registers an additional name for an existing variable;
// aliases are surfaced in solutions the same as the primary name.
func (m *Model) AddVariableAlias(aliasName string, varID int) error {
	if varID < 0 || varID >= len(m.variables) {
		return ErrUnknownVariable
	}
	m.aliases[aliasName] = varID
	return nil
}

// SetDefinedVar marks a variable as functionally determined by others,
// deprioritizing it in branching.
func (m *Model) SetDefinedVar(varID int) error {
	v, err := m.Variable(varID)
	if err != nil {
		return err
	}
	v.data.IsDefinedVar = true
	return nil
}

// selfIndexer is an optional capability: stateful propagators that need to
// call MarkConstraintDirty on themselves implement it so AddConstraint can
// tell them their own dense index once, instead of scanning m.constraints.
type selfIndexer interface {
	setSelfIndex(idx int)
}

// AddConstraint registers a constraint and returns its dense index.
func (m *Model) AddConstraint(c Constraint) (int, error) {
	if m.built {
		return 0, ErrFrozenModel
	}
	idx := len(m.constraints)
	m.constraints = append(m.constraints, c)
	if si, ok := c.(selfIndexer); ok {
		si.setSelfIndex(idx)
	}
	return idx, nil
}

// BuildConstraintWatchList fills var_to_constraint from each constraint's
// declared Variables() and freezes the Model against further
// variable/constraint registration. Required once before Solve.
func (m *Model) BuildConstraintWatchList() error {
	for cIdx, c := range m.constraints {
		for slot, vIdx := range c.Variables() {
			if vIdx < 0 || vIdx >= len(m.variables) {
				return fmt.Errorf("constraint %s: %w", c.Name(), ErrUnknownVariable)
			}
			m.varToConstraints[vIdx] = append(m.varToConstraints[vIdx], watchEntry{constraintIdx: cIdx, internalSlot: slot})
		}
	}
	m.built = true
	return nil
}

// saveVarState writes the pre-mutation delta for vIdx at the current level,
// coalescing so at most one entry exists per (variable, level) pair.
func (m *Model) saveVarState(vIdx int) {
	v := m.variables[vIdx]
	if v.data.LastSavedLevel == m.currentDecision {
		return
	}
	m.varTrail = append(m.varTrail, VarTrailEntry{
		Level:          m.currentDecision,
		VarIdx:         vIdx,
		OldData:        v.data,
		OldDomSnapshot: v.dom.snapshot(),
	})
	v.data.LastSavedLevel = m.currentDecision
}

// MarkConstraintDirty records that constraint cIdx mutated its own state at
// the current level, so RewindTo routes to its RewindTo method. Propagators
// must call this no later than their first state mutation per level.
func (m *Model) MarkConstraintDirty(cIdx int) {
	n := len(m.dirtyConstraintTrail)
	if n > 0 {
		last := m.dirtyConstraintTrail[n-1]
		if last.Level == m.currentDecision && last.ConstraintIdx == cIdx {
			return
		}
	}
	m.dirtyConstraintTrail = append(m.dirtyConstraintTrail, DirtyEntry{Level: m.currentDecision, ConstraintIdx: cIdx})
}

// applyTransition updates the instantiated-variable counter exactly once per
// size>1→size==1 transition (and its inverse).
func (m *Model) applyTransition(becameInst, becameUninst bool) {
	if becameInst {
		m.instantiatedCount++
	}
	if becameUninst {
		m.instantiatedCount--
	}
}

// Instantiate narrows varIdx's domain to exactly {value}. Returns false iff
// value is not in the domain. Callback dispatch is the caller's job.
func (m *Model) Instantiate(vIdx, value int) (bool, error) {
	v, err := m.Variable(vIdx)
	if err != nil {
		return false, err
	}
	if v.data.Size == 1 {
		cur, _ := v.Value()
		return cur == value, nil
	}
	if !v.dom.Contains(value) {
		return false, nil
	}
	m.saveVarState(vIdx)
	if !v.dom.AssignValue(value) {
		return false, nil
	}
	becameInst, becameUninst := v.syncFromDomain()
	m.applyTransition(becameInst, becameUninst)
	return true, nil
}

// SetMin raises varIdx's minimum to newMin. No-op (success) if newMin is not
// an actual tightening.
func (m *Model) SetMin(vIdx, newMin int) (bool, error) {
	v, err := m.Variable(vIdx)
	if err != nil {
		return false, err
	}
	if newMin <= v.data.Min {
		return true, nil
	}
	m.saveVarState(vIdx)
	if !v.dom.RemoveBelow(newMin) {
		return false, nil
	}
	becameInst, becameUninst := v.syncFromDomain()
	m.applyTransition(becameInst, becameUninst)
	return true, nil
}

// SetMax lowers varIdx's maximum to newMax. No-op (success) if newMax is not
// an actual tightening.
func (m *Model) SetMax(vIdx, newMax int) (bool, error) {
	v, err := m.Variable(vIdx)
	if err != nil {
		return false, err
	}
	if newMax >= v.data.Max {
		return true, nil
	}
	m.saveVarState(vIdx)
	if !v.dom.RemoveAbove(newMax) {
		return false, nil
	}
	becameInst, becameUninst := v.syncFromDomain()
	m.applyTransition(becameInst, becameUninst)
	return true, nil
}

// RemoveValue removes a single value from varIdx's domain. No-op (success)
// if the value is already absent.
func (m *Model) RemoveValue(vIdx, value int) (bool, error) {
	v, err := m.Variable(vIdx)
	if err != nil {
		return false, err
	}
	if !v.dom.Contains(value) {
		return true, nil
	}
	m.saveVarState(vIdx)
	if !v.dom.Remove(value) {
		return false, nil
	}
	becameInst, becameUninst := v.syncFromDomain()
	m.applyTransition(becameInst, becameUninst)
	return true, nil
}

// RewindTo undoes every variable and constraint delta recorded strictly
// above savePoint, in reverse chronological order.
func (m *Model) RewindTo(savePoint int) {
	for len(m.varTrail) > 0 && m.varTrail[len(m.varTrail)-1].Level > savePoint {
		last := len(m.varTrail) - 1
		entry := m.varTrail[last]
		m.varTrail = m.varTrail[:last]

		v := m.variables[entry.VarIdx]
		wasInstantiated := v.data.Size == 1
		v.dom.restore(entry.OldDomSnapshot)
		v.data = entry.OldData
		v.data.LastSavedLevel = -1
		nowInstantiated := v.data.Size == 1
		if wasInstantiated && !nowInstantiated {
			m.instantiatedCount--
		}
		if !wasInstantiated && nowInstantiated {
			m.instantiatedCount++
		}
	}
	m.rewindDirtyConstraints(savePoint)
	m.currentDecision = savePoint
	m.queue = m.queue[:0]
}

// rewindDirtyConstraints calls RewindTo on every constraint that recorded a
// DirtyEntry strictly above savePoint.
func (m *Model) rewindDirtyConstraints(savePoint int) {
	for len(m.dirtyConstraintTrail) > 0 && m.dirtyConstraintTrail[len(m.dirtyConstraintTrail)-1].Level > savePoint {
		last := len(m.dirtyConstraintTrail) - 1
		entry := m.dirtyConstraintTrail[last]
		m.dirtyConstraintTrail = m.dirtyConstraintTrail[:last]
		m.constraints[entry.ConstraintIdx].RewindTo(savePoint)
	}
}

// Pending-update queue, drained exclusively by the propagation engine.

func (m *Model) EnqueueInstantiate(vIdx, value int) {
	m.queue = append(m.queue, pendingUpdate{kind: updInstantiate, vIdx: vIdx, value: value})
}

func (m *Model) EnqueueSetMin(vIdx, newMin int) {
	m.queue = append(m.queue, pendingUpdate{kind: updSetMin, vIdx: vIdx, value: newMin})
}

func (m *Model) EnqueueSetMax(vIdx, newMax int) {
	m.queue = append(m.queue, pendingUpdate{kind: updSetMax, vIdx: vIdx, value: newMax})
}

func (m *Model) EnqueueRemoveValue(vIdx, value int) {
	m.queue = append(m.queue, pendingUpdate{kind: updRemoveValue, vIdx: vIdx, value: value})
}

func (m *Model) queueEmpty() bool { return len(m.queue) == 0 }

func (m *Model) popQueue() (pendingUpdate, bool) {
	if len(m.queue) == 0 {
		return pendingUpdate{}, false
	}
	u := m.queue[0]
	m.queue = m.queue[1:]
	return u, true
}

func (m *Model) clearQueue() { m.queue = m.queue[:0] }

// PresolveFixpoint runs every constraint's Presolve in registration order
// until the aggregate Σ size(v) + Σ range(v) measure stops decreasing, then
// calls PreparePropagation once per constraint.
func (m *Model) PresolveFixpoint() (bool, error) {
	for {
		measureBefore := m.measure()
		for _, c := range m.constraints {
			ok, err := c.Presolve(m)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			if ok2, err2 := m.drainQueueNoDispatch(); err2 != nil {
				return false, err2
			} else if !ok2 {
				return false, nil
			}
		}
		if m.measure() == measureBefore {
			break
		}
	}
	for _, c := range m.constraints {
		if err := c.PreparePropagation(m); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (m *Model) measure() int {
	total := 0
	for _, v := range m.variables {
		total += v.data.Size + (v.data.Max - v.data.Min + 1)
	}
	return total
}

// drainQueueNoDispatch is presolve's simplified queue handling: presolve
// propagators narrow directly or enqueue plain domain tightenings, and
// PresolveFixpoint re-runs every Presolve body until nothing changes, so
// these requests are applied without fanning out to the watchers that
// BuildConstraintWatchList has already installed. It applies queued
// updates directly and reports false on the first failure.
func (m *Model) drainQueueNoDispatch() (bool, error) {
	for {
		u, ok := m.popQueue()
		if !ok {
			return true, nil
		}
		var applied bool
		var err error
		switch u.kind {
		case updInstantiate:
			applied, err = m.Instantiate(u.vIdx, u.value)
		case updSetMin:
			applied, err = m.SetMin(u.vIdx, u.value)
		case updSetMax:
			applied, err = m.SetMax(u.vIdx, u.value)
		case updRemoveValue:
			applied, err = m.RemoveValue(u.vIdx, u.value)
		}
		if err != nil {
			return false, err
		}
		if !applied {
			return false, nil
		}
	}
}
