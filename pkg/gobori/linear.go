package gobori

// Linear constraints (int_lin_eq, int_lin_le, int_lin_ne) over running
// scalars updated in O(1) per event: fixedSum over the instantiated terms,
// and minRemPotential/maxRemPotential bracketing what the uninstantiated
// terms can still contribute. The aggregates are trailed as a unit, not
// per element.

type linearTrailEntry struct {
	level                               int
	fixedSum, minRemPotential, maxRemPotential, unfixedCount int
}

// linearCore is the shared running-scalar bookkeeping for all three linear
// relations; each relation type embeds it and supplies its own pruning and
// satisfaction checks.
type linearCore struct {
	coeffs []int
	vars   []int
	target int
	m      *Model

	slotMin, slotMax []int
	fixed            []bool

	fixedSum        int
	minRemPotential int
	maxRemPotential int
	unfixedCount    int

	trail []linearTrailEntry
	idx   int // this constraint's own dense index, learned via setSelfIndex
}

func (lc *linearCore) setSelfIndex(idx int) { lc.idx = idx }

func potentialMin(c, min, max int) int {
	if c >= 0 {
		return c * min
	}
	return c * max
}

func potentialMax(c, min, max int) int {
	if c >= 0 {
		return c * max
	}
	return c * min
}

func ceilDivSigned(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}

func floorDivSigned(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (lc *linearCore) variables() []int { return lc.vars }

func (lc *linearCore) prepare(m *Model) {
	lc.m = m
	n := len(lc.vars)
	lc.slotMin = make([]int, n)
	lc.slotMax = make([]int, n)
	lc.fixed = make([]bool, n)
	lc.fixedSum, lc.minRemPotential, lc.maxRemPotential, lc.unfixedCount = 0, 0, 0, 0
	for i, vIdx := range lc.vars {
		v, _ := m.Variable(vIdx)
		d := v.Data()
		lc.slotMin[i], lc.slotMax[i] = d.Min, d.Max
		if val, ok := v.Value(); ok {
			lc.fixed[i] = true
			lc.fixedSum += lc.coeffs[i] * val
		} else {
			lc.unfixedCount++
			lc.minRemPotential += potentialMin(lc.coeffs[i], d.Min, d.Max)
			lc.maxRemPotential += potentialMax(lc.coeffs[i], d.Min, d.Max)
		}
	}
}

func (lc *linearCore) saveTrail(m *Model, cIdx int) {
	level := m.CurrentLevel()
	if n := len(lc.trail); n > 0 && lc.trail[n-1].level == level {
		return
	}
	m.MarkConstraintDirty(cIdx)
	lc.trail = append(lc.trail, linearTrailEntry{
		level: level, fixedSum: lc.fixedSum,
		minRemPotential: lc.minRemPotential, maxRemPotential: lc.maxRemPotential,
		unfixedCount: lc.unfixedCount,
	})
}

func (lc *linearCore) rewindTo(savePoint int) {
	for len(lc.trail) > 0 && lc.trail[len(lc.trail)-1].level > savePoint {
		last := len(lc.trail) - 1
		e := lc.trail[last]
		lc.trail = lc.trail[:last]
		lc.fixedSum, lc.minRemPotential, lc.maxRemPotential, lc.unfixedCount =
			e.fixedSum, e.minRemPotential, e.maxRemPotential, e.unfixedCount
	}
	// slotMin/slotMax/fixed are re-derived implicitly: any slot the Model
	// itself rewound back to unfixed will be re-observed on the next event
	// that touches it, since fixed[] tracks "was last reported instantiated
	// to this constraint", not Model ground truth. Recompute from the Model
	// directly to stay exact.
	for i, vIdx := range lc.vars {
		v, _ := lc.m.Variable(vIdx)
		d := v.Data()
		lc.slotMin[i], lc.slotMax[i] = d.Min, d.Max
		_, wasInst := v.Value()
		lc.fixed[i] = wasInst
	}
}

func (lc *linearCore) onInstantiate(cIdx, slot, value int) {
	c := lc.coeffs[slot]
	if !lc.fixed[slot] {
		lc.minRemPotential -= potentialMin(c, lc.slotMin[slot], lc.slotMax[slot])
		lc.maxRemPotential -= potentialMax(c, lc.slotMin[slot], lc.slotMax[slot])
		lc.unfixedCount--
	}
	lc.fixed[slot] = true
	lc.slotMin[slot], lc.slotMax[slot] = value, value
	lc.fixedSum += c * value
}

// onBoundChange recomputes slot's potential contribution after a
// min/max tightening (slot remains unfixed); caller passes the new bounds.
func (lc *linearCore) onBoundChange(slot, newMin, newMax int) {
	c := lc.coeffs[slot]
	oldMinPot := potentialMin(c, lc.slotMin[slot], lc.slotMax[slot])
	oldMaxPot := potentialMax(c, lc.slotMin[slot], lc.slotMax[slot])
	lc.slotMin[slot], lc.slotMax[slot] = newMin, newMax
	newMinPot := potentialMin(c, newMin, newMax)
	newMaxPot := potentialMax(c, newMin, newMax)
	lc.minRemPotential += newMinPot - oldMinPot
	lc.maxRemPotential += newMaxPot - oldMaxPot
}

// otherPotentials returns minRemPotential and maxRemPotential with slot's
// own contribution (from its current bounds) taken out, i.e. the potentials
// of the remaining terms other than slot.
func (lc *linearCore) otherPotentials(slot int) (otherMin, otherMax int) {
	c := lc.coeffs[slot]
	ownMin := potentialMin(c, lc.slotMin[slot], lc.slotMax[slot])
	ownMax := potentialMax(c, lc.slotMin[slot], lc.slotMax[slot])
	return lc.minRemPotential - ownMin, lc.maxRemPotential - ownMax
}

// IntLinEq is Σ coeffs[i]*vars[i] == target.
type IntLinEq struct {
	core linearCore
}

func NewIntLinEq(coeffs, vars []int, target int) *IntLinEq {
	return &IntLinEq{core: linearCore{coeffs: append([]int(nil), coeffs...), vars: append([]int(nil), vars...), target: target}}
}

func (c *IntLinEq) Name() string             { return "int_lin_eq" }
func (c *IntLinEq) Variables() []int         { return c.core.variables() }
func (c *IntLinEq) CheckInitialConsistency() {}

func (c *IntLinEq) PreparePropagation(m *Model) error {
	c.core.prepare(m)
	return nil
}

func (c *IntLinEq) RewindTo(savePoint int) { c.core.rewindTo(savePoint) }

// Presolve re-derives the running scalars from live domains every round:
// other constraints' presolve pruning lands between calls without any event
// dispatch, so a one-shot prepare would go stale.
func (c *IntLinEq) Presolve(m *Model) (bool, error) {
	c.core.prepare(m)
	return c.prune(m)
}

func (c *IntLinEq) prune(m *Model) (bool, error) {
	lc := &c.core
	for i := range lc.vars {
		if lc.fixed[i] || lc.coeffs[i] == 0 {
			continue
		}
		coeff := lc.coeffs[i]
		otherMin, otherMax := lc.otherPotentials(i)
		lo := lc.target - lc.fixedSum - otherMax
		hi := lc.target - lc.fixedSum - otherMin
		var vLo, vHi int
		if coeff > 0 {
			vLo, vHi = ceilDivSigned(lo, coeff), floorDivSigned(hi, coeff)
		} else {
			vLo, vHi = ceilDivSigned(hi, coeff), floorDivSigned(lo, coeff)
		}
		m.EnqueueSetMin(lc.vars[i], vLo)
		m.EnqueueSetMax(lc.vars[i], vHi)
	}
	return true, nil
}

func (c *IntLinEq) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	c.core.saveTrail(m, c.core.idx)
	c.core.onInstantiate(c.core.idx, slot, value)
	return c.prune(m)
}

func (c *IntLinEq) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	c.core.saveTrail(m, c.core.idx)
	vIdx := c.core.vars[slot]
	v, _ := m.Variable(vIdx)
	c.core.onBoundChange(slot, newMin, v.Data().Max)
	return c.prune(m)
}

func (c *IntLinEq) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	c.core.saveTrail(m, c.core.idx)
	vIdx := c.core.vars[slot]
	v, _ := m.Variable(vIdx)
	c.core.onBoundChange(slot, v.Data().Min, newMax)
	return c.prune(m)
}

func (c *IntLinEq) OnRemoveValue(m *Model, level, slot, value int) (bool, error) { return true, nil }

func (c *IntLinEq) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) {
	lc := &c.core
	coeff := lc.coeffs[lastSlot]
	rem := lc.target - lc.fixedSum
	if coeff == 0 {
		return rem == 0, nil
	}
	if rem%coeff != 0 {
		return false, nil
	}
	m.EnqueueInstantiate(lc.vars[lastSlot], rem/coeff)
	return true, nil
}

func (c *IntLinEq) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntLinEq) IsSatisfied() Tribool {
	lc := &c.core
	sum := 0
	allFixed := true
	for i, vIdx := range lc.vars {
		v, _ := lc.m.Variable(vIdx)
		if val, ok := v.Value(); ok {
			sum += lc.coeffs[i] * val
		} else {
			allFixed = false
		}
	}
	if allFixed {
		if sum == lc.target {
			return True
		}
		return False
	}
	if lc.fixedSum+lc.maxRemPotential < lc.target || lc.fixedSum+lc.minRemPotential > lc.target {
		return False
	}
	return Unknown
}

func (c *IntLinEq) setSelfIndex(idx int) { c.core.setSelfIndex(idx) }

// IntLinLe is Σ coeffs[i]*vars[i] <= bound.
type IntLinLe struct {
	core linearCore
}

func NewIntLinLe(coeffs, vars []int, bound int) *IntLinLe {
	return &IntLinLe{core: linearCore{coeffs: append([]int(nil), coeffs...), vars: append([]int(nil), vars...), target: bound}}
}

func (c *IntLinLe) Name() string             { return "int_lin_le" }
func (c *IntLinLe) Variables() []int         { return c.core.variables() }
func (c *IntLinLe) CheckInitialConsistency() {}

func (c *IntLinLe) PreparePropagation(m *Model) error {
	c.core.prepare(m)
	return nil
}

func (c *IntLinLe) RewindTo(savePoint int) { c.core.rewindTo(savePoint) }

func (c *IntLinLe) Presolve(m *Model) (bool, error) {
	c.core.prepare(m)
	return c.prune(m)
}

func (c *IntLinLe) prune(m *Model) (bool, error) {
	lc := &c.core
	if lc.fixedSum+lc.minRemPotential > lc.target {
		return false, nil
	}
	for i := range lc.vars {
		if lc.fixed[i] || lc.coeffs[i] == 0 {
			continue
		}
		coeff := lc.coeffs[i]
		otherMin, _ := lc.otherPotentials(i)
		bound := lc.target - lc.fixedSum - otherMin
		if coeff > 0 {
			vHi := floorDivSigned(bound, coeff)
			m.EnqueueSetMax(lc.vars[i], vHi)
		} else {
			vLo := ceilDivSigned(bound, coeff)
			m.EnqueueSetMin(lc.vars[i], vLo)
		}
	}
	return true, nil
}

func (c *IntLinLe) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	c.core.saveTrail(m, c.core.idx)
	c.core.onInstantiate(c.core.idx, slot, value)
	return c.prune(m)
}

func (c *IntLinLe) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	c.core.saveTrail(m, c.core.idx)
	v, _ := m.Variable(c.core.vars[slot])
	c.core.onBoundChange(slot, newMin, v.Data().Max)
	return c.prune(m)
}

func (c *IntLinLe) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	c.core.saveTrail(m, c.core.idx)
	v, _ := m.Variable(c.core.vars[slot])
	c.core.onBoundChange(slot, v.Data().Min, newMax)
	return c.prune(m)
}

func (c *IntLinLe) OnRemoveValue(m *Model, level, slot, value int) (bool, error) { return true, nil }

func (c *IntLinLe) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) {
	return c.prune(m)
}

func (c *IntLinLe) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntLinLe) IsSatisfied() Tribool {
	lc := &c.core
	if lc.fixedSum+lc.maxRemPotential <= lc.target {
		return True
	}
	if lc.fixedSum+lc.minRemPotential > lc.target {
		return False
	}
	return Unknown
}

func (c *IntLinLe) setSelfIndex(idx int) { c.core.setSelfIndex(idx) }

// IntLinNe is Σ coeffs[i]*vars[i] != target.
type IntLinNe struct {
	core linearCore
}

func NewIntLinNe(coeffs, vars []int, target int) *IntLinNe {
	return &IntLinNe{core: linearCore{coeffs: append([]int(nil), coeffs...), vars: append([]int(nil), vars...), target: target}}
}

func (c *IntLinNe) Name() string             { return "int_lin_ne" }
func (c *IntLinNe) Variables() []int         { return c.core.variables() }
func (c *IntLinNe) CheckInitialConsistency() {}

func (c *IntLinNe) PreparePropagation(m *Model) error {
	c.core.prepare(m)
	return nil
}

func (c *IntLinNe) RewindTo(savePoint int) { c.core.rewindTo(savePoint) }

func (c *IntLinNe) Presolve(m *Model) (bool, error) {
	c.core.prepare(m)
	if c.core.unfixedCount == 1 {
		return c.pruneLast(m)
	}
	if c.core.unfixedCount == 0 && c.core.fixedSum == c.core.target {
		return false, nil
	}
	return true, nil
}

func (c *IntLinNe) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	c.core.saveTrail(m, c.core.idx)
	c.core.onInstantiate(c.core.idx, slot, value)
	if c.core.unfixedCount == 1 {
		return c.pruneLast(m)
	}
	return true, nil
}

func (c *IntLinNe) pruneLast(m *Model) (bool, error) {
	lc := &c.core
	for i, fixed := range lc.fixed {
		if fixed {
			continue
		}
		coeff := lc.coeffs[i]
		if coeff == 0 {
			continue
		}
		rem := lc.target - lc.fixedSum
		if rem%coeff != 0 {
			return true, nil
		}
		m.EnqueueRemoveValue(lc.vars[i], rem/coeff)
		return true, nil
	}
	return true, nil
}

func (c *IntLinNe) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	c.core.saveTrail(m, c.core.idx)
	v, _ := m.Variable(c.core.vars[slot])
	c.core.onBoundChange(slot, newMin, v.Data().Max)
	return true, nil
}

func (c *IntLinNe) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	c.core.saveTrail(m, c.core.idx)
	v, _ := m.Variable(c.core.vars[slot])
	c.core.onBoundChange(slot, v.Data().Min, newMax)
	return true, nil
}

func (c *IntLinNe) OnRemoveValue(m *Model, level, slot, value int) (bool, error) { return true, nil }

func (c *IntLinNe) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) {
	return c.pruneLast(m)
}

func (c *IntLinNe) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntLinNe) IsSatisfied() Tribool {
	lc := &c.core
	sum := 0
	allFixed := true
	for i, vIdx := range lc.vars {
		v, _ := lc.m.Variable(vIdx)
		if val, ok := v.Value(); ok {
			sum += lc.coeffs[i] * val
		} else {
			allFixed = false
		}
	}
	if allFixed {
		if sum != lc.target {
			return True
		}
		return False
	}
	return Unknown
}

func (c *IntLinNe) setSelfIndex(idx int) { c.core.setSelfIndex(idx) }
