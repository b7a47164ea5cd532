package gobori

// BoolClause enforces pos[0] ∨ ... ∨ pos[k-1] ∨ ¬neg[0] ∨ ... ∨ ¬neg[j-1]:
// satisfied when some positive literal is 1 or some negative literal is 0.
// Two-watched-literal unit propagation: w1/w2 index into the concatenated
// pos⧺neg literal space, and only events on a watched literal cost any work.
// When a watched literal is falsified, the scan looks for another literal
// that can still satisfy the clause and moves the watch there (trailing the
// prior pair); with none left, the remaining watched literal is a unit and
// is forced to its satisfying value, or the clause is already violated.
type BoolClause struct {
	pos, neg []int
	vars     []int // pos ++ neg, cached for Variables()
	idx      int
	m        *Model

	w1, w2 int
	trail  []boolWatchTrailEntry
}

type boolWatchTrailEntry struct {
	level          int
	oldW1, oldW2 int
}

func NewBoolClause(pos, neg []int) *BoolClause {
	c := &BoolClause{pos: append([]int(nil), pos...), neg: append([]int(nil), neg...)}
	c.vars = append(append([]int(nil), c.pos...), c.neg...)
	return c
}

func (c *BoolClause) Name() string             { return "bool_clause" }
func (c *BoolClause) Variables() []int         { return c.vars }
func (c *BoolClause) CheckInitialConsistency() {}
func (c *BoolClause) setSelfIndex(idx int)     { c.idx = idx }

func (c *BoolClause) n() int { return len(c.pos) + len(c.neg) }

func (c *BoolClause) litVar(i int) int {
	if i < len(c.pos) {
		return c.pos[i]
	}
	return c.neg[i-len(c.pos)]
}

func (c *BoolClause) litSatisfiesValue(i int) int {
	if i < len(c.pos) {
		return 1
	}
	return 0
}

func (c *BoolClause) canSatisfy(m *Model, i int) bool {
	v, _ := m.Variable(c.litVar(i))
	val, ok := v.Value()
	if !ok {
		return true
	}
	return val == c.litSatisfiesValue(i)
}

func (c *BoolClause) isSatisfiedNow(m *Model, i int) bool {
	v, _ := m.Variable(c.litVar(i))
	val, ok := v.Value()
	return ok && val == c.litSatisfiesValue(i)
}

func (c *BoolClause) findUnwatchedCandidate(m *Model, e1, e2 int) int {
	n := c.n()
	for i := 0; i < n; i++ {
		if i == e1 || i == e2 {
			continue
		}
		if c.canSatisfy(m, i) {
			return i
		}
	}
	return -1
}

func (c *BoolClause) PreparePropagation(m *Model) error {
	c.m = m
	return nil
}

// Presolve (re)establishes watches on two literals that can still satisfy
// the clause, fails if none can, and forces the lone remaining literal when
// exactly one can.
func (c *BoolClause) Presolve(m *Model) (bool, error) {
	n := c.n()
	satisfiable := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if c.canSatisfy(m, i) {
			satisfiable = append(satisfiable, i)
		}
	}
	if len(satisfiable) == 0 {
		return false, nil
	}
	if len(satisfiable) == 1 {
		i := satisfiable[0]
		c.w1, c.w2 = i, i
		if !c.isSatisfiedNow(m, i) {
			return m.Instantiate(c.litVar(i), c.litSatisfiesValue(i))
		}
		return true, nil
	}
	c.w1, c.w2 = satisfiable[0], satisfiable[1]
	return true, nil
}

func (c *BoolClause) saveTrail(m *Model) {
	level := m.CurrentLevel()
	if n := len(c.trail); n == 0 || c.trail[n-1].level != level {
		m.MarkConstraintDirty(c.idx)
		c.trail = append(c.trail, boolWatchTrailEntry{level: level, oldW1: c.w1, oldW2: c.w2})
	}
}

func (c *BoolClause) RewindTo(savePoint int) {
	for len(c.trail) > 0 && c.trail[len(c.trail)-1].level > savePoint {
		last := len(c.trail) - 1
		e := c.trail[last]
		c.trail = c.trail[:last]
		c.w1, c.w2 = e.oldW1, e.oldW2
	}
}

func (c *BoolClause) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	i := slot
	if i != c.w1 && i != c.w2 {
		return true, nil
	}
	if c.canSatisfy(m, i) {
		return true, nil
	}
	other := c.w1
	if i == c.w1 {
		other = c.w2
	}
	if j := c.findUnwatchedCandidate(m, c.w1, c.w2); j >= 0 {
		c.saveTrail(m)
		if i == c.w1 {
			c.w1 = j
		} else {
			c.w2 = j
		}
		return true, nil
	}
	if c.canSatisfy(m, other) {
		if c.isSatisfiedNow(m, other) {
			return true, nil
		}
		m.EnqueueInstantiate(c.litVar(other), c.litSatisfiesValue(other))
		return true, nil
	}
	return false, nil
}

func (c *BoolClause) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) { return true, nil }
func (c *BoolClause) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) { return true, nil }
func (c *BoolClause) OnRemoveValue(m *Model, level, slot, value int) (bool, error)     { return true, nil }
func (c *BoolClause) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) { return true, nil }

func (c *BoolClause) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *BoolClause) IsSatisfied() Tribool {
	allAssigned := true
	for i := 0; i < c.n(); i++ {
		if c.isSatisfiedNow(c.m, i) {
			return True
		}
		v, _ := c.m.Variable(c.litVar(i))
		if _, ok := v.Value(); !ok {
			allAssigned = false
		}
	}
	if allAssigned {
		return False
	}
	return Unknown
}

// ArrayBoolAnd enforces r = (b1 ∧ b2 ∧ ... ∧ bn). The "some bi=0" direction
// reuses BoolClause's two-watched-literal core over pos=[r], neg=vars
// (satisfied when r=1 or some bi=0); the cheap direct implications (r=1 ⇒
// every bi=1, and any bi=0 ⇒ r=0) are applied eagerly rather than through
// watches.
type ArrayBoolAnd struct {
	vars []int
	r    int
	big  *BoolClause
	m    *Model
}

func NewArrayBoolAnd(vars []int, r int) *ArrayBoolAnd {
	return &ArrayBoolAnd{vars: append([]int(nil), vars...), r: r, big: NewBoolClause([]int{r}, vars)}
}

func (c *ArrayBoolAnd) Name() string             { return "array_bool_and" }
func (c *ArrayBoolAnd) Variables() []int         { return append([]int{c.r}, c.vars...) }
func (c *ArrayBoolAnd) CheckInitialConsistency() {}
func (c *ArrayBoolAnd) setSelfIndex(idx int)     { c.big.setSelfIndex(idx) }

func (c *ArrayBoolAnd) PreparePropagation(m *Model) error {
	c.m = m
	return c.big.PreparePropagation(m)
}

func (c *ArrayBoolAnd) Presolve(m *Model) (bool, error) {
	if ok, err := c.big.Presolve(m); err != nil || !ok {
		return ok, err
	}
	rv, _ := m.Variable(c.r)
	if val, ok := rv.Value(); ok && val == 1 {
		for _, v := range c.vars {
			if ok, err := m.Instantiate(v, 1); err != nil || !ok {
				return ok, err
			}
		}
	}
	allOne := true
	for _, v := range c.vars {
		vv, _ := m.Variable(v)
		val, ok := vv.Value()
		if !ok {
			allOne = false
			break
		}
		if val == 0 {
			allOne = false
			if ok, err := m.Instantiate(c.r, 0); err != nil || !ok {
				return ok, err
			}
			break
		}
	}
	if allOne {
		if ok, err := m.Instantiate(c.r, 1); err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

func (c *ArrayBoolAnd) RewindTo(savePoint int) { c.big.RewindTo(savePoint) }

func (c *ArrayBoolAnd) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	if ok, err := c.big.OnInstantiate(m, level, slot, value, prevMin, prevMax); err != nil || !ok {
		return ok, err
	}
	if slot == 0 {
		if value == 1 {
			for _, v := range c.vars {
				m.EnqueueInstantiate(v, 1)
			}
		}
	} else if value == 0 {
		m.EnqueueInstantiate(c.r, 0)
	}
	return true, nil
}

func (c *ArrayBoolAnd) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) { return true, nil }
func (c *ArrayBoolAnd) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) { return true, nil }
func (c *ArrayBoolAnd) OnRemoveValue(m *Model, level, slot, value int) (bool, error)     { return true, nil }
func (c *ArrayBoolAnd) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) { return true, nil }

func (c *ArrayBoolAnd) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *ArrayBoolAnd) IsSatisfied() Tribool {
	rv, _ := c.m.Variable(c.r)
	rval, rok := rv.Value()
	andVal := true
	allAssigned := rok
	for _, v := range c.vars {
		vv, _ := c.m.Variable(v)
		val, ok := vv.Value()
		if !ok {
			allAssigned = false
			continue
		}
		if val == 0 {
			andVal = false
		}
	}
	if !allAssigned {
		return Unknown
	}
	want := 0
	if andVal {
		want = 1
	}
	if rval == want {
		return True
	}
	return False
}

// ArrayBoolOr enforces r = (b1 ∨ b2 ∨ ... ∨ bn), the dual of ArrayBoolAnd.
// The watched direction is pos=vars, neg=[r] (satisfied when some bi=1 or
// r=0); the direct implications are bi=1 ⇒ r=1 and r=0 ⇒ every bi=0.
type ArrayBoolOr struct {
	vars []int
	r    int
	big  *BoolClause
	m    *Model
}

func NewArrayBoolOr(vars []int, r int) *ArrayBoolOr {
	return &ArrayBoolOr{vars: append([]int(nil), vars...), r: r, big: NewBoolClause(vars, []int{r})}
}

func (c *ArrayBoolOr) Name() string             { return "array_bool_or" }
func (c *ArrayBoolOr) Variables() []int         { return append(append([]int(nil), c.vars...), c.r) }
func (c *ArrayBoolOr) CheckInitialConsistency() {}
func (c *ArrayBoolOr) setSelfIndex(idx int)     { c.big.setSelfIndex(idx) }

func (c *ArrayBoolOr) PreparePropagation(m *Model) error {
	c.m = m
	return c.big.PreparePropagation(m)
}

func (c *ArrayBoolOr) Presolve(m *Model) (bool, error) {
	if ok, err := c.big.Presolve(m); err != nil || !ok {
		return ok, err
	}
	rv, _ := m.Variable(c.r)
	if val, ok := rv.Value(); ok && val == 0 {
		for _, v := range c.vars {
			if ok, err := m.Instantiate(v, 0); err != nil || !ok {
				return ok, err
			}
		}
	}
	allZero := true
	for _, v := range c.vars {
		vv, _ := m.Variable(v)
		val, ok := vv.Value()
		if !ok {
			allZero = false
			break
		}
		if val == 1 {
			allZero = false
			if ok, err := m.Instantiate(c.r, 1); err != nil || !ok {
				return ok, err
			}
			break
		}
	}
	if allZero {
		if ok, err := m.Instantiate(c.r, 0); err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

func (c *ArrayBoolOr) RewindTo(savePoint int) { c.big.RewindTo(savePoint) }

func (c *ArrayBoolOr) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	if ok, err := c.big.OnInstantiate(m, level, slot, value, prevMin, prevMax); err != nil || !ok {
		return ok, err
	}
	if slot < len(c.vars) {
		if value == 1 {
			m.EnqueueInstantiate(c.r, 1)
		}
	} else if value == 0 {
		for _, v := range c.vars {
			m.EnqueueInstantiate(v, 0)
		}
	}
	return true, nil
}

func (c *ArrayBoolOr) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) { return true, nil }
func (c *ArrayBoolOr) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) { return true, nil }
func (c *ArrayBoolOr) OnRemoveValue(m *Model, level, slot, value int) (bool, error)     { return true, nil }
func (c *ArrayBoolOr) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) { return true, nil }

func (c *ArrayBoolOr) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *ArrayBoolOr) IsSatisfied() Tribool {
	rv, _ := c.m.Variable(c.r)
	rval, rok := rv.Value()
	orVal := false
	allAssigned := rok
	for _, v := range c.vars {
		vv, _ := c.m.Variable(v)
		val, ok := vv.Value()
		if !ok {
			allAssigned = false
			continue
		}
		if val == 1 {
			orVal = true
		}
	}
	if !allAssigned {
		return Unknown
	}
	want := 0
	if orVal {
		want = 1
	}
	if rval == want {
		return True
	}
	return False
}
