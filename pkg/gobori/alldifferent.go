package gobori

// AllDifferent maintains a Sparse-Set value pool of values currently free
// across the constraint's variables plus an unfixed-variable counter. On an
// instantiation the taken value leaves the pool (fail if it already had) and
// is pruned from every unfixed peer; when one variable remains, its domain
// is intersected with the pool, instantiating it outright if the pool is a
// singleton.
type AllDifferent struct {
	vars []int
	idx  int

	pool *sparseSetDomain
	m    *Model

	unfixedCount int
	fixed        []bool

	trail []allDifferentTrailEntry
}

type allDifferentTrailEntry struct {
	level        int
	poolSnap     domainSnapshot
	unfixedCount int
	slot         int
	wasFixed     bool
}

func NewAllDifferent(vars []int) *AllDifferent {
	return &AllDifferent{vars: append([]int(nil), vars...)}
}

func (c *AllDifferent) Name() string     { return "all_different" }
func (c *AllDifferent) Variables() []int { return c.vars }

func (c *AllDifferent) setSelfIndex(idx int) { c.idx = idx }

func (c *AllDifferent) CheckInitialConsistency() {}

func (c *AllDifferent) PreparePropagation(m *Model) error {
	c.m = m
	min, max := 0, 0
	for i, vIdx := range c.vars {
		v, _ := m.Variable(vIdx)
		d := v.Data()
		if i == 0 || d.Min < min {
			min = d.Min
		}
		if i == 0 || d.Max > max {
			max = d.Max
		}
	}
	c.pool = newSparseSetDomain(min, max)
	c.fixed = make([]bool, len(c.vars))
	c.unfixedCount = len(c.vars)
	for i, vIdx := range c.vars {
		v, _ := m.Variable(vIdx)
		if val, ok := v.Value(); ok {
			c.fixed[i] = true
			c.unfixedCount--
			c.pool.Remove(val)
		}
	}
	return nil
}

// Presolve does not rely on the incremental pool (that is only built, and
// only kept correct, from PreparePropagation onward via the event hooks
// below): event callbacks are not dispatched during the presolve fixpoint,
// so a constraint that only ever learns of a fixed value through its own
// OnInstantiate would miss values other constraints' Presolve rounds fix in
// between calls. Presolve instead re-derives directly from live domains
// every call, the same discipline PreparePropagation's callers rely on.
func (c *AllDifferent) Presolve(m *Model) (bool, error) {
	seen := make(map[int]bool, len(c.vars))
	for _, vIdx := range c.vars {
		v, _ := m.Variable(vIdx)
		if val, ok := v.Value(); ok {
			if seen[val] {
				return false, nil
			}
			seen[val] = true
		}
	}
	for _, vIdx := range c.vars {
		v, _ := m.Variable(vIdx)
		if _, ok := v.Value(); ok {
			continue
		}
		d := v.Data()
		for val := d.Min; val <= d.Max; val++ {
			if !seen[val] {
				continue
			}
			if !v.dom.Contains(val) {
				continue
			}
			if ok, err := m.RemoveValue(vIdx, val); err != nil || !ok {
				return ok, err
			}
		}
	}
	return true, nil
}

// saveTrail records one entry per mutation, not one per level: a single level
// can fix several of this constraint's variables, and each needs its own
// fixed[slot] restore. Popping in reverse order still lands the pool and
// counter on the level's pre-state, since the earliest entry is restored last.
func (c *AllDifferent) saveTrail(m *Model, slot int, wasFixed bool) {
	m.MarkConstraintDirty(c.idx)
	c.trail = append(c.trail, allDifferentTrailEntry{
		level: m.CurrentLevel(), poolSnap: c.pool.snapshot(), unfixedCount: c.unfixedCount,
		slot: slot, wasFixed: wasFixed,
	})
}

func (c *AllDifferent) RewindTo(savePoint int) {
	for len(c.trail) > 0 && c.trail[len(c.trail)-1].level > savePoint {
		last := len(c.trail) - 1
		e := c.trail[last]
		c.trail = c.trail[:last]
		c.pool.restore(e.poolSnap)
		c.unfixedCount = e.unfixedCount
		c.fixed[e.slot] = e.wasFixed
	}
}

func (c *AllDifferent) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	if c.fixed[slot] {
		return true, nil
	}
	if !c.pool.Contains(value) {
		return false, nil
	}
	c.saveTrail(m, slot, false)
	c.pool.Remove(value)
	c.fixed[slot] = true
	c.unfixedCount--
	for j, vIdx := range c.vars {
		if j == slot || c.fixed[j] {
			continue
		}
		m.EnqueueRemoveValue(vIdx, value)
	}
	return true, nil
}

func (c *AllDifferent) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) { return true, nil }
func (c *AllDifferent) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) { return true, nil }
func (c *AllDifferent) OnRemoveValue(m *Model, level, slot, value int) (bool, error)     { return true, nil }

func (c *AllDifferent) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) {
	if c.pool.Size() == 0 {
		return false, nil
	}
	if c.pool.Size() == 1 {
		var only int
		c.pool.IterateValues(func(val int) bool { only = val; return false })
		m.EnqueueInstantiate(c.vars[lastSlot], only)
		return true, nil
	}
	// More than one value remains free: intersect the variable's own domain
	// with the pool by removing any live value the pool no longer contains.
	v, _ := m.Variable(c.vars[lastSlot])
	d := v.Data()
	for val := d.Min; val <= d.Max; val++ {
		if c.pool.Contains(val) {
			continue
		}
		m.EnqueueRemoveValue(c.vars[lastSlot], val)
	}
	return true, nil
}

func (c *AllDifferent) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *AllDifferent) IsSatisfied() Tribool {
	seen := make(map[int]bool, len(c.vars))
	allFixed := true
	for _, vIdx := range c.vars {
		v, _ := c.m.Variable(vIdx)
		val, ok := v.Value()
		if !ok {
			allFixed = false
			continue
		}
		if seen[val] {
			return False
		}
		seen[val] = true
	}
	if allFixed {
		return True
	}
	return Unknown
}
