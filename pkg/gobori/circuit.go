package gobori

// Circuit enforces a single Hamiltonian circuit over variables x[0..n):
// x[i]=j means "the successor of node i is j". Union-Find path tracking
// carries the incremental state: parent pointers with tail[root] and
// size[root] describing each committed chain, plus a Sparse-Set pool of
// still-free successor values (the all-different-over-successors property).
// On x[i]=j: j leaves the pool and every other node's domain; if i and j
// already share a chain the edge must close the full tour or it is a
// premature sub-tour; otherwise the chains merge and the merged chain's
// tail is forbidden from pointing back at its own head until that closure
// is the full circuit.
//
// No path compression: n is small in every representative use, so find()
// simply walks parent pointers, and each commit touches exactly one merge,
// keeping the trail entry a fixed-size record.
type Circuit struct {
	vars []int
	idx  int
	m    *Model

	parent []int // parent[i] == i iff i is a path root
	tail   []int // tail[root] = current end node of the path rooted at root
	size   []int // size[root] = node count of the path rooted at root

	pool  *sparseSetDomain // free successor values
	fixed []bool

	trail []circuitTrailEntry
}

type circuitTrailEntry struct {
	level    int
	isMerge  bool
	h1       int
	oldTailH1 int
	h2        int
	oldSizeH1 int
	poolSnap  domainSnapshot
	slot      int
}

func NewCircuit(vars []int) *Circuit {
	return &Circuit{vars: append([]int(nil), vars...)}
}

func (c *Circuit) Name() string     { return "circuit" }
func (c *Circuit) Variables() []int { return c.vars }

func (c *Circuit) setSelfIndex(idx int) { c.idx = idx }

func (c *Circuit) CheckInitialConsistency() {}

func (c *Circuit) find(i int) int {
	for c.parent[i] != i {
		i = c.parent[i]
	}
	return i
}

func (c *Circuit) PreparePropagation(m *Model) error {
	c.m = m
	n := len(c.vars)
	c.parent = make([]int, n)
	c.tail = make([]int, n)
	c.size = make([]int, n)
	for i := 0; i < n; i++ {
		c.parent[i], c.tail[i], c.size[i] = i, i, 1
	}
	c.pool = newSparseSetDomain(0, n-1)
	c.fixed = make([]bool, n)

	for i, vIdx := range c.vars {
		v, _ := m.Variable(vIdx)
		if j, ok := v.Value(); ok {
			if ok, err := c.commit(m, i, j); err != nil || !ok {
				return err
			}
		}
	}
	return nil
}

// Presolve does not touch the persistent union-find/pool fields: those are
// only built, and only kept correct, from PreparePropagation onward via the
// event hooks below. Event callbacks are not dispatched during the presolve
// fixpoint, so a cached union-find built once at the first Presolve call
// would miss edges other constraints' Presolve rounds fix afterward.
// Presolve instead replays every currently-fixed edge through a disposable
// local union-find each call, the same discipline AllDifferent's Presolve
// follows.
func (c *Circuit) Presolve(m *Model) (bool, error) {
	n := len(c.vars)
	for _, vIdx := range c.vars {
		if ok, err := m.SetMin(vIdx, 0); err != nil || !ok {
			return ok, err
		}
		if ok, err := m.SetMax(vIdx, n-1); err != nil || !ok {
			return ok, err
		}
	}

	edges := make([][2]int, 0, n)
	for i, vIdx := range c.vars {
		v, _ := m.Variable(vIdx)
		if j, ok := v.Value(); ok {
			edges = append(edges, [2]int{i, j})
		}
	}
	ok, forbid := circuitReplay(n, edges)
	if !ok {
		return false, nil
	}
	for _, f := range forbid {
		node, head := f[0], f[1]
		if ok, err := m.RemoveValue(c.vars[node], head); err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

// circuitReplay runs the union-find path-merging algorithm over a disposable
// set of arrays for the given committed edges, reporting forced "forbid
// x[tail]=head" removals alongside overall feasibility. Used by Presolve,
// which cannot rely on the persistent fields (see above); the persistent
// path in PreparePropagation/commit follows the identical logic.
func circuitReplay(n int, edges [][2]int) (bool, [][2]int) {
	parent := make([]int, n)
	tail := make([]int, n)
	size := make([]int, n)
	for i := 0; i < n; i++ {
		parent[i], tail[i], size[i] = i, i, 1
	}
	find := func(x int) int {
		for parent[x] != x {
			x = parent[x]
		}
		return x
	}
	used := make(map[int]bool, len(edges))
	var forbid [][2]int
	for _, e := range edges {
		i, j := e[0], e[1]
		if used[j] {
			return false, nil
		}
		used[j] = true
		hi, hj := find(i), find(j)
		if hi == hj {
			if size[hi] != n {
				return false, nil
			}
			continue
		}
		oldTail := tail[hj]
		parent[hj] = hi
		tail[hi] = oldTail
		size[hi] += size[hj]
		if size[hi] != n {
			forbid = append(forbid, [2]int{tail[hi], hi})
		}
	}
	return true, forbid
}

func (c *Circuit) saveTrail(m *Model, e circuitTrailEntry) {
	e.level = m.CurrentLevel()
	m.MarkConstraintDirty(c.idx)
	c.trail = append(c.trail, e)
}

func (c *Circuit) RewindTo(savePoint int) {
	for len(c.trail) > 0 && c.trail[len(c.trail)-1].level > savePoint {
		last := len(c.trail) - 1
		e := c.trail[last]
		c.trail = c.trail[:last]
		if e.poolSnap != nil {
			c.pool.restore(e.poolSnap)
		}
		c.fixed[e.slot] = false
		if e.isMerge {
			c.tail[e.h1] = e.oldTailH1
			c.size[e.h1] = e.oldSizeH1
			c.parent[e.h2] = e.h2
		}
	}
}

// commit records the edge i->j (node i's successor is j), enforcing the
// all-different-over-successors property and the no-premature-subtour rule.
// Idempotent: a repeat commit(i, j) for an already-fixed i is a no-op, per
// the protocol's re-entrancy contract.
func (c *Circuit) commit(m *Model, i, j int) (bool, error) {
	if c.fixed[i] {
		return true, nil
	}
	n := len(c.vars)

	if !c.pool.Contains(j) {
		return false, nil
	}
	poolSnap := c.pool.snapshot()
	c.pool.Remove(j)
	c.fixed[i] = true
	c.saveTrail(m, circuitTrailEntry{poolSnap: poolSnap, slot: i})
	for i2, vIdx := range c.vars {
		if i2 == i || c.fixed[i2] {
			continue
		}
		m.EnqueueRemoveValue(vIdx, j)
	}

	hi, hj := c.find(i), c.find(j)
	if hi == hj {
		if c.size[hi] != n {
			return false, nil
		}
		return true, nil
	}

	oldTailHi := c.tail[hi]
	oldSizeHi := c.size[hi]
	newTail := c.tail[hj]
	c.parent[hj] = hi
	c.tail[hi] = newTail
	c.size[hi] = oldSizeHi + c.size[hj]
	c.saveTrail(m, circuitTrailEntry{
		isMerge: true, h1: hi, oldTailH1: oldTailHi, h2: hj, oldSizeH1: oldSizeHi, slot: i,
	})

	if c.size[hi] != n {
		// Closing the new chain's tail back to its own head now would form a
		// subtour shorter than the full circuit; forbid it until it's the
		// only way left to finish the tour.
		m.EnqueueRemoveValue(c.vars[c.tail[hi]], hi)
	}
	return true, nil
}

func (c *Circuit) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	return c.commit(m, slot, value)
}

func (c *Circuit) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) { return true, nil }
func (c *Circuit) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) { return true, nil }
func (c *Circuit) OnRemoveValue(m *Model, level, slot, value int) (bool, error)     { return true, nil }

func (c *Circuit) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) {
	if c.pool.Size() != 1 {
		return false, nil
	}
	var only int
	c.pool.IterateValues(func(v int) bool { only = v; return false })
	m.EnqueueInstantiate(c.vars[lastSlot], only)
	return true, nil
}

func (c *Circuit) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *Circuit) IsSatisfied() Tribool {
	n := len(c.vars)
	succ := make([]int, n)
	for i, vIdx := range c.vars {
		v, _ := c.m.Variable(vIdx)
		val, ok := v.Value()
		if !ok {
			return Unknown
		}
		succ[i] = val
	}
	visited := make([]bool, n)
	cur := 0
	for step := 0; step < n; step++ {
		if visited[cur] {
			return False
		}
		visited[cur] = true
		cur = succ[cur]
	}
	if cur != 0 {
		return False
	}
	for _, seen := range visited {
		if !seen {
			return False
		}
	}
	return True
}
