package gobori

// IntElement enforces result = array[index - offset] over a fixed constant
// table, pruning bidirectionally: index positions whose mapped value left
// the result domain, and result values no surviving index can produce. A
// reverse value→positions index groups the table by value; every call walks
// all of its distinct values, so the result→index direction costs one pass
// over the distinct table values per call rather than O(|positions|) per
// lost value.
//
// Unlike the linear/all_different propagators this one re-derives its
// filtered sets from scratch on every call rather than trailing incremental
// state: the constant table is small in every representative use and a full
// rescan is simpler to get right.
type IntElement struct {
	index  int
	array  []int
	result int
	offset int // 0 for zero-based, 1 for one-based index variable

	m *Model

	valueToIndices map[int][]int // array value -> 0-based positions holding it
}

// NewIntElement builds result = array[index-offset]. offset is 0 for a
// zero-based index variable, 1 for a one-based one.
func NewIntElement(index int, array []int, result int, offset int) *IntElement {
	c := &IntElement{
		index: index, array: append([]int(nil), array...), result: result, offset: offset,
	}
	c.valueToIndices = make(map[int][]int, len(array))
	for pos, v := range c.array {
		c.valueToIndices[v] = append(c.valueToIndices[v], pos)
	}
	return c
}

func (c *IntElement) Name() string             { return "array_int_element" }
func (c *IntElement) Variables() []int         { return []int{c.index, c.result} }
func (c *IntElement) RewindTo(int)             {}
func (c *IntElement) CheckInitialConsistency() {}

func (c *IntElement) PreparePropagation(m *Model) error {
	c.m = m
	return nil
}

func (c *IntElement) Presolve(m *Model) (bool, error) { return c.propagate(m) }

func (c *IntElement) propagate(m *Model) (bool, error) {
	// Keep the Model reference IsSatisfied reads even when PreparePropagation
	// has not run yet.
	c.m = m
	n := len(c.array)
	lo, hi := c.offset, c.offset+n-1

	m.EnqueueSetMin(c.index, lo)
	m.EnqueueSetMax(c.index, hi)

	vIndex, _ := m.Variable(c.index)
	vResult, _ := m.Variable(c.result)
	idxData := vIndex.Data()
	resData := vResult.Data()

	// Index -> result: the result's live values are exactly those the
	// surviving index positions can produce. The enqueued clamps above are
	// not applied yet, so the scan itself stays inside the table.
	scanLo, scanHi := idxData.Min, idxData.Max
	if scanLo < lo {
		scanLo = lo
	}
	if scanHi > hi {
		scanHi = hi
	}
	allowedResult := make(map[int]bool, idxData.Size)
	for i := scanLo; i <= scanHi; i++ {
		if !vIndex.dom.Contains(i) {
			continue
		}
		allowedResult[c.array[i-c.offset]] = true
	}
	for v := resData.Min; v <= resData.Max; v++ {
		if !vResult.dom.Contains(v) || allowedResult[v] {
			continue
		}
		m.EnqueueRemoveValue(c.result, v)
	}

	// Result -> index: keep only index positions whose mapped value is
	// still live in the result domain. The reverse index is walked in full:
	// every distinct table value is checked against the result domain.
	for v, positions := range c.valueToIndices {
		if vResult.dom.Contains(v) {
			continue
		}
		for _, pos := range positions {
			i := pos + c.offset
			if !vIndex.dom.Contains(i) {
				continue
			}
			m.EnqueueRemoveValue(c.index, i)
		}
	}
	return true, nil
}

func (c *IntElement) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	return c.propagate(m)
}
func (c *IntElement) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	return c.propagate(m)
}
func (c *IntElement) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	return c.propagate(m)
}
func (c *IntElement) OnRemoveValue(m *Model, level, slot, value int) (bool, error) {
	return c.propagate(m)
}
func (c *IntElement) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) {
	return c.propagate(m)
}

func (c *IntElement) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntElement) IsSatisfied() Tribool {
	vIndex, _ := c.m.Variable(c.index)
	vResult, _ := c.m.Variable(c.result)
	idxVal, idxOk := vIndex.Value()
	resVal, resOk := vResult.Value()
	if idxOk && resOk {
		pos := idxVal - c.offset
		if pos < 0 || pos >= len(c.array) {
			return False
		}
		if c.array[pos] == resVal {
			return True
		}
		return False
	}
	return Unknown
}
