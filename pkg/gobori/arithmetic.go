package gobori

// Arithmetic constraints (x·y=z, |x|=y) propagating interval bounds in both
// directions on every event. Stateless beyond a cached Model reference;
// RewindTo is a no-op.

// IntTimes is x * y = z, with bounds propagation in both directions.
type IntTimes struct {
	x, y, z int
	m       *Model
}

func NewIntTimes(x, y, z int) *IntTimes { return &IntTimes{x: x, y: y, z: z} }

func (c *IntTimes) Name() string             { return "int_times" }
func (c *IntTimes) Variables() []int         { return []int{c.x, c.y, c.z} }
func (c *IntTimes) RewindTo(int)             {}
func (c *IntTimes) CheckInitialConsistency() {}

func (c *IntTimes) PreparePropagation(m *Model) error {
	c.m = m
	return nil
}

func (c *IntTimes) Presolve(m *Model) (bool, error) { return c.propagateBounds(m) }

func productBounds(aMin, aMax, bMin, bMax int) (int, int) {
	p1, p2, p3, p4 := aMin*bMin, aMin*bMax, aMax*bMin, aMax*bMax
	lo, hi := p1, p1
	for _, p := range []int{p2, p3, p4} {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return lo, hi
}

func (c *IntTimes) propagateBounds(m *Model) (bool, error) {
	vx, _ := m.Variable(c.x)
	vy, _ := m.Variable(c.y)
	vz, _ := m.Variable(c.z)
	dx, dy, dz := vx.Data(), vy.Data(), vz.Data()

	zLo, zHi := productBounds(dx.Min, dx.Max, dy.Min, dy.Max)
	m.EnqueueSetMin(c.z, zLo)
	m.EnqueueSetMax(c.z, zHi)

	// x = z / y, when y's range excludes 0.
	if dy.Min > 0 || dy.Max < 0 {
		xLo, xHi := quotientBounds(dz.Min, dz.Max, dy.Min, dy.Max)
		m.EnqueueSetMin(c.x, xLo)
		m.EnqueueSetMax(c.x, xHi)
	}
	if dx.Min > 0 || dx.Max < 0 {
		yLo, yHi := quotientBounds(dz.Min, dz.Max, dx.Min, dx.Max)
		m.EnqueueSetMin(c.y, yLo)
		m.EnqueueSetMax(c.y, yHi)
	}
	return true, nil
}

// quotientBounds computes the bounding interval of {a/b : a in [aMin,aMax],
// b in [bMin,bMax]}, for a divisor range that excludes zero.
func quotientBounds(aMin, aMax, bMin, bMax int) (int, int) {
	candidates := []int{
		divFloor(aMin, bMin), divFloor(aMin, bMax),
		divFloor(aMax, bMin), divFloor(aMax, bMax),
	}
	lo, hi := candidates[0], candidates[0]
	for _, v := range candidates[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func divFloor(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (c *IntTimes) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	return c.propagateBounds(m)
}
func (c *IntTimes) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	return c.propagateBounds(m)
}
func (c *IntTimes) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	return c.propagateBounds(m)
}
func (c *IntTimes) OnRemoveValue(m *Model, level, slot, value int) (bool, error) { return true, nil }
func (c *IntTimes) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) {
	return c.propagateBounds(m)
}

func (c *IntTimes) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntTimes) IsSatisfied() Tribool {
	vx, _ := c.m.Variable(c.x)
	vy, _ := c.m.Variable(c.y)
	vz, _ := c.m.Variable(c.z)
	xv, xok := vx.Value()
	yv, yok := vy.Value()
	zv, zok := vz.Value()
	if xok && yok && zok {
		if xv*yv == zv {
			return True
		}
		return False
	}
	dx, dy, dz := vx.Data(), vy.Data(), vz.Data()
	zLo, zHi := productBounds(dx.Min, dx.Max, dy.Min, dy.Max)
	if zHi < dz.Min || zLo > dz.Max {
		return False
	}
	return Unknown
}

// IntAbs is |x| = y.
type IntAbs struct {
	x, y int
	m    *Model
}

func NewIntAbs(x, y int) *IntAbs { return &IntAbs{x: x, y: y} }

func (c *IntAbs) Name() string             { return "int_abs" }
func (c *IntAbs) Variables() []int         { return []int{c.x, c.y} }
func (c *IntAbs) RewindTo(int)             {}
func (c *IntAbs) CheckInitialConsistency() {}

func (c *IntAbs) PreparePropagation(m *Model) error {
	c.m = m
	return nil
}

func (c *IntAbs) Presolve(m *Model) (bool, error) { return c.propagateBounds(m) }

func (c *IntAbs) propagateBounds(m *Model) (bool, error) {
	vx, _ := m.Variable(c.x)
	vy, _ := m.Variable(c.y)
	dx := vx.Data()

	m.EnqueueSetMin(c.y, 0)

	yHi := dx.Max
	if -dx.Min > yHi {
		yHi = -dx.Min
	}
	m.EnqueueSetMax(c.y, yHi)
	yLo := 0
	if dx.Min > 0 {
		yLo = dx.Min
	} else if dx.Max < 0 {
		yLo = -dx.Max
	}
	m.EnqueueSetMin(c.y, yLo)

	dy := vy.Data()
	m.EnqueueSetMin(c.x, -dy.Max)
	m.EnqueueSetMax(c.x, dy.Max)
	return true, nil
}

func (c *IntAbs) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	return c.propagateBounds(m)
}
func (c *IntAbs) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	return c.propagateBounds(m)
}
func (c *IntAbs) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	return c.propagateBounds(m)
}
func (c *IntAbs) OnRemoveValue(m *Model, level, slot, value int) (bool, error)     { return true, nil }
func (c *IntAbs) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) { return true, nil }

func (c *IntAbs) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntAbs) IsSatisfied() Tribool {
	vx, _ := c.m.Variable(c.x)
	vy, _ := c.m.Variable(c.y)
	xv, xok := vx.Value()
	yv, yok := vy.Value()
	if xok && yok {
		abs := xv
		if abs < 0 {
			abs = -abs
		}
		if abs == yv {
			return True
		}
		return False
	}
	return Unknown
}
