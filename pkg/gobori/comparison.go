package gobori

// Binary comparison constraints (int_eq, int_ne, int_lt, int_le) and their
// reified forms, propagating bound tightenings symmetrically between the two
// sides on every event.
//
// None of these hold backtrackable state beyond a cached Model reference
// (needed only so IsSatisfied can read current domains; set once in
// PreparePropagation and never trailed), so RewindTo is a no-op.

const (
	slotX = 0
	slotY = 1
	slotB = 2
)

// IntEq is x == y.
type IntEq struct {
	x, y int
	m    *Model
}

func NewIntEq(x, y int) *IntEq { return &IntEq{x: x, y: y} }

func (c *IntEq) Name() string             { return "int_eq" }
func (c *IntEq) Variables() []int         { return []int{c.x, c.y} }
func (c *IntEq) RewindTo(int)             {}
func (c *IntEq) CheckInitialConsistency() {}

func (c *IntEq) Presolve(m *Model) (bool, error) { return c.tighten(m) }

func (c *IntEq) PreparePropagation(m *Model) error {
	c.m = m
	return nil
}

// tighten is Presolve's body. It enqueues rather than mutates directly; the
// presolve loop applies the queued requests. The On* hooks below have their
// own bodies and enqueue as well.
func (c *IntEq) tighten(m *Model) (bool, error) {
	vx, _ := m.Variable(c.x)
	vy, _ := m.Variable(c.y)
	dx := vx.Data()
	dy := vy.Data()
	if dx.Min > dy.Min {
		m.EnqueueSetMin(c.y, dx.Min)
	} else if dy.Min > dx.Min {
		m.EnqueueSetMin(c.x, dy.Min)
	}
	if dx.Max < dy.Max {
		m.EnqueueSetMax(c.y, dx.Max)
	} else if dy.Max < dx.Max {
		m.EnqueueSetMax(c.x, dy.Max)
	}
	return true, nil
}

func (c *IntEq) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	other := c.y
	if slot == slotY {
		other = c.x
	}
	m.EnqueueInstantiate(other, value)
	return true, nil
}

func (c *IntEq) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	other := c.y
	if slot == slotY {
		other = c.x
	}
	m.EnqueueSetMin(other, newMin)
	return true, nil
}

func (c *IntEq) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	other := c.y
	if slot == slotY {
		other = c.x
	}
	m.EnqueueSetMax(other, newMax)
	return true, nil
}

func (c *IntEq) OnRemoveValue(m *Model, level, slot, value int) (bool, error) {
	other := c.y
	if slot == slotY {
		other = c.x
	}
	m.EnqueueRemoveValue(other, value)
	return true, nil
}

func (c *IntEq) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) { return true, nil }

func (c *IntEq) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntEq) IsSatisfied() Tribool {
	vx, _ := c.m.Variable(c.x)
	vy, _ := c.m.Variable(c.y)
	xv, xok := vx.Value()
	yv, yok := vy.Value()
	if xok && yok {
		if xv == yv {
			return True
		}
		return False
	}
	dx, dy := vx.Data(), vy.Data()
	if dx.Max < dy.Min || dy.Max < dx.Min {
		return False
	}
	return Unknown
}

// IntNe is x != y.
type IntNe struct {
	x, y int
	m    *Model
}

func NewIntNe(x, y int) *IntNe { return &IntNe{x: x, y: y} }

func (c *IntNe) Name() string             { return "int_ne" }
func (c *IntNe) Variables() []int         { return []int{c.x, c.y} }
func (c *IntNe) RewindTo(int)             {}
func (c *IntNe) CheckInitialConsistency() {}

func (c *IntNe) Presolve(m *Model) (bool, error) { return c.tighten(m) }

func (c *IntNe) PreparePropagation(m *Model) error {
	c.m = m
	return nil
}

func (c *IntNe) tighten(m *Model) (bool, error) {
	vx, _ := m.Variable(c.x)
	vy, _ := m.Variable(c.y)
	if val, ok := vx.Value(); ok {
		m.EnqueueRemoveValue(c.y, val)
	}
	if val, ok := vy.Value(); ok {
		m.EnqueueRemoveValue(c.x, val)
	}
	return true, nil
}

func (c *IntNe) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	other := c.y
	if slot == slotY {
		other = c.x
	}
	m.EnqueueRemoveValue(other, value)
	return true, nil
}

func (c *IntNe) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) { return true, nil }
func (c *IntNe) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) { return true, nil }
func (c *IntNe) OnRemoveValue(m *Model, level, slot, value int) (bool, error)     { return true, nil }
func (c *IntNe) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) { return true, nil }

func (c *IntNe) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntNe) IsSatisfied() Tribool {
	vx, _ := c.m.Variable(c.x)
	vy, _ := c.m.Variable(c.y)
	xv, xok := vx.Value()
	yv, yok := vy.Value()
	if xok && yok {
		if xv != yv {
			return True
		}
		return False
	}
	return Unknown
}

// IntLt is x < y.
type IntLt struct {
	x, y int
	m    *Model
}

func NewIntLt(x, y int) *IntLt { return &IntLt{x: x, y: y} }

func (c *IntLt) Name() string             { return "int_lt" }
func (c *IntLt) Variables() []int         { return []int{c.x, c.y} }
func (c *IntLt) RewindTo(int)             {}
func (c *IntLt) CheckInitialConsistency() {}

func (c *IntLt) Presolve(m *Model) (bool, error) { return c.tighten(m) }

func (c *IntLt) PreparePropagation(m *Model) error {
	c.m = m
	return nil
}

func (c *IntLt) tighten(m *Model) (bool, error) {
	vx, _ := m.Variable(c.x)
	vy, _ := m.Variable(c.y)
	dx := vx.Data()
	dy := vy.Data()
	m.EnqueueSetMax(c.x, dy.Max-1)
	m.EnqueueSetMin(c.y, dx.Min+1)
	return true, nil
}

func (c *IntLt) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	if slot == slotX {
		m.EnqueueSetMin(c.y, value+1)
	} else {
		m.EnqueueSetMax(c.x, value-1)
	}
	return true, nil
}

func (c *IntLt) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	if slot == slotX {
		m.EnqueueSetMin(c.y, newMin+1)
	}
	return true, nil
}

func (c *IntLt) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	if slot == slotY {
		m.EnqueueSetMax(c.x, newMax-1)
	}
	return true, nil
}

func (c *IntLt) OnRemoveValue(m *Model, level, slot, value int) (bool, error)     { return true, nil }
func (c *IntLt) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) { return true, nil }

func (c *IntLt) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntLt) IsSatisfied() Tribool {
	vx, _ := c.m.Variable(c.x)
	vy, _ := c.m.Variable(c.y)
	dx, dy := vx.Data(), vy.Data()
	if dx.Max < dy.Min {
		return True
	}
	if dx.Min >= dy.Max {
		return False
	}
	return Unknown
}

// IntLe is x <= y.
type IntLe struct {
	x, y int
	m    *Model
}

func NewIntLe(x, y int) *IntLe { return &IntLe{x: x, y: y} }

func (c *IntLe) Name() string             { return "int_le" }
func (c *IntLe) Variables() []int         { return []int{c.x, c.y} }
func (c *IntLe) RewindTo(int)             {}
func (c *IntLe) CheckInitialConsistency() {}

func (c *IntLe) Presolve(m *Model) (bool, error) { return c.tighten(m) }

func (c *IntLe) PreparePropagation(m *Model) error {
	c.m = m
	return nil
}

func (c *IntLe) tighten(m *Model) (bool, error) {
	vx, _ := m.Variable(c.x)
	vy, _ := m.Variable(c.y)
	dx := vx.Data()
	dy := vy.Data()
	m.EnqueueSetMax(c.x, dy.Max)
	m.EnqueueSetMin(c.y, dx.Min)
	return true, nil
}

func (c *IntLe) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	if slot == slotX {
		m.EnqueueSetMin(c.y, value)
	} else {
		m.EnqueueSetMax(c.x, value)
	}
	return true, nil
}

func (c *IntLe) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	if slot == slotX {
		m.EnqueueSetMin(c.y, newMin)
	}
	return true, nil
}

func (c *IntLe) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	if slot == slotY {
		m.EnqueueSetMax(c.x, newMax)
	}
	return true, nil
}

func (c *IntLe) OnRemoveValue(m *Model, level, slot, value int) (bool, error)     { return true, nil }
func (c *IntLe) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) { return true, nil }

func (c *IntLe) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntLe) IsSatisfied() Tribool {
	vx, _ := c.m.Variable(c.x)
	vy, _ := c.m.Variable(c.y)
	dx, dy := vx.Data(), vy.Data()
	if dx.Max <= dy.Min {
		return True
	}
	if dx.Min > dy.Max {
		return False
	}
	return Unknown
}

// IntEqReif is (x == y) <-> b, over a {0,1} variable b.
type IntEqReif struct {
	x, y, b int
	m       *Model
}

func NewIntEqReif(x, y, b int) *IntEqReif { return &IntEqReif{x: x, y: y, b: b} }

func (c *IntEqReif) Name() string             { return "int_eq_reif" }
func (c *IntEqReif) Variables() []int         { return []int{c.x, c.y, c.b} }
func (c *IntEqReif) RewindTo(int)             {}
func (c *IntEqReif) CheckInitialConsistency() {}

func (c *IntEqReif) PreparePropagation(m *Model) error {
	c.m = m
	return nil
}

func (c *IntEqReif) Presolve(m *Model) (bool, error) { return c.propagate(m) }

func (c *IntEqReif) propagate(m *Model) (bool, error) {
	vx, _ := m.Variable(c.x)
	vy, _ := m.Variable(c.y)
	vb, _ := m.Variable(c.b)
	dx, dy := vx.Data(), vy.Data()
	if bv, ok := vb.Value(); ok {
		if bv == 1 {
			m.EnqueueSetMin(c.x, dy.Min)
			m.EnqueueSetMax(c.x, dy.Max)
			m.EnqueueSetMin(c.y, dx.Min)
			m.EnqueueSetMax(c.y, dx.Max)
		} else {
			if xv, okx := vx.Value(); okx {
				m.EnqueueRemoveValue(c.y, xv)
			}
			if yv, oky := vy.Value(); oky {
				m.EnqueueRemoveValue(c.x, yv)
			}
		}
		return true, nil
	}
	if dx.Max < dy.Min || dy.Max < dx.Min {
		m.EnqueueInstantiate(c.b, 0)
		return true, nil
	}
	if xv, okx := vx.Value(); okx {
		if yv, oky := vy.Value(); oky && xv == yv {
			m.EnqueueInstantiate(c.b, 1)
		}
	}
	return true, nil
}

func (c *IntEqReif) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	return c.propagate(m)
}

func (c *IntEqReif) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	return c.propagate(m)
}

func (c *IntEqReif) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	return c.propagate(m)
}

func (c *IntEqReif) OnRemoveValue(m *Model, level, slot, value int) (bool, error) {
	return c.propagate(m)
}

func (c *IntEqReif) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) {
	return true, nil
}

func (c *IntEqReif) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntEqReif) IsSatisfied() Tribool {
	vb, _ := c.m.Variable(c.b)
	bv, bok := vb.Value()
	if !bok {
		return Unknown
	}
	vx, _ := c.m.Variable(c.x)
	vy, _ := c.m.Variable(c.y)
	xv, xok := vx.Value()
	yv, yok := vy.Value()
	if !xok || !yok {
		return Unknown
	}
	eq := xv == yv
	if (bv == 1) == eq {
		return True
	}
	return False
}

// IntLeReif is (x <= y) <-> b.
type IntLeReif struct {
	x, y, b int
	m       *Model
}

func NewIntLeReif(x, y, b int) *IntLeReif { return &IntLeReif{x: x, y: y, b: b} }

func (c *IntLeReif) Name() string             { return "int_le_reif" }
func (c *IntLeReif) Variables() []int         { return []int{c.x, c.y, c.b} }
func (c *IntLeReif) RewindTo(int)             {}
func (c *IntLeReif) CheckInitialConsistency() {}

func (c *IntLeReif) PreparePropagation(m *Model) error {
	c.m = m
	return nil
}

func (c *IntLeReif) Presolve(m *Model) (bool, error) { return c.propagate(m) }

func (c *IntLeReif) propagate(m *Model) (bool, error) {
	vx, _ := m.Variable(c.x)
	vy, _ := m.Variable(c.y)
	vb, _ := m.Variable(c.b)
	dx, dy := vx.Data(), vy.Data()
	if bv, ok := vb.Value(); ok {
		if bv == 1 {
			m.EnqueueSetMax(c.x, dy.Max)
			m.EnqueueSetMin(c.y, dx.Min)
		} else {
			m.EnqueueSetMin(c.x, dy.Min+1)
			m.EnqueueSetMax(c.y, dx.Max-1)
		}
		return true, nil
	}
	if dx.Max <= dy.Min {
		m.EnqueueInstantiate(c.b, 1)
		return true, nil
	}
	if dx.Min > dy.Max {
		m.EnqueueInstantiate(c.b, 0)
	}
	return true, nil
}

func (c *IntLeReif) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	return c.propagate(m)
}
func (c *IntLeReif) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	return c.propagate(m)
}
func (c *IntLeReif) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	return c.propagate(m)
}
func (c *IntLeReif) OnRemoveValue(m *Model, level, slot, value int) (bool, error) {
	return c.propagate(m)
}
func (c *IntLeReif) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) {
	return true, nil
}

func (c *IntLeReif) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntLeReif) IsSatisfied() Tribool {
	vb, _ := c.m.Variable(c.b)
	bv, bok := vb.Value()
	if !bok {
		return Unknown
	}
	vx, _ := c.m.Variable(c.x)
	vy, _ := c.m.Variable(c.y)
	dx, dy := vx.Data(), vy.Data()
	if bv == 1 {
		if dx.Max <= dy.Min {
			return True
		}
		if dx.Min > dy.Max {
			return False
		}
		return Unknown
	}
	if dx.Min > dy.Max {
		return True
	}
	if dx.Max <= dy.Min {
		return False
	}
	return Unknown
}

// IntNeReif is (x != y) <-> b.
type IntNeReif struct {
	x, y, b int
	m       *Model
}

func NewIntNeReif(x, y, b int) *IntNeReif { return &IntNeReif{x: x, y: y, b: b} }

func (c *IntNeReif) Name() string             { return "int_ne_reif" }
func (c *IntNeReif) Variables() []int         { return []int{c.x, c.y, c.b} }
func (c *IntNeReif) RewindTo(int)             {}
func (c *IntNeReif) CheckInitialConsistency() {}

func (c *IntNeReif) PreparePropagation(m *Model) error {
	c.m = m
	return nil
}

func (c *IntNeReif) Presolve(m *Model) (bool, error) { return c.propagate(m) }

func (c *IntNeReif) propagate(m *Model) (bool, error) {
	vx, _ := m.Variable(c.x)
	vy, _ := m.Variable(c.y)
	vb, _ := m.Variable(c.b)
	dx, dy := vx.Data(), vy.Data()
	if bv, ok := vb.Value(); ok {
		if bv == 0 {
			m.EnqueueSetMin(c.x, dy.Min)
			m.EnqueueSetMax(c.x, dy.Max)
			m.EnqueueSetMin(c.y, dx.Min)
			m.EnqueueSetMax(c.y, dx.Max)
		} else {
			if xv, okx := vx.Value(); okx {
				m.EnqueueRemoveValue(c.y, xv)
			}
			if yv, oky := vy.Value(); oky {
				m.EnqueueRemoveValue(c.x, yv)
			}
		}
		return true, nil
	}
	if dx.Max < dy.Min || dy.Max < dx.Min {
		m.EnqueueInstantiate(c.b, 1)
		return true, nil
	}
	if xv, okx := vx.Value(); okx {
		if yv, oky := vy.Value(); oky && xv == yv {
			m.EnqueueInstantiate(c.b, 0)
		}
	}
	return true, nil
}

func (c *IntNeReif) OnInstantiate(m *Model, level, slot, value, prevMin, prevMax int) (bool, error) {
	return c.propagate(m)
}
func (c *IntNeReif) OnSetMin(m *Model, level, slot, newMin, oldMin int) (bool, error) {
	return c.propagate(m)
}
func (c *IntNeReif) OnSetMax(m *Model, level, slot, newMax, oldMax int) (bool, error) {
	return c.propagate(m)
}
func (c *IntNeReif) OnRemoveValue(m *Model, level, slot, value int) (bool, error) {
	return c.propagate(m)
}
func (c *IntNeReif) OnLastUninstantiated(m *Model, level, lastSlot int) (bool, error) {
	return true, nil
}

func (c *IntNeReif) OnFinalInstantiate() (bool, error) { return c.IsSatisfied() != False, nil }

func (c *IntNeReif) IsSatisfied() Tribool {
	vb, _ := c.m.Variable(c.b)
	bv, bok := vb.Value()
	if !bok {
		return Unknown
	}
	vx, _ := c.m.Variable(c.x)
	vy, _ := c.m.Variable(c.y)
	xv, xok := vx.Value()
	yv, yok := vy.Value()
	if !xok || !yok {
		return Unknown
	}
	ne := xv != yv
	if (bv == 1) == ne {
		return True
	}
	return False
}
