package gobori

// VarData is the struct-of-arrays row cached alongside a Variable's Domain:
// Min, Max, and Size mirror the Domain exactly; SupportValue is a witness
// value kept live by syncFromDomain, which resets it to the domain minimum
// once it is removed. The bound-tightening paths do not consult it: SetMin
// and SetMax always pass the new bound to the Domain. LastSavedLevel
// coalesces trail writes: at
// most one VarTrailEntry is written per (variable, decision level).
type VarData struct {
	Min            int
	Max            int
	Size           int
	InitialRange   int
	SupportValue   int
	LastSavedLevel int
	IsDefinedVar   bool
}

// Variable is a dense-indexed CSP variable. Its identity (ID, Name) is
// immutable once created; its Domain and VarData are mutated exclusively
// through the owning Model so that every change passes through the trail.
type Variable struct {
	ID   int
	Name string

	dom  domain
	data VarData
}

func newVariable(id int, name string, d domain) *Variable {
	v := &Variable{ID: id, Name: name, dom: d}
	v.data = VarData{
		Min:            d.Min(),
		Max:            d.Max(),
		Size:           d.Size(),
		InitialRange:   d.Max() - d.Min() + 1,
		SupportValue:   d.Min(),
		LastSavedLevel: -1,
	}
	return v
}

// Data returns a copy of the current struct-of-arrays row. Safe to read at
// any point; never mutate the Model's view through it.
func (v *Variable) Data() VarData { return v.data }

// IsInstantiated reports whether the variable currently has a singleton
// domain, equivalently Min==Max==Size==1.
func (v *Variable) IsInstantiated() bool { return v.data.Size == 1 }

// Contains reports whether val is currently in the variable's domain.
func (v *Variable) Contains(val int) bool { return v.dom.Contains(val) }

// Value returns the variable's sole remaining value and true iff
// IsInstantiated(). Otherwise returns (0, false).
func (v *Variable) Value() (int, bool) {
	if v.data.Size == 1 {
		return v.data.Min, true
	}
	return 0, false
}

// syncFromDomain refreshes the SoA cache from the live Domain, choosing a
// fresh support value when the previous one is no longer live, and returns
// whether the variable transitioned into or out of being instantiated (used
// by the Model to adjust the global instantiated-variable count).
func (v *Variable) syncFromDomain() (becameInstantiated, becameUninstantiated bool) {
	wasInstantiated := v.data.Size == 1
	v.data.Min = v.dom.Min()
	v.data.Max = v.dom.Max()
	v.data.Size = v.dom.Size()
	if v.data.Size > 0 && !v.dom.Contains(v.data.SupportValue) {
		v.data.SupportValue = v.dom.Min()
	}
	nowInstantiated := v.data.Size == 1
	return !wasInstantiated && nowInstantiated, wasInstantiated && !nowInstantiated
}

func (v *Variable) String() string {
	return v.Name + "=" + v.dom.String()
}
