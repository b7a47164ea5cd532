package gobori

// Propagate drains the pending-update FIFO to a fixpoint, dispatching the
// appropriate event callback to every constraint watching the touched
// variable after each update is actually applied. Any callback returning
// false aborts the loop; the caller (search engine) is responsible for
// backtracking.
func (m *Model) Propagate() (bool, error) {
	for {
		u, ok := m.popQueue()
		if !ok {
			return true, nil
		}

		v := m.variables[u.vIdx]
		prevMin, prevMax := v.data.Min, v.data.Max
		prevSize := v.data.Size
		wasInstantiated := v.data.Size == 1

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
		// An update that changed nothing (bound already satisfied, value
		// already absent) is not an event; dispatching it would let a
		// propagator re-enqueue the same no-op request indefinitely.
		if v.data.Size == prevSize {
			continue
		}

		newMin, newMax := v.data.Min, v.data.Max
		nowInstantiated := v.data.Size == 1
		level := m.currentDecision
		watchers := m.varToConstraints[u.vIdx]

		if nowInstantiated && !wasInstantiated {
			val, _ := v.Value()
			if ok, err := m.dispatchInstantiate(watchers, level, val, prevMin, prevMax); err != nil || !ok {
				return ok, err
			}
			if m.noGoodOnInstantiate != nil {
				if ok, err := m.noGoodOnInstantiate(u.vIdx, val); err != nil || !ok {
					return ok, err
				}
			}
		} else {
			switch u.kind {
			case updSetMin:
				if newMin != prevMin {
					if ok, err := m.dispatchSetMin(watchers, level, newMin, prevMin); err != nil || !ok {
						return ok, err
					}
				}
			case updSetMax:
				if newMax != prevMax {
					if ok, err := m.dispatchSetMax(watchers, level, newMax, prevMax); err != nil || !ok {
						return ok, err
					}
				}
			case updRemoveValue:
				minMoved := newMin != prevMin
				maxMoved := newMax != prevMax
				switch {
				case minMoved && maxMoved:
					if ok, err := m.dispatchSetMin(watchers, level, newMin, prevMin); err != nil || !ok {
						return ok, err
					}
					if ok, err := m.dispatchSetMax(watchers, level, newMax, prevMax); err != nil || !ok {
						return ok, err
					}
				case minMoved:
					if ok, err := m.dispatchSetMin(watchers, level, newMin, prevMin); err != nil || !ok {
						return ok, err
					}
				case maxMoved:
					if ok, err := m.dispatchSetMax(watchers, level, newMax, prevMax); err != nil || !ok {
						return ok, err
					}
				default:
					if ok, err := m.dispatchRemoveValue(watchers, level, u.value); err != nil || !ok {
						return ok, err
					}
				}
			}
		}

		if ok, err := m.dispatchLastUninstantiatedAndFinal(watchers, level); err != nil || !ok {
			return ok, err
		}
	}
}

func (m *Model) dispatchInstantiate(watchers []watchEntry, level, value, prevMin, prevMax int) (bool, error) {
	for _, w := range watchers {
		ok, err := m.constraints[w.constraintIdx].OnInstantiate(m, level, w.internalSlot, value, prevMin, prevMax)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

func (m *Model) dispatchSetMin(watchers []watchEntry, level, newMin, oldMin int) (bool, error) {
	for _, w := range watchers {
		ok, err := m.constraints[w.constraintIdx].OnSetMin(m, level, w.internalSlot, newMin, oldMin)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

func (m *Model) dispatchSetMax(watchers []watchEntry, level, newMax, oldMax int) (bool, error) {
	for _, w := range watchers {
		ok, err := m.constraints[w.constraintIdx].OnSetMax(m, level, w.internalSlot, newMax, oldMax)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

func (m *Model) dispatchRemoveValue(watchers []watchEntry, level, value int) (bool, error) {
	for _, w := range watchers {
		ok, err := m.constraints[w.constraintIdx].OnRemoveValue(m, level, w.internalSlot, value)
		if err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

// dispatchLastUninstantiatedAndFinal checks, for every constraint touched by
// this update, whether it now has exactly one uninstantiated variable left
// (OnLastUninstantiated) or none at all (OnFinalInstantiate).
func (m *Model) dispatchLastUninstantiatedAndFinal(watchers []watchEntry, level int) (bool, error) {
	for _, w := range watchers {
		c := m.constraints[w.constraintIdx]
		slots := c.Variables()
		remaining := -1
		count := 0
		for slot, vIdx := range slots {
			if !m.variables[vIdx].IsInstantiated() {
				count++
				remaining = slot
			}
		}
		if count == 1 {
			ok, err := c.OnLastUninstantiated(m, level, remaining)
			if err != nil || !ok {
				return ok, err
			}
		} else if count == 0 {
			ok, err := c.OnFinalInstantiate()
			if err != nil || !ok {
				return ok, err
			}
		}
	}
	return true, nil
}
