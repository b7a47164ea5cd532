package gobori

import "strconv"

// sparseSetDomain is the small-range Domain shape: a dense values array plus
// a reverse sparse index, giving O(1) Contains/Remove and O(1) restore by
// truncating the live count.
//
// values[0:n] holds the live set; values[n:] holds values removed so far, in
// the order they were evicted. sparse[v-base] is the current slot of value v
// within the full (live+dead) values array, valid for every v in
// [base, base+len(values)).
//
// min/max are lazily maintained: a Remove of a non-boundary value leaves
// curMin/curMax untouched and correct; removing the current boundary value
// marks the corresponding bound stale, deferring the O(size) rescan until
// Min()/Max() is actually queried.
type sparseSetDomain struct {
	values []int
	sparse []int
	base   int
	n      int

	curMin      int
	curMax      int
	minStale    bool
	maxStale    bool
}

type sparseSetSnapshot struct {
	n        int
	curMin   int
	curMax   int
	minStale bool
	maxStale bool
}

func newSparseSetDomain(min, max int) *sparseSetDomain {
	width := max - min + 1
	values := make([]int, width)
	sparse := make([]int, width)
	for i := 0; i < width; i++ {
		values[i] = min + i
		sparse[i] = i
	}
	return &sparseSetDomain{
		values: values,
		sparse: sparse,
		base:   min,
		n:      width,
		curMin: min,
		curMax: max,
	}
}

func (d *sparseSetDomain) IsBoundsOnly() bool { return false }

func (d *sparseSetDomain) inRange(v int) bool {
	idx := v - d.base
	return idx >= 0 && idx < len(d.values)
}

func (d *sparseSetDomain) Contains(v int) bool {
	if !d.inRange(v) {
		return false
	}
	return d.sparse[v-d.base] < d.n
}

func (d *sparseSetDomain) Size() int { return d.n }

func (d *sparseSetDomain) Min() int {
	if d.minStale {
		d.rescanMin()
	}
	return d.curMin
}

func (d *sparseSetDomain) Max() int {
	if d.maxStale {
		d.rescanMax()
	}
	return d.curMax
}

func (d *sparseSetDomain) rescanMin() {
	best := d.values[0]
	for i := 1; i < d.n; i++ {
		if d.values[i] < best {
			best = d.values[i]
		}
	}
	d.curMin = best
	d.minStale = false
}

func (d *sparseSetDomain) rescanMax() {
	best := d.values[0]
	for i := 1; i < d.n; i++ {
		if d.values[i] > best {
			best = d.values[i]
		}
	}
	d.curMax = best
	d.maxStale = false
}

// removeAt evicts the live value currently at position pos, swapping it with
// the last live slot. Caller guarantees 0 <= pos < d.n.
func (d *sparseSetDomain) removeAt(pos int) int {
	v := d.values[pos]
	last := d.n - 1
	otherVal := d.values[last]
	d.values[pos], d.values[last] = d.values[last], d.values[pos]
	d.sparse[otherVal-d.base] = pos
	d.sparse[v-d.base] = last
	d.n--
	if !d.minStale && v == d.curMin {
		d.minStale = true
	}
	if !d.maxStale && v == d.curMax {
		d.maxStale = true
	}
	return v
}

func (d *sparseSetDomain) Remove(v int) bool {
	if !d.inRange(v) {
		return d.n > 0
	}
	pos := d.sparse[v-d.base]
	if pos >= d.n {
		return d.n > 0
	}
	if d.n == 1 {
		return false
	}
	d.removeAt(pos)
	return true
}

func (d *sparseSetDomain) RemoveBelow(t int) bool {
	i := 0
	for i < d.n {
		if d.values[i] < t {
			d.removeAt(i)
		} else {
			i++
		}
	}
	return d.n > 0
}

func (d *sparseSetDomain) RemoveAbove(t int) bool {
	i := 0
	for i < d.n {
		if d.values[i] > t {
			d.removeAt(i)
		} else {
			i++
		}
	}
	return d.n > 0
}

func (d *sparseSetDomain) AssignValue(v int) bool {
	if !d.Contains(v) {
		return false
	}
	pos := d.sparse[v-d.base]
	// Swap v into slot 0 and collapse n to 1; every other value then sits
	// past n and is logically removed.
	if pos != 0 {
		other := d.values[0]
		d.values[0], d.values[pos] = d.values[pos], d.values[0]
		d.sparse[v-d.base], d.sparse[other-d.base] = 0, pos
	}
	d.n = 1
	d.curMin, d.curMax = v, v
	d.minStale, d.maxStale = false, false
	return true
}

func (d *sparseSetDomain) IterateValues(f func(v int) bool) {
	for i := 0; i < d.n; i++ {
		if !f(d.values[i]) {
			return
		}
	}
}

func (d *sparseSetDomain) snapshot() domainSnapshot {
	return sparseSetSnapshot{n: d.n, curMin: d.curMin, curMax: d.curMax, minStale: d.minStale, maxStale: d.maxStale}
}

func (d *sparseSetDomain) restore(s domainSnapshot) {
	snap := s.(sparseSetSnapshot)
	d.n = snap.n
	d.curMin = snap.curMin
	d.curMax = snap.curMax
	d.minStale = snap.minStale
	d.maxStale = snap.maxStale
}

func (d *sparseSetDomain) String() string {
	if d.n == 0 {
		return "{}"
	}
	out := "{"
	for i := 0; i < d.n; i++ {
		if i > 0 {
			out += ","
		}
		out += strconv.Itoa(d.values[i])
	}
	return out + "}"
}
