// Package tvec implements an
// append-only sequence of temporally tagged entries ("slots"), each of
// which may itself be re-stamped at a later time while the version
// visible in older windows remains intact, backed by a secondary index
// from time to the slots written at that time.
package tvec

import (
	"sort"

	"github.com/chronon-db/chronon/internal/tcell"
	"github.com/chronon-db/chronon/internal/timeindex"
)

// TVec is a sequence of values, each held in its own slot. A slot is a
// small temporal log (tcell.TCell) so that Insert can re-stamp it at a
// new time without losing the version a window ending before the
// re-stamp would have observed.
type TVec[A any] struct {
	slots []*tcell.TCell[A]
	index map[int64][]int // t -> slot indices written at t (may repeat across calls)
}

// New returns an empty TVec.
func New[A any]() *TVec[A] {
	return &TVec[A]{index: make(map[int64][]int)}
}

// Push appends a new slot holding a at time t and returns its index.
func (v *TVec[A]) Push(t timeindex.Entry, a A) int {
	i := len(v.slots)
	v.slots = append(v.slots, tcell.New(t, a))
	v.index[t.T] = append(v.index[t.T], i)
	return i
}

// Insert re-stamps the existing slot i with value a at time t. The
// slot's prior versions remain visible to windows that end before t.
// Panics if i is out of range: an append-only sequence cannot grow
// through Insert.
func (v *TVec[A]) Insert(t timeindex.Entry, a A, i int) {
	if i < 0 || i >= len(v.slots) {
		panic("tvec: insertion index out of range")
	}
	v.slots[i].Set(t, a)
	v.index[t.T] = append(v.index[t.T], i)
}

// Len reports the total number of (slot, version) pairs stored,
// including every re-stamp of every slot.
func (v *TVec[A]) Len() int {
	n := 0
	for _, s := range v.slots {
		n += s.Len()
	}
	return n
}

// Iter returns every value across every slot, in slot (push) order; for
// a re-stamped slot, its versions appear together in time order.
func (v *TVec[A]) Iter() []A {
	out := make([]A, 0, len(v.slots))
	for _, s := range v.slots {
		for _, tv := range s.Iter() {
			out = append(out, tv.Val)
		}
	}
	return out
}

// TimeValue is a (time, value) pair yielded by windowed iteration.
type TimeValue[A any] struct {
	T   int64
	Val A
}

// IterWindow returns the values whose write-time falls in the
// closed-open window [lo, hi), ordered by time ascending (ties broken
// by slot index, i.e. insertion order of the owning slot).
func (v *TVec[A]) IterWindow(lo, hi int64) []A {
	pairs := v.IterWindowT(lo, hi)
	out := make([]A, len(pairs))
	for i, p := range pairs {
		out[i] = p.Val
	}
	return out
}

// IterWindowT is IterWindow but also returns each value's write time.
func (v *TVec[A]) IterWindowT(lo, hi int64) []TimeValue[A] {
	if lo >= hi || len(v.index) == 0 {
		return nil
	}

	seen := make(map[int]bool)
	type slotPair struct {
		slot int
		tv   tcell.TimeValue[A]
	}
	var collected []slotPair

	keys := make([]int64, 0, len(v.index))
	for t := range v.index {
		if t >= lo && t < hi {
			keys = append(keys, t)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, t := range keys {
		for _, slotID := range v.index[t] {
			if seen[slotID] {
				continue
			}
			seen[slotID] = true
			for _, tv := range v.slots[slotID].IterWindow(lo, hi) {
				collected = append(collected, slotPair{slot: slotID, tv: tv})
			}
		}
	}

	sort.SliceStable(collected, func(i, j int) bool {
		if collected[i].tv.T != collected[j].tv.T {
			return collected[i].tv.T < collected[j].tv.T
		}
		return collected[i].slot < collected[j].slot
	})

	out := make([]TimeValue[A], len(collected))
	for i, c := range collected {
		out[i] = TimeValue[A]{T: c.tv.T, Val: c.tv.Val}
	}
	return out
}
