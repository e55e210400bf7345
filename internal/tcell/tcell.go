// Package tcell implements the per-property temporal log: one or more
// (time, value) pairs for a single property on a single entity/layer,
// with point-in-time and windowed reads. TProp is TCell applied to
// property values; both are the same generic type, so the read
// contract is uniform across value types without duplicating the
// container.
package tcell

import (
	"sort"

	"github.com/chronon-db/chronon/internal/timeindex"
)

// entry pairs a time-index entry with the value written at that time.
type entry[V any] struct {
	at  timeindex.Entry
	val V
}

// TCell is an append-only, time-ordered log of values. The zero value is
// an empty cell.
type TCell[V any] struct {
	entries []entry[V]
}

// New returns a TCell with a single (t, v) pair.
func New[V any](t timeindex.Entry, v V) *TCell[V] {
	return &TCell[V]{entries: []entry[V]{{at: t, val: v}}}
}

// Set appends a new (t, v) pair. Entries must arrive in non-decreasing
// (T, Seq) order for a single writer, matching the rest of the temporal
// core's single-writer-per-entity discipline; Set still accepts
// out-of-order writes (performing a sorted insert) to support snapshot
// replay.
func (c *TCell[V]) Set(t timeindex.Entry, v V) {
	n := len(c.entries)
	if n == 0 || c.entries[n-1].at.Less(t) {
		c.entries = append(c.entries, entry[V]{at: t, val: v})
		return
	}
	i := sort.Search(n, func(i int) bool { return t.Less(c.entries[i].at) })
	c.entries = append(c.entries, entry[V]{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = entry[V]{at: t, val: v}
}

// At returns the last value with write-time <= t.
func (c *TCell[V]) At(t int64) (V, bool) {
	return c.LastBefore(t + 1)
}

// LastBefore returns the last value with write-time strictly less than
// t.
func (c *TCell[V]) LastBefore(t int64) (V, bool) {
	var zero V
	n := len(c.entries)
	i := sort.Search(n, func(i int) bool { return c.entries[i].at.T >= t })
	if i == 0 {
		return zero, false
	}
	return c.entries[i-1].val, true
}

// Len reports the number of (time, value) pairs, including every
// version written (not just the latest).
func (c *TCell[V]) Len() int { return len(c.entries) }

// TimeValue is a (time, value) pair yielded by iteration.
type TimeValue[V any] struct {
	T   int64
	Val V
}

// Iter returns every (t, v) pair in ascending order.
func (c *TCell[V]) Iter() []TimeValue[V] {
	out := make([]TimeValue[V], len(c.entries))
	for i, e := range c.entries {
		out[i] = TimeValue[V]{T: e.at.T, Val: e.val}
	}
	return out
}

// EntryValue pairs a full time-index entry (including seq) with its
// value; used by the snapshot codec, which must round-trip seq exactly
// rather than just the user-visible t.
type EntryValue[V any] struct {
	At  timeindex.Entry
	Val V
}

// IterEntries is Iter but preserving each write's full (T, Seq) entry.
func (c *TCell[V]) IterEntries() []EntryValue[V] {
	out := make([]EntryValue[V], len(c.entries))
	for i, e := range c.entries {
		out[i] = EntryValue[V]{At: e.at, Val: e.val}
	}
	return out
}

// IterWindow returns the (t, v) pairs with t in the closed-open window
// [lo, hi).
func (c *TCell[V]) IterWindow(lo, hi int64) []TimeValue[V] {
	n := len(c.entries)
	start := sort.Search(n, func(i int) bool { return c.entries[i].at.T >= lo })
	end := sort.Search(n, func(i int) bool { return c.entries[i].at.T >= hi })
	if start >= end {
		return nil
	}
	out := make([]TimeValue[V], 0, end-start)
	for _, e := range c.entries[start:end] {
		out = append(out, TimeValue[V]{T: e.at.T, Val: e.val})
	}
	return out
}
