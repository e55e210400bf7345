// Package timeindex implements an
// ordered multiset of (t, seq) entries supporting range queries, first,
// last, and membership, with a degenerate representation for the
// overwhelmingly common empty/single-entry cases.
package timeindex

import (
	"math"
	"sort"
)

// Entry is a single time-index entry. seq disambiguates entries that
// share the same t; ordering is lexicographic on (T, Seq).
type Entry struct {
	T   int64
	Seq uint64
}

// Less reports whether e sorts strictly before other.
func (e Entry) Less(other Entry) bool {
	if e.T != other.T {
		return e.T < other.T
	}
	return e.Seq < other.Seq
}

// MinEntry and MaxEntry bound the representable range; used as sentinels
// by range queries that are open on one side.
var (
	MinEntry = Entry{T: math.MinInt64, Seq: 0}
	MaxEntry = Entry{T: math.MaxInt64, Seq: math.MaxUint64}
)

// state discriminates the degenerate storage forms: empty, a single
// entry, or a sorted slice. Kept as an explicit enum rather than always
// allocating a slice because the overwhelming majority of per-entity
// indices hold zero or one entries.
type state uint8

const (
	stateEmpty state = iota
	stateOne
	stateMany
)

// TimeIndex is an ordered, duplicate-free-by-construction multiset of
// time-index entries.
type TimeIndex struct {
	st      state
	one     Entry
	entries []Entry // sorted ascending by (T, Seq); used only in stateMany
}

// Empty returns an empty TimeIndex.
func Empty() TimeIndex { return TimeIndex{st: stateEmpty} }

// Single returns a TimeIndex holding exactly one entry.
func Single(e Entry) TimeIndex { return TimeIndex{st: stateOne, one: e} }

// FromEntries builds a TimeIndex from an unsorted slice of entries,
// sorting them; duplicate entries are kept.
func FromEntries(entries []Entry) TimeIndex {
	switch len(entries) {
	case 0:
		return Empty()
	case 1:
		return Single(entries[0])
	default:
		cp := append([]Entry(nil), entries...)
		sort.Slice(cp, func(i, j int) bool { return cp[i].Less(cp[j]) })
		return TimeIndex{st: stateMany, entries: cp}
	}
}

// Insert appends a new entry, maintaining ascending (T, Seq) order.
// Callers are responsible for ensuring e is strictly greater than any
// previously inserted entry when a single monotonic writer is in play
// (the common case); Insert itself tolerates out-of-order insertion by
// falling back to a sorted insert, since snapshot replay may not be
// strictly time-ordered.
func (ti *TimeIndex) Insert(e Entry) {
	switch ti.st {
	case stateEmpty:
		ti.st = stateOne
		ti.one = e
	case stateOne:
		if ti.one.Less(e) {
			ti.st = stateMany
			ti.entries = []Entry{ti.one, e}
		} else if e.Less(ti.one) {
			ti.st = stateMany
			ti.entries = []Entry{e, ti.one}
		}
		// equal entries are not possible per Invariant 1; ignore silently
	case stateMany:
		n := len(ti.entries)
		if n == 0 || ti.entries[n-1].Less(e) {
			ti.entries = append(ti.entries, e)
			return
		}
		i := sort.Search(n, func(i int) bool { return e.Less(ti.entries[i]) })
		ti.entries = append(ti.entries, Entry{})
		copy(ti.entries[i+1:], ti.entries[i:])
		ti.entries[i] = e
	}
}

// Len reports the number of entries.
func (ti TimeIndex) Len() int {
	switch ti.st {
	case stateEmpty:
		return 0
	case stateOne:
		return 1
	default:
		return len(ti.entries)
	}
}

// First returns the smallest entry, if any.
func (ti TimeIndex) First() (Entry, bool) {
	switch ti.st {
	case stateEmpty:
		return Entry{}, false
	case stateOne:
		return ti.one, true
	default:
		if len(ti.entries) == 0 {
			return Entry{}, false
		}
		return ti.entries[0], true
	}
}

// Last returns the largest entry, if any.
func (ti TimeIndex) Last() (Entry, bool) {
	switch ti.st {
	case stateEmpty:
		return Entry{}, false
	case stateOne:
		return ti.one, true
	default:
		if len(ti.entries) == 0 {
			return Entry{}, false
		}
		return ti.entries[len(ti.entries)-1], true
	}
}

// FirstT and LastT are convenience accessors returning only the T
// component.
func (ti TimeIndex) FirstT() (int64, bool) {
	e, ok := ti.First()
	return e.T, ok
}

func (ti TimeIndex) LastT() (int64, bool) {
	e, ok := ti.Last()
	return e.T, ok
}

// all returns the entries as a slice regardless of internal state.
func (ti TimeIndex) all() []Entry {
	switch ti.st {
	case stateEmpty:
		return nil
	case stateOne:
		return []Entry{ti.one}
	default:
		return ti.entries
	}
}

// Range returns the sub-index covering the closed-open window [lo, hi).
func (ti TimeIndex) Range(lo, hi int64) TimeIndex {
	entries := ti.all()
	if len(entries) == 0 || lo >= hi {
		return Empty()
	}
	start := sort.Search(len(entries), func(i int) bool { return entries[i].T >= lo })
	end := sort.Search(len(entries), func(i int) bool { return entries[i].T >= hi })
	if start >= end {
		return Empty()
	}
	return FromEntries(entries[start:end])
}

// RangeEntries returns the closed-open window [lo, hi) over entries,
// treating Entry as the comparison key (so windows over the same T but
// different Seq are respected).
func (ti TimeIndex) RangeEntries(lo, hi Entry) TimeIndex {
	entries := ti.all()
	if len(entries) == 0 {
		return Empty()
	}
	start := sort.Search(len(entries), func(i int) bool { return !entries[i].Less(lo) })
	end := sort.Search(len(entries), func(i int) bool { return !entries[i].Less(hi) })
	if start >= end {
		return Empty()
	}
	return FromEntries(entries[start:end])
}

// IterT returns the t component of every entry, in ascending order. Ties
// at the same t are not deduplicated (each entry is a distinct event).
func (ti TimeIndex) IterT() []int64 {
	entries := ti.all()
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.T
	}
	return out
}

// Iter returns all entries in ascending order.
func (ti TimeIndex) Iter() []Entry {
	return append([]Entry(nil), ti.all()...)
}

// Active reports whether any entry falls in the closed-open window
// [lo, hi); short-circuits on the first entry found in range.
func (ti TimeIndex) Active(lo, hi int64) bool {
	switch ti.st {
	case stateEmpty:
		return false
	case stateOne:
		return ti.one.T >= lo && ti.one.T < hi
	default:
		if lo >= hi || len(ti.entries) == 0 {
			return false
		}
		i := sort.Search(len(ti.entries), func(i int) bool { return ti.entries[i].T >= lo })
		return i < len(ti.entries) && ti.entries[i].T < hi
	}
}

// LenWindow reports the number of entries within [lo, hi).
func (ti TimeIndex) LenWindow(lo, hi int64) int {
	return ti.Range(lo, hi).Len()
}

// IsEmpty reports whether the index holds no entries.
func (ti TimeIndex) IsEmpty() bool { return ti.Len() == 0 }
