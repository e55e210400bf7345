// Package semantics implements the two TimeSemantics variants:
// EventSemantics, where an edge exists only at its addition
// instants, and PersistentSemantics, where an addition remains in force
// until an explicit deletion. Both are built directly on the union read
// contract exposed by internal/storage.EdgeRecord.
package semantics

import (
	"math"
	"sort"

	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/storage"
)

// MinT and MaxT bound the representable time axis.
const (
	MinT int64 = math.MinInt64
	MaxT int64 = math.MaxInt64
)

// Window is a half-open time interval [Lo, Hi) restricting a view.
type Window struct {
	Lo, Hi int64
}

// Full spans the entire time axis.
func Full() Window { return Window{Lo: MinT, Hi: MaxT} }

// Before returns [MinT, t).
func Before(t int64) Window { return Window{Lo: MinT, Hi: t} }

// After returns [t+1, MaxT).
func After(t int64) Window { return Window{Lo: t + 1, Hi: MaxT} }

// At returns [t, t+1), the single-instant window.
func At(t int64) Window { return Window{Lo: t, Hi: t + 1} }

// Intersect computes [max(Lo), min(Hi)); IsEmpty reports whether the
// resulting range is empty.
func (w Window) Intersect(other Window) Window {
	lo := w.Lo
	if other.Lo > lo {
		lo = other.Lo
	}
	hi := w.Hi
	if other.Hi < hi {
		hi = other.Hi
	}
	return Window{Lo: lo, Hi: hi}
}

// IsEmpty reports whether the window contains no instants.
func (w Window) IsEmpty() bool { return w.Lo >= w.Hi }

// Contains reports whether t falls within the window.
func (w Window) Contains(t int64) bool { return t >= w.Lo && t < w.Hi }

// ExplodedRef is one concrete (time, layer) instance of an edge, as
// produced by EdgeExploded/EdgeExplodedWindow.
// Synthetic marks a reference that does not correspond to a
// real addition event but represents an edge already alive before the
// enumeration's starting point.
type ExplodedRef struct {
	Layer     layers.ID
	T         int64
	Seq       uint64
	Synthetic bool
}

func explodedLess(a, b ExplodedRef) bool {
	if a.T != b.T {
		return a.T < b.T
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return a.Layer < b.Layer
}

func sortExploded(refs []ExplodedRef) {
	sort.Slice(refs, func(i, j int) bool { return explodedLess(refs[i], refs[j]) })
}

// TimeSemantics is the variant-specific read contract every view is
// ultimately dispatched through. The event/persistent choice is fixed
// at graph construction, so implementations are plain structs rather
// than runtime polymorphism beyond this one interface, resolved once
// per view rather than per query.
type TimeSemantics interface {
	// IncludeEdgeWindow reports whether edge belongs in window w under
	// the selected layers.
	IncludeEdgeWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) bool

	// EdgeEarliestTime and EdgeLatestTime report the edge's global
	// earliest/latest observable time across the selected layers.
	EdgeEarliestTime(edge *storage.EdgeRecord, sel layers.LayerIds) (int64, bool)
	EdgeLatestTime(edge *storage.EdgeRecord, sel layers.LayerIds) (int64, bool)

	// EdgeEarliestTimeWindow and EdgeLatestTimeWindow are the windowed
	// counterparts.
	EdgeEarliestTimeWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) (int64, bool)
	EdgeLatestTimeWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) (int64, bool)

	// EdgeExploded and EdgeExplodedWindow enumerate concrete references.
	EdgeExploded(edge *storage.EdgeRecord, sel layers.LayerIds) []ExplodedRef
	EdgeExplodedWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) []ExplodedRef

	// EdgeExplodedCount and EdgeExplodedCountWindow are the O(1)-ish
	// cardinalities of the above, without materialising them.
	EdgeExplodedCount(edge *storage.EdgeRecord, sel layers.LayerIds) int
	EdgeExplodedCountWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) int

	// IsValid and IsDeleted classify a pinned-time edge reference;
	// they are always mutually exclusive.
	IsValid(edge *storage.EdgeRecord, t int64, sel layers.LayerIds) bool
	IsDeleted(edge *storage.EdgeRecord, t int64, sel layers.LayerIds) bool

	// EdgeTemporalPropWindow returns the (time, value) pairs for key on
	// the selected layers within w, including any synthetic start-of-
	// window tick the variant defines.
	EdgeTemporalPropWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds, key prop.ID) []TimeValue
}

// TimeValue is one observed (time, value) pair in a windowed temporal
// property read.
type TimeValue struct {
	T   int64
	Val prop.Value
}

// nodeInWindow is shared by both variants: nodes never expire, so a
// node is in a window exactly when its mutation history intersects it.
func nodeInWindow(rec *storage.NodeRecord, w Window) bool {
	return rec.Timestamps().Active(w.Lo, w.Hi)
}

// NodeInWindow reports whether rec was touched within w.
func NodeInWindow(rec *storage.NodeRecord, w Window) bool {
	return nodeInWindow(rec, w)
}

// selectedLayers intersects edge's own layers with sel.
func selectedLayers(edge *storage.EdgeRecord, sel layers.LayerIds) []layers.ID {
	return edge.SelectedLayers(sel)
}

func sortTimeValues(tvs []TimeValue) {
	sort.Slice(tvs, func(i, j int) bool { return tvs[i].T < tvs[j].T })
}

// NodeLatestTime is MaxT globally, or w.Hi-1 inside a window, since
// nodes never expire.
func NodeLatestTime(rec *storage.NodeRecord, w Window) (int64, bool) {
	if _, ok := rec.Timestamps().FirstT(); !ok {
		return 0, false
	}
	if w.Hi == MaxT {
		return MaxT, true
	}
	return w.Hi - 1, true
}

