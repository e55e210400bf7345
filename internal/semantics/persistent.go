package semantics

import (
	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/storage"
	"github.com/chronon-db/chronon/internal/timeindex"
)

// PersistentSemantics reads an edge's presence from a dual log per
// (edge, layer): every addition remains in force until an explicit
// deletion.
type PersistentSemantics struct{}

var _ TimeSemantics = PersistentSemantics{}

// aliveBefore answers "is the edge in force strictly before t", given
// one layer's addition index a and deletion index d: the last addition
// before t must dominate the last deletion before t.
func aliveBefore(a, d timeindex.TimeIndex, t int64) bool {
	la, hasLA := a.Range(MinT, t).Last()
	ld, hasLD := d.Range(MinT, t).Last()
	fa, hasFA := a.First()
	fd, hasFD := d.First()

	// Only-deleted-prefix: a deletion with no preceding addition is
	// interpreted as an edge alive since -inf up to that deletion.
	if hasFD && fd.T >= t && (!hasFA || fd.Less(fa)) {
		return true
	}

	if !hasLA {
		return false
	}
	if !hasLD {
		return true
	}
	return ld.Less(la)
}

// aliveAt answers "is the edge in force at t itself".
func aliveAt(a, d timeindex.TimeIndex, t int64) bool {
	at, hasAT := a.Range(t, t+1).First()
	dt, hasDT := d.Range(t, t+1).First()

	deletedAtT := hasDT && (!hasAT || dt.Less(at))
	return !deletedAtT && aliveBefore(a, d, t)
}

// anyLayerAliveBefore/anyLayerAliveAt fold a layer selection with a
// disjunction: the edge is alive if any selected layer says so.
func anyLayerAliveBefore(edge *storage.EdgeRecord, sel layers.LayerIds, t int64) bool {
	for _, l := range edge.SelectedLayers(sel) {
		if aliveBefore(edge.LayerAdditions(l), edge.LayerDeletions(l), t) {
			return true
		}
	}
	return false
}

func anyLayerAliveAt(edge *storage.EdgeRecord, sel layers.LayerIds, t int64) bool {
	for _, l := range edge.SelectedLayers(sel) {
		if aliveAt(edge.LayerAdditions(l), edge.LayerDeletions(l), t) {
			return true
		}
	}
	return false
}

// IncludeEdgeWindow: include if added during the window, or carried in
// from before it.
func (PersistentSemantics) IncludeEdgeWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) bool {
	if edge.Active(sel, w.Lo, w.Hi) {
		return true
	}
	return anyLayerAliveAt(edge, sel, w.Lo)
}

func (PersistentSemantics) EdgeEarliestTime(edge *storage.EdgeRecord, sel layers.LayerIds) (int64, bool) {
	// A pre-existing edge (deleted before ever added) is alive since
	// -inf; otherwise its earliest time is its first addition.
	best, found := int64(0), false
	for _, l := range edge.SelectedLayers(sel) {
		a, d := edge.LayerAdditions(l), edge.LayerDeletions(l)
		fa, hasFA := a.First()
		fd, hasFD := d.First()
		if hasFD && (!hasFA || fd.Less(fa)) {
			return MinT, true
		}
		if hasFA && (!found || fa.T < best) {
			best, found = fa.T, true
		}
	}
	return best, found
}

func (PersistentSemantics) EdgeLatestTime(edge *storage.EdgeRecord, sel layers.LayerIds) (int64, bool) {
	// If still alive "now" (no deletion dominates the last addition),
	// latest time is unbounded; otherwise it is the last deletion.
	best, found := int64(0), false
	for _, l := range edge.SelectedLayers(sel) {
		a, d := edge.LayerAdditions(l), edge.LayerDeletions(l)
		la, hasLA := a.Last()
		ld, hasLD := d.Last()
		if hasLA && (!hasLD || ld.Less(la)) {
			return MaxT, true
		}
		if hasLD && (!found || ld.T > best) {
			best, found = ld.T, true
		}
	}
	return best, found
}

func (PersistentSemantics) EdgeEarliestTimeWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) (int64, bool) {
	if anyLayerAliveAt(edge, sel, w.Lo) {
		return w.Lo, true
	}
	return edge.Additions(sel).Range(w.Lo, w.Hi).FirstT()
}

// EdgeLatestTimeWindow: when the
// edge is alive at the end of the window, latest time is w.Hi-1;
// otherwise it is the largest deletion within the window, falling back
// to the largest addition within the window when no deletion occurred
// there.
func (PersistentSemantics) EdgeLatestTimeWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) (int64, bool) {
	if anyLayerAliveAt(edge, sel, w.Hi-1) {
		return w.Hi - 1, true
	}
	if t, ok := edge.Deletions(sel).Range(w.Lo, w.Hi).LastT(); ok {
		return t, true
	}
	return edge.Additions(sel).Range(w.Lo, w.Hi).LastT()
}

// EdgeExploded: for every layer whose first deletion precedes its
// first addition (or has deletions with no addition), emit a synthetic
// reference at -inf; then one reference per real addition.
func (PersistentSemantics) EdgeExploded(edge *storage.EdgeRecord, sel layers.LayerIds) []ExplodedRef {
	var out []ExplodedRef
	for _, u := range edge.UpdatesIter(sel) {
		fa, hasFA := u.Additions.First()
		fd, hasFD := u.Deletions.First()
		if hasFD && (!hasFA || fd.Less(fa)) {
			out = append(out, ExplodedRef{Layer: u.Layer, T: MinT, Synthetic: true})
		}
		for _, e := range u.Additions.Iter() {
			out = append(out, ExplodedRef{Layer: u.Layer, T: e.T, Seq: e.Seq})
		}
	}
	sortExploded(out)
	return out
}

// EdgeExplodedWindow emits a synthetic reference at w.Lo for every
// layer alive at the window's start, followed by real additions within
// the window.
func (PersistentSemantics) EdgeExplodedWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) []ExplodedRef {
	var out []ExplodedRef
	for _, u := range edge.UpdatesIter(sel) {
		if aliveAt(u.Additions, u.Deletions, w.Lo) {
			out = append(out, ExplodedRef{Layer: u.Layer, T: w.Lo, Synthetic: true})
		}
		for _, e := range u.Additions.Range(w.Lo, w.Hi).Iter() {
			out = append(out, ExplodedRef{Layer: u.Layer, T: e.T, Seq: e.Seq})
		}
	}
	sortExploded(out)
	return out
}

// EdgeExplodedCount: |A| + (1 if first(D) < first(A)), per layer,
// summed across the selected layers.
func (PersistentSemantics) EdgeExplodedCount(edge *storage.EdgeRecord, sel layers.LayerIds) int {
	n := 0
	for _, u := range edge.UpdatesIter(sel) {
		n += u.Additions.Len()
		fa, hasFA := u.Additions.First()
		fd, hasFD := u.Deletions.First()
		if hasFD && (!hasFA || fd.Less(fa)) {
			n++
		}
	}
	return n
}

// EdgeExplodedCountWindow: |A∩w| + (1 if alive_at(w.start)), per layer.
func (PersistentSemantics) EdgeExplodedCountWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) int {
	n := 0
	for _, u := range edge.UpdatesIter(sel) {
		n += u.Additions.LenWindow(w.Lo, w.Hi)
		if aliveAt(u.Additions, u.Deletions, w.Lo) {
			n++
		}
	}
	return n
}

func (PersistentSemantics) IsValid(edge *storage.EdgeRecord, t int64, sel layers.LayerIds) bool {
	return anyLayerAliveAt(edge, sel, t)
}

func (PersistentSemantics) IsDeleted(edge *storage.EdgeRecord, t int64, sel layers.LayerIds) bool {
	return !anyLayerAliveAt(edge, sel, t)
}

// EdgeTemporalPropWindow emits a synthetic tick at w.Lo carrying the
// value in force at the window start (when the edge is alive there),
// followed by real writes strictly inside the window. The tick is what
// makes the value in force at the window start observable even when no
// write occurred at that exact instant.
func (PersistentSemantics) EdgeTemporalPropWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds, key prop.ID) []TimeValue {
	var out []TimeValue
	for _, l := range edge.SelectedLayers(sel) {
		cell, ok := edge.TemporalPropLayer(l, key)
		if !ok {
			continue
		}
		if aliveAt(edge.LayerAdditions(l), edge.LayerDeletions(l), w.Lo) {
			if v, ok := cell.At(w.Lo); ok {
				out = append(out, TimeValue{T: w.Lo, Val: v})
			}
			for _, tv := range cell.IterWindow(w.Lo+1, w.Hi) {
				out = append(out, TimeValue{T: tv.T, Val: tv.Val})
			}
		} else {
			for _, tv := range cell.IterWindow(w.Lo, w.Hi) {
				out = append(out, TimeValue{T: tv.T, Val: tv.Val})
			}
		}
	}
	sortTimeValues(out)
	return out
}
