package semantics

import (
	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/storage"
)

// EventSemantics reads an edge as existing only at the instants it was
// added. There is no deletion concept; every read degenerates to a
// query over the union of addition histories.
type EventSemantics struct{}

var _ TimeSemantics = EventSemantics{}

func (EventSemantics) IncludeEdgeWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) bool {
	return edge.Active(sel, w.Lo, w.Hi)
}

func (EventSemantics) EdgeEarliestTime(edge *storage.EdgeRecord, sel layers.LayerIds) (int64, bool) {
	return edge.Additions(sel).FirstT()
}

func (EventSemantics) EdgeLatestTime(edge *storage.EdgeRecord, sel layers.LayerIds) (int64, bool) {
	return edge.Additions(sel).LastT()
}

func (EventSemantics) EdgeEarliestTimeWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) (int64, bool) {
	return edge.Additions(sel).Range(w.Lo, w.Hi).FirstT()
}

func (EventSemantics) EdgeLatestTimeWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) (int64, bool) {
	return edge.Additions(sel).Range(w.Lo, w.Hi).LastT()
}

// EdgeExploded yields one reference per addition entry across the
// selected layers, in stable ascending (t, seq) order.
func (EventSemantics) EdgeExploded(edge *storage.EdgeRecord, sel layers.LayerIds) []ExplodedRef {
	var out []ExplodedRef
	for _, u := range edge.UpdatesIter(sel) {
		for _, e := range u.Additions.Iter() {
			out = append(out, ExplodedRef{Layer: u.Layer, T: e.T, Seq: e.Seq})
		}
	}
	sortExploded(out)
	return out
}

func (EventSemantics) EdgeExplodedWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) []ExplodedRef {
	var out []ExplodedRef
	for _, u := range edge.UpdatesIter(sel) {
		for _, e := range u.Additions.Range(w.Lo, w.Hi).Iter() {
			out = append(out, ExplodedRef{Layer: u.Layer, T: e.T, Seq: e.Seq})
		}
	}
	sortExploded(out)
	return out
}

func (EventSemantics) EdgeExplodedCount(edge *storage.EdgeRecord, sel layers.LayerIds) int {
	n := 0
	for _, u := range edge.UpdatesIter(sel) {
		n += u.Additions.Len()
	}
	return n
}

func (EventSemantics) EdgeExplodedCountWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds) int {
	n := 0
	for _, u := range edge.UpdatesIter(sel) {
		n += u.Additions.LenWindow(w.Lo, w.Hi)
	}
	return n
}

// IsValid reports whether the edge was added exactly at t on a
// selected layer; event edges have no other notion of "alive".
func (EventSemantics) IsValid(edge *storage.EdgeRecord, t int64, sel layers.LayerIds) bool {
	return edge.Active(sel, t, t+1)
}

// IsDeleted is always false: deletions are not supported on event
// graphs.
func (EventSemantics) IsDeleted(edge *storage.EdgeRecord, t int64, sel layers.LayerIds) bool {
	return false
}

// EdgeTemporalPropWindow returns writes within w; event semantics has
// no "alive at window start" concept to synthesize a tick from.
func (EventSemantics) EdgeTemporalPropWindow(edge *storage.EdgeRecord, w Window, sel layers.LayerIds, key prop.ID) []TimeValue {
	var out []TimeValue
	for _, l := range selectedLayers(edge, sel) {
		cell, ok := edge.TemporalPropLayer(l, key)
		if !ok {
			continue
		}
		for _, tv := range cell.IterWindow(w.Lo, w.Hi) {
			out = append(out, TimeValue{T: tv.T, Val: tv.Val})
		}
	}
	sortTimeValues(out)
	return out
}
