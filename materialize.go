package chronon

import (
	"github.com/chronon-db/chronon/internal/storage"
	"github.com/chronon-db/chronon/internal/timeindex"
)

// MaterializedGraph is satisfied by both *Graph and *PersistentGraph,
// letting a caller hold the result of Materialize without a type switch
// on the source's variant.
type MaterializedGraph interface {
	Nodes() []NodeView
	Edges() []EdgeView
	Node(id NodeID) (NodeView, bool)
	Edge(src, dst NodeID) (EdgeView, bool)
	HasEdge(src, dst NodeID) bool
	CountEdges() int
	CountTemporalEdges() int
	Window(lo, hi int64) View
	Before(t int64) View
	After(t int64) View
	At(t int64) View
	Layers(names ...string) View
	DefaultLayer() View
}

// Materialize walks this view through the mutation API, producing an
// independent graph of the source's variant holding only the nodes,
// edges, and properties visible within this view's window and layer
// selection. Deletions and additions that lie outside the window are
// never carried over: a persistent edge alive only because it was
// added before the window (the synthetic reference at the window's
// start) is not materialised; the new graph's histories contain only
// events that actually occurred inside the window.
func (v View) Materialize() MaterializedGraph {
	dst := storage.New(v.variant)

	for _, nv := range v.Nodes() {
		rec := nv.record()
		ty, hasType := rec.NodeType()
		times := nv.History()

		var vid storage.VID
		for i, t := range times {
			if i == 0 {
				vid = dst.AddNode(rec.External(), t, ty, hasType)
				continue
			}
			vid = dst.AddNode(rec.External(), t, 0, false)
		}

		for key, val := range rec.ConstProps() {
			name, ok := v.store.PropKeyName(key)
			if !ok {
				continue
			}
			dst.AddNodeConstantProperty(vid, dst.PropKey(name), val)
		}
		for _, key := range rec.TemporalPropKeys() {
			cell, ok := rec.TemporalProp(key)
			if !ok {
				continue
			}
			name, ok := v.store.PropKeyName(key)
			if !ok {
				continue
			}
			for _, tv := range cell.IterWindow(v.win.Lo, v.win.Hi) {
				dst.AddNodeTemporalProperty(vid, dst.PropKey(name), tv.T, tv.Val)
			}
		}
	}

	for _, ev := range v.Edges() {
		rec := ev.record()
		srcVID, _ := dst.NodeByExternal(externalOf(v.store, rec.Src()))
		dstVID, _ := dst.NodeByExternal(externalOf(v.store, rec.Dst()))

		for _, l := range rec.SelectedLayers(ev.selection()) {
			adds := rec.LayerAdditions(l).Range(v.win.Lo, v.win.Hi).Iter()
			var delEntries []timeindex.Entry
			if v.variant == storage.VariantPersistent {
				delEntries = rec.LayerDeletions(l).Range(v.win.Lo, v.win.Hi).Iter()
			}
			if len(adds) == 0 && len(delEntries) == 0 {
				continue
			}

			dl := dst.DefaultLayerID()
			if name, ok := v.store.LayerName(l); ok && name != "" {
				dl = dst.EnsureLayer(name)
			}

			var eid storage.EID
			for _, a := range adds {
				eid, _ = dst.AddEdge(srcVID, dstVID, dl, a.T)
			}
			for _, d := range delEntries {
				_ = dst.DeleteEdge(srcVID, dstVID, dl, d.T)
			}
			if len(adds) == 0 {
				eid, _ = dst.EdgeBetween(srcVID, dstVID)
			}

			for _, key := range rec.ConstPropKeys(l) {
				val, ok := rec.ConstProp(l, key)
				if !ok {
					continue
				}
				name, ok := v.store.PropKeyName(key)
				if !ok {
					continue
				}
				dst.AddEdgeConstantProperty(eid, dl, dst.PropKey(name), val)
			}
			for _, key := range rec.TemporalPropKeysLayer(l) {
				cell, ok := rec.TemporalPropLayer(l, key)
				if !ok {
					continue
				}
				name, ok := v.store.PropKeyName(key)
				if !ok {
					continue
				}
				for _, tv := range cell.IterWindow(v.win.Lo, v.win.Hi) {
					dst.AddEdgeTemporalProperty(eid, dl, dst.PropKey(name), tv.T, tv.Val)
				}
			}
		}
	}

	for key, val := range v.store.GraphProperties() {
		name, ok := v.store.PropKeyName(key)
		if !ok {
			continue
		}
		dst.AddGraphProperty(dst.PropKey(name), val)
	}

	if v.variant == storage.VariantPersistent {
		return &PersistentGraph{store: dst, View: newRootView(dst, storage.VariantPersistent)}
	}
	return &Graph{store: dst, View: newRootView(dst, storage.VariantEvent)}
}
