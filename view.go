package chronon

import (
	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/semantics"
	"github.com/chronon-db/chronon/internal/storage"
)

// View is a read-only restriction of a graph to a time window and a
// layer selection. Views never mutate the
// underlying store; Window, Before, After, At, and Layers each return a
// new, independently restricted View.
type View struct {
	store   *storage.GraphStorage
	sem     semantics.TimeSemantics
	variant storage.GraphVariant
	win     semantics.Window
	sel     layers.LayerIds
}

func newRootView(store *storage.GraphStorage, variant storage.GraphVariant) View {
	sem := semanticsFor(variant)
	return View{
		store:   store,
		sem:     sem,
		variant: variant,
		win:     semantics.Full(),
		sel:     layers.All(),
	}
}

func semanticsFor(variant storage.GraphVariant) semantics.TimeSemantics {
	if variant == storage.VariantPersistent {
		return semantics.PersistentSemantics{}
	}
	return semantics.EventSemantics{}
}

// Window restricts the view to the closed-open interval [lo, hi),
// intersected with any existing window restriction.
func (v View) Window(lo, hi int64) View {
	v.win = v.win.Intersect(semantics.Window{Lo: lo, Hi: hi})
	return v
}

// Before restricts the view to window(MinT, t).
func (v View) Before(t int64) View { return v.Window(MinT, t) }

// After restricts the view to window(t+1, MaxT).
func (v View) After(t int64) View { return v.Window(t+1, MaxT) }

// At restricts the view to the single instant t, i.e. window(t, t+1).
func (v View) At(t int64) View { return v.Window(t, t+1) }

// MinT and MaxT bound the representable time axis.
const (
	MinT = semantics.MinT
	MaxT = semantics.MaxT
)

// DefaultLayer restricts the view to the graph's default (unnamed)
// layer.
func (v View) DefaultLayer() View {
	return v.layersByID(v.store.DefaultLayerID())
}

// Layers restricts the view to the named layers, intersected with any
// existing layer restriction. A name the graph has never seen selects
// nothing.
func (v View) Layers(names ...string) View {
	ids := make([]layers.ID, 0, len(names))
	for _, name := range names {
		id, ok := v.store.LayerID(name)
		if !ok {
			// An unknown layer name can never match an edge; collapse
			// the whole selection the way layers.None() does.
			v.sel = layers.None()
			return v
		}
		ids = append(ids, id)
	}
	return v.layersByID(ids...)
}

// layersByID restricts the view to the given layer ids directly,
// without a name lookup; used once a name has already been resolved.
func (v View) layersByID(ids ...layers.ID) View {
	v.sel = v.sel.Intersect(layers.Multiple(ids))
	return v
}

// Nodes returns every node visible in this view.
func (v View) Nodes() []NodeView {
	nodes := v.store.Nodes()
	out := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		if semantics.NodeInWindow(n, v.win) {
			out = append(out, NodeView{view: v, vid: n.VID()})
		}
	}
	return out
}

// Node looks up a single node by external id, if it exists and is
// visible in this view.
func (v View) Node(id NodeID) (NodeView, bool) {
	vid, ok := v.store.NodeByExternal(id)
	if !ok {
		return NodeView{}, false
	}
	rec, err := v.store.Node(vid)
	if err != nil || !semantics.NodeInWindow(rec, v.win) {
		return NodeView{}, false
	}
	return NodeView{view: v, vid: vid}, true
}

// Edges returns every edge visible in this view.
func (v View) Edges() []EdgeView {
	edges := v.store.Edges()
	out := make([]EdgeView, 0, len(edges))
	for _, e := range edges {
		if v.sem.IncludeEdgeWindow(e, v.win, v.sel) {
			out = append(out, EdgeView{view: v, eid: e.EID()})
		}
	}
	return out
}

// Edge looks up a single bare edge reference between src and dst, if it
// is visible in this view.
func (v View) Edge(src, dst NodeID) (EdgeView, bool) {
	srcVID, ok := v.store.NodeByExternal(src)
	if !ok {
		return EdgeView{}, false
	}
	dstVID, ok := v.store.NodeByExternal(dst)
	if !ok {
		return EdgeView{}, false
	}
	eid, ok := v.store.EdgeBetween(srcVID, dstVID)
	if !ok {
		return EdgeView{}, false
	}
	rec, err := v.store.Edge(eid)
	if err != nil || !v.sem.IncludeEdgeWindow(rec, v.win, v.sel) {
		return EdgeView{}, false
	}
	return EdgeView{view: v, eid: eid}, true
}

// HasEdge reports whether an edge between src and dst is visible in
// this view.
func (v View) HasEdge(src, dst NodeID) bool {
	_, ok := v.Edge(src, dst)
	return ok
}

// CountEdges returns the number of distinct edges visible in this view.
func (v View) CountEdges() int { return len(v.Edges()) }

// CountTemporalEdges returns the number of exploded (time, layer)
// edge references visible in this view: the sum of each visible
// edge's Explode() length.
func (v View) CountTemporalEdges() int {
	n := 0
	for _, e := range v.store.Edges() {
		n += v.sem.EdgeExplodedCountWindow(e, v.win, v.sel)
	}
	return n
}
