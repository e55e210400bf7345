package chronon

import (
	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/storage"
)

// EdgeView is a reference to a single edge, restricted to the window
// and layer selection of the originating View. A reference may
// additionally be pinned to a single time and/or a single layer;
// Explode produces references that are pinned to both.
type EdgeView struct {
	view View
	eid  storage.EID

	hasTime   bool
	pinnedT   int64
	pinnedSeq uint64

	hasLayer    bool
	pinnedLayer layers.ID
	synthetic   bool
}

func (e EdgeView) record() *storage.EdgeRecord {
	rec, err := e.view.store.Edge(e.eid)
	if err != nil {
		panic(err)
	}
	return rec
}

// selection returns the layer selection this reference resolves
// queries against: the pinned layer if one is set, otherwise the
// originating view's selection.
func (e EdgeView) selection() layers.LayerIds {
	if e.hasLayer {
		return layers.One(e.pinnedLayer)
	}
	return e.view.sel
}

// Src and Dst return the edge's endpoints.
func (e EdgeView) Src() NodeID { return e.endpoint(e.record().Src()) }
func (e EdgeView) Dst() NodeID { return e.endpoint(e.record().Dst()) }

func (e EdgeView) endpoint(vid storage.VID) NodeID {
	rec, err := e.view.store.Node(vid)
	if err != nil {
		panic(err)
	}
	return rec.External()
}

// Layer returns the pinned layer's name, if this reference is
// layer-pinned.
func (e EdgeView) Layer() (string, bool) {
	if !e.hasLayer {
		return "", false
	}
	return e.view.store.LayerName(e.pinnedLayer)
}

// Time returns the pinned time, if this reference is time-pinned.
func (e EdgeView) Time() (int64, bool) {
	if !e.hasTime {
		return 0, false
	}
	return e.pinnedT, true
}

// Synthetic reports whether a time-pinned reference corresponds to a
// synthetic "already alive" instant rather than a real addition event
// (only possible in the persistent variant).
func (e EdgeView) Synthetic() bool { return e.synthetic }

// EarliestTime returns the edge's earliest observable time, across its
// pinned layer (if any) and within the view's window.
func (e EdgeView) EarliestTime() (int64, bool) {
	if e.hasTime {
		return e.pinnedT, true
	}
	return e.view.sem.EdgeEarliestTimeWindow(e.record(), e.view.win, e.selection())
}

// LatestTime returns the edge's latest observable time.
func (e EdgeView) LatestTime() (int64, bool) {
	if e.hasTime {
		return e.pinnedT, true
	}
	return e.view.sem.EdgeLatestTimeWindow(e.record(), e.view.win, e.selection())
}

// History returns the edge's distinct addition times within the view's
// window and selected layers, strictly increasing.
func (e EdgeView) History() []int64 {
	rec := e.record()
	var out []int64
	seen := make(map[int64]bool)
	for _, ref := range e.view.sem.EdgeExplodedWindow(rec, e.view.win, e.selection()) {
		if ref.Synthetic || seen[ref.T] {
			continue
		}
		seen[ref.T] = true
		out = append(out, ref.T)
	}
	return out
}

// IsValid reports whether this reference is alive: at its pinned time
// if one is set, otherwise at the end of the view's window.
func (e EdgeView) IsValid() bool {
	t := e.referenceTime()
	return e.view.sem.IsValid(e.record(), t, e.selection())
}

// IsDeleted is the complement of IsValid for the persistent variant;
// event graphs never report a reference deleted.
func (e EdgeView) IsDeleted() bool {
	t := e.referenceTime()
	return e.view.sem.IsDeleted(e.record(), t, e.selection())
}

func (e EdgeView) referenceTime() int64 {
	if e.hasTime {
		return e.pinnedT
	}
	if e.view.win.Hi == MaxT {
		return MaxT - 1
	}
	return e.view.win.Hi - 1
}

// Properties returns this edge's constant properties across the
// selected layers, merged with the latest temporal value in force at
// the reference's time (or the window's end, for a bare reference).
func (e EdgeView) Properties() Properties {
	rec := e.record()
	out := make(Properties)
	at := e.referenceTime() + 1
	for _, l := range rec.SelectedLayers(e.selection()) {
		for _, key := range rec.ConstPropKeys(l) {
			if v, ok := rec.ConstProp(l, key); ok {
				if name, ok := e.view.store.PropKeyName(key); ok {
					out[name] = v
				}
			}
		}
		for _, key := range rec.TemporalPropKeysLayer(l) {
			cell, ok := rec.TemporalPropLayer(l, key)
			if !ok {
				continue
			}
			v, ok := cell.LastBefore(at)
			if !ok {
				continue
			}
			if name, ok := e.view.store.PropKeyName(key); ok {
				out[name] = v
			}
		}
	}
	return out
}

// TimeValue is one (time, value) observation in a temporal property
// log, as returned by EdgeView.TemporalProperty.
type TimeValue struct {
	T   int64
	Val Value
}

// TemporalProperty returns the temporal log for name within the view's
// window, across the selected layers, ordered by time. In the
// persistent variant, an edge alive at the window's start contributes a
// synthetic tick at the start carrying the value then in force, even if
// no write occurred at that instant.
func (e EdgeView) TemporalProperty(name string) []TimeValue {
	key, ok := e.view.store.PropKeyID(name)
	if !ok {
		return nil
	}
	vals := e.view.sem.EdgeTemporalPropWindow(e.record(), e.view.win, e.selection(), key)
	out := make([]TimeValue, len(vals))
	for i, tv := range vals {
		out[i] = TimeValue{T: tv.T, Val: tv.Val}
	}
	return out
}

// Explode yields one time-and-layer-pinned reference per concrete
// (time, layer) instance of this edge within the view's window and
// layer selection.
func (e EdgeView) Explode() []EdgeView {
	rec := e.record()
	refs := e.view.sem.EdgeExplodedWindow(rec, e.view.win, e.selection())
	out := make([]EdgeView, len(refs))
	for i, ref := range refs {
		out[i] = EdgeView{
			view:        e.view,
			eid:         e.eid,
			hasTime:     true,
			pinnedT:     ref.T,
			pinnedSeq:   ref.Seq,
			hasLayer:    true,
			pinnedLayer: ref.Layer,
			synthetic:   ref.Synthetic,
		}
	}
	return out
}
