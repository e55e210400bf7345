package storage

import (
	"sort"
	"sync"

	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/tcell"
	"github.com/chronon-db/chronon/internal/timeindex"
)

// edgeLayerData holds one layer's slice of an edge: its addition and
// deletion histories and its per-layer properties.
type edgeLayerData struct {
	additions timeindex.TimeIndex
	deletions timeindex.TimeIndex

	constProps    map[prop.ID]prop.Value
	temporalProps map[prop.ID]*tcell.TProp
}

func newEdgeLayerData() *edgeLayerData {
	return &edgeLayerData{
		constProps:    make(map[prop.ID]prop.Value),
		temporalProps: make(map[prop.ID]*tcell.TProp),
	}
}

// LayerUpdate is one layer's addition/deletion pair, yielded by
// EdgeRecord.UpdatesIter.
type LayerUpdate struct {
	Layer     layers.ID
	Additions timeindex.TimeIndex
	Deletions timeindex.TimeIndex
}

// EdgeRecord is the per-edge record: src/dst, and a
// sparse set of per-layer addition/deletion histories and properties.
// Repeated AddEdge calls on the same (src, dst, layer) append to the
// existing layer's addition history rather than creating a new record.
type EdgeRecord struct {
	mu sync.RWMutex

	eid      EID
	src, dst VID

	byLayer map[layers.ID]*edgeLayerData
}

func newEdgeRecord(eid EID, src, dst VID) *EdgeRecord {
	return &EdgeRecord{
		eid:     eid,
		src:     src,
		dst:     dst,
		byLayer: make(map[layers.ID]*edgeLayerData),
	}
}

// EID, Src, Dst return the edge's identity.
func (e *EdgeRecord) EID() EID { return e.eid }
func (e *EdgeRecord) Src() VID { return e.src }
func (e *EdgeRecord) Dst() VID { return e.dst }

// layer returns (creating if needed) the per-layer data for l.
func (e *EdgeRecord) layer(l layers.ID) *edgeLayerData {
	ld, ok := e.byLayer[l]
	if !ok {
		ld = newEdgeLayerData()
		e.byLayer[l] = ld
	}
	return ld
}

// Layers returns the sorted set of layer ids this edge has any data on.
func (e *EdgeRecord) Layers() []layers.ID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.layersLocked()
}

func (e *EdgeRecord) layersLocked() []layers.ID {
	out := make([]layers.ID, 0, len(e.byLayer))
	for l := range e.byLayer {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// selectedLayersLocked returns this edge's own layers intersected with
// sel, in ascending order. Must be called with e.mu held.
func (e *EdgeRecord) selectedLayersLocked(sel layers.LayerIds) []layers.ID {
	if sel.IsNone() {
		return nil
	}
	all := e.layersLocked()
	if sel.IsAll() {
		return all
	}
	out := make([]layers.ID, 0, len(all))
	for _, l := range all {
		if sel.Contains(l, nil) {
			out = append(out, l)
		}
	}
	return out
}

// SelectedLayers returns this edge's own layers intersected with sel,
// in ascending order.
func (e *EdgeRecord) SelectedLayers(sel layers.LayerIds) []layers.ID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selectedLayersLocked(sel)
}

// addAddition records an addition event at entry t on layer l.
func (e *EdgeRecord) addAddition(l layers.ID, t timeindex.Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.layer(l).additions.Insert(t)
}

// addDeletion records a deletion event at entry t on layer l.
func (e *EdgeRecord) addDeletion(l layers.ID, t timeindex.Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.layer(l).deletions.Insert(t)
}

// rawLayer returns the layer data for l without creating it, or nil.
func (e *EdgeRecord) rawLayer(l layers.ID) *edgeLayerData {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.byLayer[l]
}

// LayerAdditions returns the raw addition TimeIndex for a single layer
// (empty if the edge has no data on that layer).
func (e *EdgeRecord) LayerAdditions(l layers.ID) timeindex.TimeIndex {
	ld := e.rawLayer(l)
	if ld == nil {
		return timeindex.Empty()
	}
	return ld.additions
}

// LayerDeletions returns the raw deletion TimeIndex for a single layer.
func (e *EdgeRecord) LayerDeletions(l layers.ID) timeindex.TimeIndex {
	ld := e.rawLayer(l)
	if ld == nil {
		return timeindex.Empty()
	}
	return ld.deletions
}

// Additions returns the logical union of addition histories across the
// selected layers. A single-layer selection shares the layer's own
// index; a multi-layer one merges entries into a fresh index.
func (e *EdgeRecord) Additions(sel layers.LayerIds) timeindex.TimeIndex {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mergeLocked(sel, func(ld *edgeLayerData) timeindex.TimeIndex { return ld.additions })
}

// Deletions returns the logical union of deletion histories across the
// selected layers.
func (e *EdgeRecord) Deletions(sel layers.LayerIds) timeindex.TimeIndex {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mergeLocked(sel, func(ld *edgeLayerData) timeindex.TimeIndex { return ld.deletions })
}

func (e *EdgeRecord) mergeLocked(sel layers.LayerIds, pick func(*edgeLayerData) timeindex.TimeIndex) timeindex.TimeIndex {
	ls := e.selectedLayersLocked(sel)
	if len(ls) == 0 {
		return timeindex.Empty()
	}
	if len(ls) == 1 {
		return pick(e.byLayer[ls[0]])
	}
	var all []timeindex.Entry
	for _, l := range ls {
		all = append(all, pick(e.byLayer[l]).Iter()...)
	}
	return timeindex.FromEntries(all)
}

// Active reports whether any addition across the selected layers falls
// in the closed-open window [lo, hi).
func (e *EdgeRecord) Active(sel layers.LayerIds, lo, hi int64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, l := range e.selectedLayersLocked(sel) {
		if e.byLayer[l].additions.Active(lo, hi) {
			return true
		}
	}
	return false
}

// UpdatesIter returns each selected layer's (additions, deletions) pair,
// in ascending layer-id order.
func (e *EdgeRecord) UpdatesIter(sel layers.LayerIds) []LayerUpdate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ls := e.selectedLayersLocked(sel)
	out := make([]LayerUpdate, 0, len(ls))
	for _, l := range ls {
		ld := e.byLayer[l]
		out = append(out, LayerUpdate{Layer: l, Additions: ld.additions, Deletions: ld.deletions})
	}
	return out
}

// HasTemporalProp reports whether any selected layer has ever written
// key.
func (e *EdgeRecord) HasTemporalProp(sel layers.LayerIds, key prop.ID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, l := range e.selectedLayersLocked(sel) {
		if _, ok := e.byLayer[l].temporalProps[key]; ok {
			return true
		}
	}
	return false
}

// TemporalPropLayer returns the TProp log for key on a single layer.
func (e *EdgeRecord) TemporalPropLayer(l layers.ID, key prop.ID) (*tcell.TProp, bool) {
	ld := e.rawLayer(l)
	if ld == nil {
		return nil, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	cell, ok := ld.temporalProps[key]
	return cell, ok
}

// ConstPropKeys returns the constant property keys set on layer l, for
// deterministic iteration (e.g. the snapshot codec).
func (e *EdgeRecord) ConstPropKeys(l layers.ID) []prop.ID {
	ld := e.rawLayer(l)
	if ld == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]prop.ID, 0, len(ld.constProps))
	for k := range ld.constProps {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TemporalPropKeysLayer returns the temporal property keys ever written
// on layer l.
func (e *EdgeRecord) TemporalPropKeysLayer(l layers.ID) []prop.ID {
	ld := e.rawLayer(l)
	if ld == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]prop.ID, 0, len(ld.temporalProps))
	for k := range ld.temporalProps {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LastDeletionBefore returns the largest deletion entry strictly before
// t, across the selected layers.
func (e *EdgeRecord) LastDeletionBefore(sel layers.LayerIds, t int64) (timeindex.Entry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var best timeindex.Entry
	found := false
	for _, l := range e.selectedLayersLocked(sel) {
		sub := e.byLayer[l].deletions.Range(timeindex.MinEntry.T, t)
		if last, ok := sub.Last(); ok {
			if !found || best.Less(last) {
				best = last
				found = true
			}
		}
	}
	return best, found
}

// setConstProp sets a per-layer constant property.
func (e *EdgeRecord) setConstProp(l layers.ID, key prop.ID, v prop.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ld := e.layer(l)
	if existing, ok := ld.constProps[key]; ok {
		if !existing.Equal(v) {
			return ErrConstantPropertyConflict
		}
		return nil
	}
	ld.constProps[key] = v
	return nil
}

// ConstProp returns a per-layer constant property.
func (e *EdgeRecord) ConstProp(l layers.ID, key prop.ID) (prop.Value, bool) {
	ld := e.rawLayer(l)
	if ld == nil {
		return prop.Value{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := ld.constProps[key]
	return v, ok
}

// setTemporalProp appends a temporal property write on layer l.
func (e *EdgeRecord) setTemporalProp(l layers.ID, key prop.ID, t timeindex.Entry, v prop.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ld := e.layer(l)
	cell, ok := ld.temporalProps[key]
	if !ok {
		ld.temporalProps[key] = tcell.NewTProp(t, v)
		return
	}
	cell.Set(t, v)
}
