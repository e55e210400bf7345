// Package storage implements the node/edge arenas and the mutation and
// read surface of GraphStorage: per-entity records, identity
// interning, and the append-only histories every read is built from.
package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/timeindex"
	"github.com/chronon-db/chronon/internal/tvec"
)

// GraphVariant discriminates event-graph from persistent-graph
// semantics. GraphStorage itself is variant-agnostic; the variant
// only changes how DeleteEdge and the read semantics behave, which is
// enforced by the semantics layer and by GraphStorage.DeleteEdge's own
// variant check.
type GraphVariant uint8

const (
	// VariantEvent is an append-only event graph: edges, once added,
	// cannot be deleted.
	VariantEvent GraphVariant = iota
	// VariantPersistent supports explicit edge deletion with its own
	// addition/deletion duality.
	VariantPersistent
)

// String implements fmt.Stringer for diagnostic output (cmd/chronon-inspect).
func (v GraphVariant) String() string {
	if v == VariantPersistent {
		return "persistent"
	}
	return "event"
}

// GraphStorage is the mutable core: dense
// node and edge arenas, external-id and layer-name interning, and the
// mutation/read API every other component is built from.
type GraphStorage struct {
	variant GraphVariant

	seq seqCounter

	// nodes/edges are append-only arenas; VID/EID are indices into them
	// and are never reused or reassigned.
	nodesMu sync.RWMutex
	nodes   []*NodeRecord
	byExt   map[ExternalID]VID

	edgesMu sync.RWMutex
	edges   []*EdgeRecord
	byKey   map[edgeKey]EID

	layerNames *prop.Interner // layer id <-> name, a distinct namespace from property keys
	propKeys   *prop.Interner // per-graph property key interning

	graphPropsMu sync.RWMutex
	graphProps   map[prop.ID]prop.Value

	// creationMu guards the two TVec-backed creation indices below: an
	// append-only, time-tagged record of "this VID/EID was first
	// referenced at this time", kept distinct from the
	// per-entity mutation histories in NodeRecord/EdgeRecord. This is
	// what lets NodesCreatedWindow answer "what's new here" without a
	// full arena scan.
	creationMu   sync.RWMutex
	nodeCreation *tvec.TVec[VID]
	edgeCreation *tvec.TVec[EID]
}

// New creates an empty GraphStorage of the given variant.
func New(variant GraphVariant) *GraphStorage {
	g := &GraphStorage{
		variant:      variant,
		byExt:        make(map[ExternalID]VID),
		byKey:        make(map[edgeKey]EID),
		layerNames:   prop.NewInterner(),
		propKeys:     prop.NewInterner(),
		graphProps:   make(map[prop.ID]prop.Value),
		nodeCreation: tvec.New[VID](),
		edgeCreation: tvec.New[EID](),
	}
	// Layer 0 is always the default layer.
	g.layerNames.Intern("")
	return g
}

// Variant reports whether this storage is an event or persistent graph.
func (g *GraphStorage) Variant() GraphVariant { return g.variant }

// DefaultLayerID returns the always-present default layer, id 0.
func (g *GraphStorage) DefaultLayerID() layers.ID { return layers.ID(0) }

// EnsureLayer interns name, creating a new layer id if it has not been
// seen before, and returns its id.
func (g *GraphStorage) EnsureLayer(name string) layers.ID {
	return layers.ID(g.layerNames.Intern(name))
}

// LayerID looks up an existing layer by name.
func (g *GraphStorage) LayerID(name string) (layers.ID, bool) {
	id, ok := g.layerNames.Lookup(name)
	return layers.ID(id), ok
}

// LayerName resolves a layer id back to its name.
func (g *GraphStorage) LayerName(id layers.ID) (string, bool) {
	return g.layerNames.Resolve(prop.ID(id))
}

// PropKey interns a property key name.
func (g *GraphStorage) PropKey(name string) prop.ID {
	return g.propKeys.Intern(name)
}

// PropKeyName resolves a property key id back to its name.
func (g *GraphStorage) PropKeyName(id prop.ID) (string, bool) {
	return g.propKeys.Resolve(id)
}

// PropKeyID looks up an already-interned property key by name, without
// interning a new one.
func (g *GraphStorage) PropKeyID(name string) (prop.ID, bool) {
	return g.propKeys.Lookup(name)
}

// Seq reports the current sequence counter value (for snapshot save).
func (g *GraphStorage) Seq() uint64 { return g.seq.current() }

// AddNode ensures a node exists for external, recording an event at
// time t, and returns its dense id. Repeated calls on the same external
// id are idempotent aside from appending to the node's timestamp
// history.
func (g *GraphStorage) AddNode(external ExternalID, t int64, nodeType uint32, hasType bool) VID {
	entry := g.seq.next(t)

	g.nodesMu.Lock()
	vid, ok := g.byExt[external]
	isNew := !ok
	if !ok {
		vid = VID(len(g.nodes))
		rec := newNodeRecord(vid, external)
		g.nodes = append(g.nodes, rec)
		g.byExt[external] = vid
	}
	rec := g.nodes[vid]
	g.nodesMu.Unlock()

	if isNew {
		g.creationMu.Lock()
		g.nodeCreation.Push(entry, vid)
		g.creationMu.Unlock()
	}

	rec.touch(entry)
	if hasType {
		rec.setNodeType(nodeType)
	}
	return vid
}

// NodeByExternal looks up a node's dense id by its external identity.
func (g *GraphStorage) NodeByExternal(external ExternalID) (VID, bool) {
	g.nodesMu.RLock()
	defer g.nodesMu.RUnlock()
	vid, ok := g.byExt[external]
	return vid, ok
}

// Node returns the node record for vid.
func (g *GraphStorage) Node(vid VID) (*NodeRecord, error) {
	g.nodesMu.RLock()
	defer g.nodesMu.RUnlock()
	if int(vid) >= len(g.nodes) {
		return nil, fmt.Errorf("node %d: %w", vid, ErrUnknownNode)
	}
	return g.nodes[vid], nil
}

// NodeCount returns the number of nodes ever created.
func (g *GraphStorage) NodeCount() int {
	g.nodesMu.RLock()
	defer g.nodesMu.RUnlock()
	return len(g.nodes)
}

// Nodes returns every node record, in VID order.
func (g *GraphStorage) Nodes() []*NodeRecord {
	g.nodesMu.RLock()
	defer g.nodesMu.RUnlock()
	out := make([]*NodeRecord, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// AddEdge ensures an edge record exists for (src, dst) and records an
// addition event on layer at time t. src and dst must already be known
// node ids; callers (the root package) are responsible for implicitly
// creating endpoint nodes first.
func (g *GraphStorage) AddEdge(src, dst VID, layer layers.ID, t int64) (EID, error) {
	if err := g.checkNode(src); err != nil {
		return 0, err
	}
	if err := g.checkNode(dst); err != nil {
		return 0, err
	}

	entry := g.seq.next(t)
	key := edgeKey{Src: src, Dst: dst}

	g.edgesMu.Lock()
	eid, ok := g.byKey[key]
	isNew := !ok
	if !ok {
		eid = EID(len(g.edges))
		rec := newEdgeRecord(eid, src, dst)
		g.edges = append(g.edges, rec)
		g.byKey[key] = eid
	}
	rec := g.edges[eid]
	g.edgesMu.Unlock()

	if isNew {
		g.creationMu.Lock()
		g.edgeCreation.Push(entry, eid)
		g.creationMu.Unlock()
	}

	rec.addAddition(layer, entry)

	g.touchNode(src, entry)
	g.touchNode(dst, entry)

	return eid, nil
}

// DeleteEdge records a deletion event on layer at time t. Only valid on
// persistent-variant storage; event graphs reject it
// with ErrDeletionNotSupported.
func (g *GraphStorage) DeleteEdge(src, dst VID, layer layers.ID, t int64) error {
	if g.variant != VariantPersistent {
		return ErrDeletionNotSupported
	}
	if err := g.checkNode(src); err != nil {
		return err
	}
	if err := g.checkNode(dst); err != nil {
		return err
	}
	key := edgeKey{Src: src, Dst: dst}

	// A deletion may precede any addition: an edge record is created
	// on first reference just like AddEdge does.
	g.edgesMu.Lock()
	eid, ok := g.byKey[key]
	isNew := !ok
	if !ok {
		eid = EID(len(g.edges))
		rec := newEdgeRecord(eid, src, dst)
		g.edges = append(g.edges, rec)
		g.byKey[key] = eid
	}
	g.edgesMu.Unlock()

	entry := g.seq.next(t)
	if isNew {
		g.creationMu.Lock()
		g.edgeCreation.Push(entry, eid)
		g.creationMu.Unlock()
	}
	g.edges[eid].addDeletion(layer, entry)

	g.touchNode(src, entry)
	g.touchNode(dst, entry)
	return nil
}

func (g *GraphStorage) touchNode(vid VID, e timeindex.Entry) {
	g.nodesMu.RLock()
	rec := g.nodes[vid]
	g.nodesMu.RUnlock()
	rec.touch(e)
}

func (g *GraphStorage) checkNode(vid VID) error {
	g.nodesMu.RLock()
	defer g.nodesMu.RUnlock()
	if int(vid) >= len(g.nodes) {
		return fmt.Errorf("node %d: %w", vid, ErrUnknownNode)
	}
	return nil
}

// EdgeBetween looks up an edge's dense id by its endpoints.
func (g *GraphStorage) EdgeBetween(src, dst VID) (EID, bool) {
	g.edgesMu.RLock()
	defer g.edgesMu.RUnlock()
	eid, ok := g.byKey[edgeKey{Src: src, Dst: dst}]
	return eid, ok
}

// Edge returns the edge record for eid.
func (g *GraphStorage) Edge(eid EID) (*EdgeRecord, error) {
	g.edgesMu.RLock()
	defer g.edgesMu.RUnlock()
	if int(eid) >= len(g.edges) {
		return nil, fmt.Errorf("edge %d: %w", eid, ErrUnknownEdge)
	}
	return g.edges[eid], nil
}

// EdgeCount returns the number of distinct (src, dst) edge records.
func (g *GraphStorage) EdgeCount() int {
	g.edgesMu.RLock()
	defer g.edgesMu.RUnlock()
	return len(g.edges)
}

// Edges returns every edge record, in EID order.
func (g *GraphStorage) Edges() []*EdgeRecord {
	g.edgesMu.RLock()
	defer g.edgesMu.RUnlock()
	out := make([]*EdgeRecord, len(g.edges))
	copy(out, g.edges)
	return out
}

// AddNodeConstantProperty sets a constant property on a node.
func (g *GraphStorage) AddNodeConstantProperty(vid VID, key prop.ID, v prop.Value) error {
	rec, err := g.Node(vid)
	if err != nil {
		return err
	}
	return rec.setConstProp(key, v)
}

// AddNodeTemporalProperty appends a temporal property write on a node.
func (g *GraphStorage) AddNodeTemporalProperty(vid VID, key prop.ID, t int64, v prop.Value) error {
	rec, err := g.Node(vid)
	if err != nil {
		return err
	}
	rec.setTemporalProp(key, g.seq.next(t), v)
	return nil
}

// AddEdgeConstantProperty sets a per-layer constant property on an edge.
func (g *GraphStorage) AddEdgeConstantProperty(eid EID, layer layers.ID, key prop.ID, v prop.Value) error {
	rec, err := g.Edge(eid)
	if err != nil {
		return err
	}
	return rec.setConstProp(layer, key, v)
}

// AddEdgeTemporalProperty appends a per-layer temporal property write on
// an edge.
func (g *GraphStorage) AddEdgeTemporalProperty(eid EID, layer layers.ID, key prop.ID, t int64, v prop.Value) error {
	rec, err := g.Edge(eid)
	if err != nil {
		return err
	}
	rec.setTemporalProp(layer, key, g.seq.next(t), v)
	return nil
}

// AddGraphProperty sets a graph-level (not per-node/edge) property,
// following the same first-write-wins rule as node/edge constant
// properties.
func (g *GraphStorage) AddGraphProperty(key prop.ID, v prop.Value) error {
	g.graphPropsMu.Lock()
	defer g.graphPropsMu.Unlock()
	if existing, ok := g.graphProps[key]; ok {
		if !existing.Equal(v) {
			return ErrConstantPropertyConflict
		}
		return nil
	}
	g.graphProps[key] = v
	return nil
}

// GraphProperty reads a graph-level property.
func (g *GraphStorage) GraphProperty(key prop.ID) (prop.Value, bool) {
	g.graphPropsMu.RLock()
	defer g.graphPropsMu.RUnlock()
	v, ok := g.graphProps[key]
	return v, ok
}

// GraphProperties returns every graph-level property.
func (g *GraphStorage) GraphProperties() map[prop.ID]prop.Value {
	g.graphPropsMu.RLock()
	defer g.graphPropsMu.RUnlock()
	out := make(map[prop.ID]prop.Value, len(g.graphProps))
	for k, v := range g.graphProps {
		out[k] = v
	}
	return out
}

// EarliestTime returns the smallest timestamp seen across every node and
// edge mutation, if any have occurred.
func (g *GraphStorage) EarliestTime() (int64, bool) {
	best, found := int64(0), false
	consider := func(t int64, ok bool) {
		if ok && (!found || t < best) {
			best, found = t, true
		}
	}
	for _, n := range g.Nodes() {
		t, ok := n.Timestamps().FirstT()
		consider(t, ok)
	}
	for _, e := range g.Edges() {
		for _, u := range e.UpdatesIter(layers.All()) {
			t, ok := u.Additions.FirstT()
			consider(t, ok)
			t, ok = u.Deletions.FirstT()
			consider(t, ok)
		}
	}
	return best, found
}

// LatestTime returns the largest timestamp seen across every node and
// edge mutation, if any have occurred.
func (g *GraphStorage) LatestTime() (int64, bool) {
	best, found := int64(0), false
	consider := func(t int64, ok bool) {
		if ok && (!found || t > best) {
			best, found = t, true
		}
	}
	for _, n := range g.Nodes() {
		t, ok := n.Timestamps().LastT()
		consider(t, ok)
	}
	for _, e := range g.Edges() {
		for _, u := range e.UpdatesIter(layers.All()) {
			t, ok := u.Additions.LastT()
			consider(t, ok)
			t, ok = u.Deletions.LastT()
			consider(t, ok)
		}
	}
	return best, found
}

// NodesCreatedWindow returns the VIDs first referenced (by AddNode or
// implicitly by AddEdge) within the closed-open window [lo, hi), using
// the TVec-backed creation index rather than scanning every node's full
// mutation history.
func (g *GraphStorage) NodesCreatedWindow(lo, hi int64) []VID {
	g.creationMu.RLock()
	defer g.creationMu.RUnlock()
	return g.nodeCreation.IterWindow(lo, hi)
}

// EdgesCreatedWindow is the edge-arena counterpart of NodesCreatedWindow.
func (g *GraphStorage) EdgesCreatedWindow(lo, hi int64) []EID {
	g.creationMu.RLock()
	defer g.creationMu.RUnlock()
	return g.edgeCreation.IterWindow(lo, hi)
}

// AllLayerIDs returns every layer id ever interned, sorted ascending.
func (g *GraphStorage) AllLayerIDs() []layers.ID {
	names := g.layerNames.All()
	out := make([]layers.ID, len(names))
	for i := range names {
		out[i] = layers.ID(i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
