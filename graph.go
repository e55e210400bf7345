package chronon

import (
	"fmt"

	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/storage"
)

// Graph is an event graph: edges exist only at the instants they were
// added, and DeleteEdge is not supported.
// Graph embeds View, so every query method (Nodes, Edges, Window,
// Layers, ...) is available directly on a *Graph over its full,
// unrestricted extent.
type Graph struct {
	store   *storage.GraphStorage
	durable *storage.DurableLog
	View
}

// PersistentGraph is a persistent graph: an addition remains in force
// until an explicit DeleteEdge. It additionally supports EventGraph,
// converting to a plain event graph.
type PersistentGraph struct {
	store   *storage.GraphStorage
	durable *storage.DurableLog
	View
}

// NewGraph returns an empty event graph.
func NewGraph() *Graph {
	store := storage.New(storage.VariantEvent)
	return &Graph{store: store, View: newRootView(store, storage.VariantEvent)}
}

// NewPersistentGraph returns an empty persistent graph.
func NewPersistentGraph() *PersistentGraph {
	store := storage.New(storage.VariantPersistent)
	return &PersistentGraph{store: store, View: newRootView(store, storage.VariantPersistent)}
}

// DurableConfig configures the optional badger-backed write-ahead
// mutation log. Durability is an additive concern; the in-memory core
// itself has no opinion on it.
type DurableConfig = storage.DurableConfig

// DefaultDurableConfig returns durability turned off.
func DefaultDurableConfig() DurableConfig { return storage.DefaultDurableConfig() }

// DurableConfigFromEnv loads a DurableConfig from CHRONON_DURABLE_*
// environment variables, falling back to DefaultDurableConfig for
// anything unset.
func DurableConfigFromEnv() DurableConfig { return storage.DurableConfigFromEnv() }

// OpenDurableGraph opens an event graph backed by a badger write-ahead
// mutation log: prior mutations recorded under cfg.DataDir are replayed
// before the graph is returned, and every subsequent mutation is
// appended to the log as well as applied in memory.
func OpenDurableGraph(cfg storage.DurableConfig) (*Graph, error) {
	store := storage.New(storage.VariantEvent)
	log, err := openAndReplay(cfg, store)
	if err != nil {
		return nil, err
	}
	return &Graph{store: store, durable: log, View: newRootView(store, storage.VariantEvent)}, nil
}

// OpenDurablePersistentGraph is OpenDurableGraph for the persistent
// variant.
func OpenDurablePersistentGraph(cfg storage.DurableConfig) (*PersistentGraph, error) {
	store := storage.New(storage.VariantPersistent)
	log, err := openAndReplay(cfg, store)
	if err != nil {
		return nil, err
	}
	return &PersistentGraph{store: store, durable: log, View: newRootView(store, storage.VariantPersistent)}, nil
}

func openAndReplay(cfg storage.DurableConfig, store *storage.GraphStorage) (*storage.DurableLog, error) {
	log, err := storage.OpenDurableLog(cfg)
	if err != nil {
		return nil, fmt.Errorf("chronon: opening durable log: %w", err)
	}
	if log == nil {
		return nil, nil
	}
	if err := log.Replay(store); err != nil {
		log.Close()
		return nil, fmt.Errorf("chronon: replaying durable log: %w", err)
	}
	return log, nil
}

// Close releases the durable log backing this graph, if any.
func (g *Graph) Close() error { return g.durable.Close() }

// Close releases the durable log backing this graph, if any.
func (g *PersistentGraph) Close() error { return g.durable.Close() }

// AddNode ensures a node exists for id, recording temporal property
// writes at t and (if provided) an initial node type. Repeated calls on
// the same id are idempotent aside from appending to the node's
// mutation history.
func (g *Graph) AddNode(t int64, id NodeID, props Properties, nodeType ...uint32) (NodeView, error) {
	return addNode(g.store, g.durable, g.View, t, id, props, nodeType...)
}

func (g *PersistentGraph) AddNode(t int64, id NodeID, props Properties, nodeType ...uint32) (NodeView, error) {
	return addNode(g.store, g.durable, g.View, t, id, props, nodeType...)
}

func addNode(store *storage.GraphStorage, durable *storage.DurableLog, root View, t int64, id NodeID, props Properties, nodeType ...uint32) (NodeView, error) {
	var ty uint32
	hasType := len(nodeType) > 0
	if hasType {
		ty = nodeType[0]
	}
	vid := store.AddNode(id, t, ty, hasType)
	if err := writeTemporalNodeProps(store, vid, t, props); err != nil {
		return NodeView{}, err
	}
	appendMutation(durable, storage.MutationRecord{Kind: storage.MutAddNode, ExternalIsStr: isStr(id), ExternalInt: intOf(id), ExternalStr: strOf(id), NodeType: ty, HasType: hasType, T: t})
	return NodeView{view: root, vid: vid}, nil
}

// AddEdge ensures an edge exists between src and dst on layer (the
// default layer if omitted), recording an addition event and any
// temporal property writes at t. Endpoint nodes are created implicitly
// if they do not already exist.
func (g *Graph) AddEdge(t int64, src, dst NodeID, props Properties, layer ...string) (EdgeView, error) {
	return addEdge(g.store, g.durable, g.View, t, src, dst, props, layer...)
}

func (g *PersistentGraph) AddEdge(t int64, src, dst NodeID, props Properties, layer ...string) (EdgeView, error) {
	return addEdge(g.store, g.durable, g.View, t, src, dst, props, layer...)
}

func addEdge(store *storage.GraphStorage, durable *storage.DurableLog, root View, t int64, src, dst NodeID, props Properties, layer ...string) (EdgeView, error) {
	srcVID := store.AddNode(src, t, 0, false)
	dstVID := store.AddNode(dst, t, 0, false)
	l := resolveLayer(store, layer...)

	eid, err := store.AddEdge(srcVID, dstVID, l, t)
	if err != nil {
		return EdgeView{}, err
	}
	if err := writeTemporalEdgeProps(store, eid, l, t, props); err != nil {
		return EdgeView{}, err
	}
	// src/dst are journaled here too (not just from an explicit AddNode
	// call) so Replay can recreate them before it replays this AddEdge
	// record into a fresh, empty store.
	appendMutation(durable, storage.MutationRecord{Kind: storage.MutAddNode, ExternalIsStr: isStr(src), ExternalInt: intOf(src), ExternalStr: strOf(src), T: t})
	appendMutation(durable, storage.MutationRecord{Kind: storage.MutAddNode, ExternalIsStr: isStr(dst), ExternalInt: intOf(dst), ExternalStr: strOf(dst), T: t})
	appendMutation(durable, storage.MutationRecord{Kind: storage.MutAddEdge, Src: srcVID, Dst: dstVID, Layer: uint32(l), T: t})
	return EdgeView{view: root, eid: eid}, nil
}

// DeleteEdge records a deletion event between src and dst on layer (the
// default layer if omitted) at time t. Persistent graphs only; Graph
// always returns ErrDeletionNotSupported.
func (g *Graph) DeleteEdge(t int64, src, dst NodeID, layer ...string) error {
	return ErrDeletionNotSupported
}

func (g *PersistentGraph) DeleteEdge(t int64, src, dst NodeID, layer ...string) error {
	srcVID := g.store.AddNode(src, t, 0, false)
	dstVID := g.store.AddNode(dst, t, 0, false)
	l := resolveLayer(g.store, layer...)
	if err := g.store.DeleteEdge(srcVID, dstVID, l, t); err != nil {
		return err
	}
	appendMutation(g.durable, storage.MutationRecord{Kind: storage.MutAddNode, ExternalIsStr: isStr(src), ExternalInt: intOf(src), ExternalStr: strOf(src), T: t})
	appendMutation(g.durable, storage.MutationRecord{Kind: storage.MutAddNode, ExternalIsStr: isStr(dst), ExternalInt: intOf(dst), ExternalStr: strOf(dst), T: t})
	appendMutation(g.durable, storage.MutationRecord{Kind: storage.MutDeleteEdge, Src: srcVID, Dst: dstVID, Layer: uint32(l), T: t})
	return nil
}

// AddNodeProperties sets one or more constant properties on id,
// failing with ErrConstantPropertyConflict if a different value was
// already recorded for any key.
func (g *Graph) AddNodeProperties(id NodeID, props Properties) error {
	return addNodeProperties(g.store, id, props)
}

func (g *PersistentGraph) AddNodeProperties(id NodeID, props Properties) error {
	return addNodeProperties(g.store, id, props)
}

func addNodeProperties(store *storage.GraphStorage, id NodeID, props Properties) error {
	vid, ok := store.NodeByExternal(id)
	if !ok {
		return fmt.Errorf("node %v: %w", id, ErrUnknownNode)
	}
	for name, v := range props {
		if err := store.AddNodeConstantProperty(vid, store.PropKey(name), v); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
	}
	return nil
}

// AddEdgeProperties sets one or more constant properties on the edge
// between src and dst on layer (the default layer if omitted), failing
// with ErrConstantPropertyConflict if a different value was already
// recorded for any key.
func (g *Graph) AddEdgeProperties(src, dst NodeID, props Properties, layer ...string) error {
	return addEdgeProperties(g.store, src, dst, props, layer...)
}

func (g *PersistentGraph) AddEdgeProperties(src, dst NodeID, props Properties, layer ...string) error {
	return addEdgeProperties(g.store, src, dst, props, layer...)
}

func addEdgeProperties(store *storage.GraphStorage, src, dst NodeID, props Properties, layer ...string) error {
	srcVID, ok := store.NodeByExternal(src)
	if !ok {
		return fmt.Errorf("node %v: %w", src, ErrUnknownNode)
	}
	dstVID, ok := store.NodeByExternal(dst)
	if !ok {
		return fmt.Errorf("node %v: %w", dst, ErrUnknownNode)
	}
	eid, ok := store.EdgeBetween(srcVID, dstVID)
	if !ok {
		return fmt.Errorf("edge %v->%v: %w", src, dst, ErrUnknownEdge)
	}
	l := resolveLayer(store, layer...)
	for name, v := range props {
		if err := store.AddEdgeConstantProperty(eid, l, store.PropKey(name), v); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
	}
	return nil
}

// AddGraphProperties sets one or more graph-level constant properties.
func (g *Graph) AddGraphProperties(props Properties) error { return addGraphProperties(g.store, props) }

func (g *PersistentGraph) AddGraphProperties(props Properties) error {
	return addGraphProperties(g.store, props)
}

func addGraphProperties(store *storage.GraphStorage, props Properties) error {
	for name, v := range props {
		if err := store.AddGraphProperty(store.PropKey(name), v); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
	}
	return nil
}

// EventGraph converts a persistent graph to a plain event graph,
// keeping only each edge's addition history. A persistent graph with
// no deletions converts losslessly.
func (g *PersistentGraph) EventGraph() *Graph {
	event := storage.New(storage.VariantEvent)
	for _, lid := range g.store.AllLayerIDs() {
		if name, ok := g.store.LayerName(lid); ok {
			event.EnsureLayer(name)
		}
	}
	for _, n := range g.store.Nodes() {
		ty, hasType := n.NodeType()
		entries := n.Timestamps().Iter()
		var vid storage.VID
		if len(entries) == 0 {
			vid = event.AddNode(n.External(), 0, ty, hasType)
		}
		for i, e := range entries {
			if i == 0 {
				vid = event.AddNode(n.External(), e.T, ty, hasType)
				continue
			}
			vid = event.AddNode(n.External(), e.T, 0, false)
		}
		for key, v := range n.ConstProps() {
			event.AddNodeConstantProperty(vid, key, v)
		}
		for _, key := range n.TemporalPropKeys() {
			cell, _ := n.TemporalProp(key)
			for _, tv := range cell.IterEntries() {
				event.AddNodeTemporalProperty(vid, key, tv.At.T, tv.Val)
			}
		}
	}
	for _, e := range g.store.Edges() {
		srcExt := externalOf(g.store, e.Src())
		dstExt := externalOf(g.store, e.Dst())
		srcVID, _ := event.NodeByExternal(srcExt)
		dstVID, _ := event.NodeByExternal(dstExt)
		for _, l := range e.Layers() {
			for _, entry := range e.LayerAdditions(l).Iter() {
				eid, _ := event.AddEdge(srcVID, dstVID, l, entry.T)
				for _, key := range e.ConstPropKeys(l) {
					v, _ := e.ConstProp(l, key)
					event.AddEdgeConstantProperty(eid, l, key, v)
				}
				for _, key := range e.TemporalPropKeysLayer(l) {
					cell, _ := e.TemporalPropLayer(l, key)
					if v, ok := cell.At(entry.T); ok {
						event.AddEdgeTemporalProperty(eid, l, key, entry.T, v)
					}
				}
			}
		}
	}
	return &Graph{store: event, View: newRootView(event, storage.VariantEvent)}
}

func externalOf(store *storage.GraphStorage, vid storage.VID) storage.ExternalID {
	rec, _ := store.Node(vid)
	return rec.External()
}

func resolveLayer(store *storage.GraphStorage, layer ...string) layers.ID {
	if len(layer) == 0 || layer[0] == "" {
		return store.DefaultLayerID()
	}
	return store.EnsureLayer(layer[0])
}

func writeTemporalNodeProps(store *storage.GraphStorage, vid storage.VID, t int64, props Properties) error {
	for name, v := range props {
		if err := store.AddNodeTemporalProperty(vid, store.PropKey(name), t, v); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
	}
	return nil
}

func writeTemporalEdgeProps(store *storage.GraphStorage, eid storage.EID, l layers.ID, t int64, props Properties) error {
	for name, v := range props {
		if err := store.AddEdgeTemporalProperty(eid, l, store.PropKey(name), t, v); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
	}
	return nil
}

func appendMutation(durable *storage.DurableLog, rec storage.MutationRecord) {
	if durable == nil {
		return
	}
	_ = durable.Append(rec)
}

func isStr(id NodeID) bool   { _, ok := id.AsStr(); return ok }
func strOf(id NodeID) string { s, _ := id.AsStr(); return s }
func intOf(id NodeID) int64  { i, _ := id.AsInt(); return i }
