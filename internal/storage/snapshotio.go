package storage

import (
	"sort"

	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/tcell"
	"github.com/chronon-db/chronon/internal/timeindex"
	"github.com/chronon-db/chronon/internal/tvec"
)

// This file exposes GraphStorage's internal record layout to
// internal/snapshot, in a form that preserves every (T, Seq) entry
// exactly rather than just the user-visible T: the round-trip
// contract depends on the seq counter and entry order, not only on
// values.

// TimeValueEntry is one temporal property write, with its full entry.
type TimeValueEntry struct {
	At  timeindex.Entry
	Val prop.Value
}

// NodeSnapshot is the decoded form of one NodeRecord.
type NodeSnapshot struct {
	External      ExternalID
	NodeType      uint32
	HasType       bool
	Timestamps    []timeindex.Entry
	ConstProps    map[prop.ID]prop.Value
	TemporalProps map[prop.ID][]TimeValueEntry
}

// EdgeLayerSnapshot is the decoded form of one layer's slice of an edge.
type EdgeLayerSnapshot struct {
	Layer         layers.ID
	Additions     []timeindex.Entry
	Deletions     []timeindex.Entry
	ConstProps    map[prop.ID]prop.Value
	TemporalProps map[prop.ID][]TimeValueEntry
}

// EdgeSnapshot is the decoded form of one EdgeRecord.
type EdgeSnapshot struct {
	Src, Dst VID
	Layers   []EdgeLayerSnapshot
}

// DumpNodes returns every node record in VID order, in the shape the
// snapshot codec serializes.
func (g *GraphStorage) DumpNodes() []NodeSnapshot {
	nodes := g.Nodes()
	out := make([]NodeSnapshot, len(nodes))
	for i, n := range nodes {
		nodeType, hasType := n.NodeType()
		temporal := make(map[prop.ID][]TimeValueEntry)
		for _, key := range n.TemporalPropKeys() {
			cell, _ := n.TemporalProp(key)
			temporal[key] = dumpCell(cell)
		}
		out[i] = NodeSnapshot{
			External:      n.External(),
			NodeType:      nodeType,
			HasType:       hasType,
			Timestamps:    n.Timestamps().Iter(),
			ConstProps:    n.ConstProps(),
			TemporalProps: temporal,
		}
	}
	return out
}

// DumpEdges returns every edge record in EID order.
func (g *GraphStorage) DumpEdges() []EdgeSnapshot {
	edges := g.Edges()
	out := make([]EdgeSnapshot, len(edges))
	for i, e := range edges {
		layerIDs := e.Layers()
		layerSnaps := make([]EdgeLayerSnapshot, len(layerIDs))
		for j, l := range layerIDs {
			constProps := make(map[prop.ID]prop.Value)
			for _, k := range e.ConstPropKeys(l) {
				v, _ := e.ConstProp(l, k)
				constProps[k] = v
			}
			temporal := make(map[prop.ID][]TimeValueEntry)
			for _, k := range e.TemporalPropKeysLayer(l) {
				cell, _ := e.TemporalPropLayer(l, k)
				temporal[k] = dumpCell(cell)
			}
			layerSnaps[j] = EdgeLayerSnapshot{
				Layer:         l,
				Additions:     e.LayerAdditions(l).Iter(),
				Deletions:     e.LayerDeletions(l).Iter(),
				ConstProps:    constProps,
				TemporalProps: temporal,
			}
		}
		out[i] = EdgeSnapshot{Src: e.Src(), Dst: e.Dst(), Layers: layerSnaps}
	}
	return out
}

// LayerNames returns every interned layer name, in id order.
func (g *GraphStorage) LayerNames() []string { return g.layerNames.All() }

// PropKeyNames returns every interned property-key name, in id order.
func (g *GraphStorage) PropKeyNames() []string { return g.propKeys.All() }

func dumpCell(cell *tcell.TProp) []TimeValueEntry {
	entries := cell.IterEntries()
	out := make([]TimeValueEntry, len(entries))
	for i, e := range entries {
		out[i] = TimeValueEntry{At: e.At, Val: e.Val}
	}
	return out
}

// LoadSnapshot rebuilds a GraphStorage exactly from decoded snapshot
// sections, restoring seq, interners, and arenas without replaying
// through the ordinary mutation API (which would reassign fresh seq
// values). Used exclusively by internal/snapshot on Load.
func LoadSnapshot(
	variant GraphVariant,
	layerNames []string,
	propKeyNames []string,
	nodes []NodeSnapshot,
	edges []EdgeSnapshot,
	graphProps map[prop.ID]prop.Value,
	seq uint64,
) *GraphStorage {
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
	g.layerNames.LoadAll(layerNames)
	g.propKeys.LoadAll(propKeyNames)

	for k, v := range graphProps {
		g.graphProps[k] = v
	}

	for i, ns := range nodes {
		vid := VID(i)
		rec := newNodeRecord(vid, ns.External)
		if ns.HasType {
			rec.nodeType = ns.NodeType
		}
		for _, e := range ns.Timestamps {
			rec.timestamps.Insert(e)
		}
		for k, v := range ns.ConstProps {
			rec.constProps[k] = v
		}
		for k, writes := range ns.TemporalProps {
			loadCellInto(rec.temporalProps, k, writes)
		}
		g.nodes = append(g.nodes, rec)
		g.byExt[ns.External] = vid
		if first, ok := rec.timestamps.First(); ok {
			g.nodeCreation.Push(first, vid)
		}
	}

	for i, es := range edges {
		eid := EID(i)
		rec := newEdgeRecord(eid, es.Src, es.Dst)
		var earliest timeindex.Entry
		hasEarliest := false
		for _, ls := range es.Layers {
			ld := rec.layer(ls.Layer)
			for _, e := range ls.Additions {
				ld.additions.Insert(e)
				if !hasEarliest || e.Less(earliest) {
					earliest, hasEarliest = e, true
				}
			}
			for _, e := range ls.Deletions {
				ld.deletions.Insert(e)
				if !hasEarliest || e.Less(earliest) {
					earliest, hasEarliest = e, true
				}
			}
			for k, v := range ls.ConstProps {
				ld.constProps[k] = v
			}
			for k, writes := range ls.TemporalProps {
				loadCellInto(ld.temporalProps, k, writes)
			}
		}
		g.edges = append(g.edges, rec)
		g.byKey[edgeKey{Src: es.Src, Dst: es.Dst}] = eid
		if hasEarliest {
			g.edgeCreation.Push(earliest, eid)
		}
	}

	g.seq.restore(seq)
	return g
}

func loadCellInto(dst map[prop.ID]*tcell.TProp, key prop.ID, writes []TimeValueEntry) {
	if len(writes) == 0 {
		return
	}
	sorted := append([]TimeValueEntry(nil), writes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].At.Less(sorted[j].At) })
	cell := tcell.NewTProp(sorted[0].At, sorted[0].Val)
	for _, w := range sorted[1:] {
		cell.Set(w.At, w.Val)
	}
	dst[key] = cell
}
