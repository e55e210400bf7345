package chronon

import (
	"github.com/chronon-db/chronon/internal/semantics"
	"github.com/chronon-db/chronon/internal/storage"
)

// NodeView is a reference to a single node, restricted to the window
// and layer selection of the View it was obtained from. Node views
// never pin a time or layer of their own; that distinction exists only
// for edge references.
type NodeView struct {
	view View
	vid  storage.VID
}

// ID returns the node's stable external identity.
func (n NodeView) ID() NodeID {
	rec := n.record()
	return rec.External()
}

// NodeType returns the node's type id, if one was set.
func (n NodeView) NodeType() (uint32, bool) {
	return n.record().NodeType()
}

func (n NodeView) record() *storage.NodeRecord {
	rec, err := n.view.store.Node(n.vid)
	if err != nil {
		// The view was constructed from a live lookup; a VID it holds
		// is always valid for the lifetime of the backing store.
		panic(err)
	}
	return rec
}

// EarliestTime returns the earliest timestamp at which this node was
// touched within the view's window.
func (n NodeView) EarliestTime() (int64, bool) {
	ts := n.record().Timestamps().Range(n.view.win.Lo, n.view.win.Hi)
	return ts.FirstT()
}

// LatestTime returns the node's latest observable time: +∞ for an
// unrestricted view, or the window's last instant otherwise. Nodes
// never expire.
func (n NodeView) LatestTime() (int64, bool) {
	return semantics.NodeLatestTime(n.record(), n.view.win)
}

// History returns every distinct time at which this node was touched
// within the view's window, strictly increasing. A node touched more
// than once at the same instant (AddNode plus an incident AddEdge, say)
// still reports that instant once.
func (n NodeView) History() []int64 {
	ts := n.record().Timestamps().Range(n.view.win.Lo, n.view.win.Hi).IterT()
	out := make([]int64, 0, len(ts))
	for i, t := range ts {
		if i > 0 && t == ts[i-1] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Properties returns the node's constant properties, merged with the
// latest temporal property value in force at the end of the view's
// window, keyed by property name. A constant property takes precedence
// over a temporal property of the same name.
func (n NodeView) Properties() Properties {
	rec := n.record()
	out := make(Properties)
	for key, v := range rec.ConstProps() {
		name, ok := n.view.store.PropKeyName(key)
		if ok {
			out[name] = v
		}
	}
	hi := n.view.win.Hi
	for _, key := range rec.TemporalPropKeys() {
		if _, isConst := rec.ConstProp(key); isConst {
			continue
		}
		cell, ok := rec.TemporalProp(key)
		if !ok {
			continue
		}
		v, ok := cell.LastBefore(hi)
		if !ok {
			continue
		}
		name, ok := n.view.store.PropKeyName(key)
		if ok {
			out[name] = v
		}
	}
	return out
}

// Property returns a single property by name, constant properties
// taking precedence over the temporal value in force at the window's
// end, matching Properties.
func (n NodeView) Property(name string) (Value, bool) {
	key, ok := n.view.store.PropKeyID(name)
	if !ok {
		return Value{}, false
	}
	rec := n.record()
	if v, ok := rec.ConstProp(key); ok {
		return v, true
	}
	cell, ok := rec.TemporalProp(key)
	if !ok {
		return Value{}, false
	}
	return cell.LastBefore(n.view.win.Hi)
}
