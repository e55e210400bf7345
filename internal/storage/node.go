package storage

import (
	"sync"

	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/tcell"
	"github.com/chronon-db/chronon/internal/timeindex"
)

// NoNodeType marks a node with no assigned type.
const NoNodeType = ^uint32(0)

// NodeRecord is the per-node record: identity,
// mutation timestamps, constant and temporal properties. Every mutating
// method appends to the record's history; nothing is ever structurally
// removed.
//
// mu guards this single record only, keeping the locking fine-grained:
// one writer and many readers per entity, never a store-wide stall.
type NodeRecord struct {
	mu sync.RWMutex

	vid      VID
	external ExternalID
	nodeType uint32

	timestamps timeindex.TimeIndex

	constProps    map[prop.ID]prop.Value
	temporalProps map[prop.ID]*tcell.TProp
}

// newNodeRecord creates an empty node record for vid/external.
func newNodeRecord(vid VID, external ExternalID) *NodeRecord {
	return &NodeRecord{
		vid:           vid,
		external:      external,
		nodeType:      NoNodeType,
		constProps:    make(map[prop.ID]prop.Value),
		temporalProps: make(map[prop.ID]*tcell.TProp),
	}
}

// VID returns the node's dense internal id.
func (n *NodeRecord) VID() VID { return n.vid }

// External returns the node's caller-facing identity.
func (n *NodeRecord) External() ExternalID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.external
}

// NodeType returns the node's type id, or (0, false) if none is set.
func (n *NodeRecord) NodeType() (uint32, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.nodeType == NoNodeType {
		return 0, false
	}
	return n.nodeType, true
}

// setNodeType assigns a node type the first time it is seen; later
// writes are no-ops (a node's type does not change over its history in
// this model).
func (n *NodeRecord) setNodeType(t uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.nodeType == NoNodeType {
		n.nodeType = t
	}
}

// touch records that the node was affected by an event at entry e
// (creation, property write, or incident edge mutation).
func (n *NodeRecord) touch(e timeindex.Entry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.timestamps.Insert(e)
}

// Timestamps returns the node's full mutation history.
func (n *NodeRecord) Timestamps() timeindex.TimeIndex {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.timestamps
}

// setConstProp sets a constant property, returning ErrConstantPropertyConflict
// if a different value was already recorded.
func (n *NodeRecord) setConstProp(key prop.ID, v prop.Value) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if existing, ok := n.constProps[key]; ok {
		if !existing.Equal(v) {
			return ErrConstantPropertyConflict
		}
		return nil
	}
	n.constProps[key] = v
	return nil
}

// ConstProp returns a constant property value.
func (n *NodeRecord) ConstProp(key prop.ID) (prop.Value, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.constProps[key]
	return v, ok
}

// ConstProps returns a snapshot of all constant properties.
func (n *NodeRecord) ConstProps() map[prop.ID]prop.Value {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[prop.ID]prop.Value, len(n.constProps))
	for k, v := range n.constProps {
		out[k] = v
	}
	return out
}

// setTemporalProp appends a temporal property write at entry e.
func (n *NodeRecord) setTemporalProp(key prop.ID, e timeindex.Entry, v prop.Value) {
	n.mu.Lock()
	defer n.mu.Unlock()
	cell, ok := n.temporalProps[key]
	if !ok {
		cell = tcell.NewTProp(e, v)
		n.temporalProps[key] = cell
		return
	}
	cell.Set(e, v)
}

// TemporalProp returns the temporal property log for key, if any.
func (n *NodeRecord) TemporalProp(key prop.ID) (*tcell.TProp, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	cell, ok := n.temporalProps[key]
	return cell, ok
}

// TemporalPropKeys returns the set of temporal property keys this node
// has ever written.
func (n *NodeRecord) TemporalPropKeys() []prop.ID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]prop.ID, 0, len(n.temporalProps))
	for k := range n.temporalProps {
		out = append(out, k)
	}
	return out
}
