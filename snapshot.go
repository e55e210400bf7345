package chronon

import (
	"github.com/chronon-db/chronon/internal/snapshot"
	"github.com/chronon-db/chronon/internal/storage"
)

// SaveSnapshot writes g's full state to a single snapshot file at
// path, atomically at the filesystem interface.
func (g *Graph) SaveSnapshot(path string) error { return snapshot.Save(g.store, path) }

// SaveSnapshot writes g's full state to a single snapshot file at
// path.
func (g *PersistentGraph) SaveSnapshot(path string) error { return snapshot.Save(g.store, path) }

// LoadGraph reads a snapshot from path and reconstructs an event graph,
// failing with ErrVariantMismatch if the file was saved from a
// persistent graph.
func LoadGraph(path string) (*Graph, error) {
	store, err := snapshot.Load(path, storage.VariantEvent)
	if err != nil {
		return nil, err
	}
	return &Graph{store: store, View: newRootView(store, storage.VariantEvent)}, nil
}

// LoadPersistentGraph reads a snapshot from path and reconstructs a
// persistent graph, failing with ErrVariantMismatch if the file was
// saved from an event graph.
func LoadPersistentGraph(path string) (*PersistentGraph, error) {
	store, err := snapshot.Load(path, storage.VariantPersistent)
	if err != nil {
		return nil, err
	}
	return &PersistentGraph{store: store, View: newRootView(store, storage.VariantPersistent)}, nil
}
