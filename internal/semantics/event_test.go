package semantics

import (
	"testing"

	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/storage"
)

func buildEventEdge(t *testing.T) (*storage.GraphStorage, storage.VID, storage.VID) {
	t.Helper()
	g := storage.New(storage.VariantEvent)
	src := g.AddNode(storage.IntID(1), 0, 0, false)
	dst := g.AddNode(storage.IntID(2), 0, 0, false)
	return g, src, dst
}

func TestEventIncludeEdgeWindowOnlyAtAdditions(t *testing.T) {
	g, src, dst := buildEventEdge(t)
	g.AddEdge(src, dst, g.DefaultLayerID(), 5)
	edge := edgeOf(t, g, src, dst)

	var sem EventSemantics
	if sem.IncludeEdgeWindow(edge, Window{0, 5}, layers.All()) {
		t.Fatal("event edge must not be included before its addition")
	}
	if !sem.IncludeEdgeWindow(edge, Window{5, 6}, layers.All()) {
		t.Fatal("event edge must be included in a window containing its addition")
	}
	if sem.IncludeEdgeWindow(edge, Window{6, 7}, layers.All()) {
		t.Fatal("event edge must not be included after its addition")
	}
}

func TestEventDeletionRejected(t *testing.T) {
	g, src, dst := buildEventEdge(t)
	g.AddEdge(src, dst, g.DefaultLayerID(), 0)
	if err := g.DeleteEdge(src, dst, g.DefaultLayerID(), 1); err == nil {
		t.Fatal("expected deletion to be rejected on an event graph")
	}
}

func TestEventExplodedOnePerAddition(t *testing.T) {
	g, src, dst := buildEventEdge(t)
	g.AddEdge(src, dst, g.DefaultLayerID(), 1)
	g.AddEdge(src, dst, g.DefaultLayerID(), 3)
	edge := edgeOf(t, g, src, dst)

	var sem EventSemantics
	refs := sem.EdgeExploded(edge, layers.All())
	if len(refs) != 2 {
		t.Fatalf("expected 2 exploded refs, got %d", len(refs))
	}
	if refs[0].T != 1 || refs[1].T != 3 {
		t.Fatalf("refs not time-ordered: %+v", refs)
	}
	for _, r := range refs {
		if r.Synthetic {
			t.Fatalf("event semantics must never produce synthetic refs: %+v", r)
		}
	}
}

func TestEventIsDeletedAlwaysFalse(t *testing.T) {
	g, src, dst := buildEventEdge(t)
	g.AddEdge(src, dst, g.DefaultLayerID(), 0)
	edge := edgeOf(t, g, src, dst)

	var sem EventSemantics
	if sem.IsDeleted(edge, 0, layers.All()) {
		t.Fatal("event semantics never reports deletion")
	}
	if !sem.IsValid(edge, 0, layers.All()) {
		t.Fatal("edge should be valid at its addition instant")
	}
}

func TestEventEarliestLatestTime(t *testing.T) {
	g, src, dst := buildEventEdge(t)
	g.AddEdge(src, dst, g.DefaultLayerID(), 4)
	g.AddEdge(src, dst, g.DefaultLayerID(), 9)
	edge := edgeOf(t, g, src, dst)

	var sem EventSemantics
	earliest, ok := sem.EdgeEarliestTime(edge, layers.All())
	if !ok || earliest != 4 {
		t.Fatalf("EdgeEarliestTime = %d, %v, want 4, true", earliest, ok)
	}
	latest, ok := sem.EdgeLatestTime(edge, layers.All())
	if !ok || latest != 9 {
		t.Fatalf("EdgeLatestTime = %d, %v, want 9, true", latest, ok)
	}
}
