package semantics

import (
	"testing"

	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/storage"
)

// buildEdge wires up a (src, dst) edge on a fresh persistent graph and
// returns the graph plus its dense node ids, so tests can call AddEdge/
// DeleteEdge directly and then fetch the resulting *storage.EdgeRecord.
func buildEdge(t *testing.T) (*storage.GraphStorage, storage.VID, storage.VID) {
	t.Helper()
	g := storage.New(storage.VariantPersistent)
	src := g.AddNode(storage.IntID(1), 0, 0, false)
	dst := g.AddNode(storage.IntID(2), 0, 0, false)
	return g, src, dst
}

func edgeOf(t *testing.T, g *storage.GraphStorage, src, dst storage.VID) *storage.EdgeRecord {
	t.Helper()
	eid, ok := g.EdgeBetween(src, dst)
	if !ok {
		t.Fatalf("no edge between %d and %d", src, dst)
	}
	rec, err := g.Edge(eid)
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestDeletionBoundsLatestTime(t *testing.T) {
	g, src, dst := buildEdge(t)
	g.AddEdge(src, dst, g.DefaultLayerID(), 0)
	g.DeleteEdge(src, dst, g.DefaultLayerID(), 10)
	edge := edgeOf(t, g, src, dst)

	var sem PersistentSemantics
	latest, ok := sem.EdgeLatestTime(edge, layers.All())
	if !ok || latest != 10 {
		t.Fatalf("EdgeLatestTime = %d, %v, want 10, true", latest, ok)
	}

	if sem.IncludeEdgeWindow(edge, Window{11, 12}, layers.All()) {
		t.Fatal("edge must not be included in window(11,12)")
	}
	if !sem.IncludeEdgeWindow(edge, Window{1, 2}, layers.All()) {
		t.Fatal("edge must be included in window(1,2)")
	}
}

func TestPreExistingEdgeAliveSinceMinTime(t *testing.T) {
	g, src, dst := buildEdge(t)
	g.DeleteEdge(src, dst, g.DefaultLayerID(), 10)
	edge := edgeOf(t, g, src, dst)

	var sem PersistentSemantics
	earliest, ok := sem.EdgeEarliestTime(edge, layers.All())
	if !ok || earliest != MinT {
		t.Fatalf("EdgeEarliestTime = %d, %v, want MinT, true", earliest, ok)
	}
	latest, ok := sem.EdgeLatestTime(edge, layers.All())
	if !ok || latest != 10 {
		t.Fatalf("EdgeLatestTime = %d, %v, want 10, true", latest, ok)
	}
	if !sem.IncludeEdgeWindow(edge, Window{0, 5}, layers.All()) {
		t.Fatal("expected has_edge true in window(0,5)")
	}
	if sem.IncludeEdgeWindow(edge, Window{11, 12}, layers.All()) {
		t.Fatal("expected has_edge false in window(11,12)")
	}
}

func TestDeletionBeforeAdditionSameTime(t *testing.T) {
	g, src, dst := buildEdge(t)
	g.DeleteEdge(src, dst, g.DefaultLayerID(), 1)
	g.AddEdge(src, dst, g.DefaultLayerID(), 1)
	edge := edgeOf(t, g, src, dst)

	var sem PersistentSemantics
	if !sem.IncludeEdgeWindow(edge, Window{0, 1}, layers.All()) {
		t.Fatal("expected has_edge true in window(0,1)")
	}
	if !sem.IncludeEdgeWindow(edge, Window{1, 2}, layers.All()) {
		t.Fatal("expected has_edge true in window(1,2)")
	}
}

func TestAdditionBeforeDeletionSameTime(t *testing.T) {
	g, src, dst := buildEdge(t)
	g.AddEdge(src, dst, g.DefaultLayerID(), 2)
	g.DeleteEdge(src, dst, g.DefaultLayerID(), 2)
	edge := edgeOf(t, g, src, dst)

	var sem PersistentSemantics
	if !sem.IncludeEdgeWindow(edge, Window{2, 3}, layers.All()) {
		t.Fatal("expected has_edge true in window(2,3)")
	}
	if sem.IncludeEdgeWindow(edge, Window{0, 2}, layers.All()) {
		t.Fatal("expected has_edge false in window(0,2)")
	}
	if sem.IncludeEdgeWindow(edge, Window{3, 4}, layers.All()) {
		t.Fatal("expected has_edge false in window(3,4)")
	}
}

func TestPropertyInForceAtWindowStart(t *testing.T) {
	g, src, dst := buildEdge(t)
	eid, err := g.AddEdge(src, dst, g.DefaultLayerID(), 0)
	if err != nil {
		t.Fatal(err)
	}
	key := g.PropKey("prop")
	if err := g.AddEdgeTemporalProperty(eid, g.DefaultLayerID(), key, 0, prop.Str("a")); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdgeTemporalProperty(eid, g.DefaultLayerID(), key, 11, prop.Str("b")); err != nil {
		t.Fatal(err)
	}
	if err := g.DeleteEdge(src, dst, g.DefaultLayerID(), 20); err != nil {
		t.Fatal(err)
	}
	edge := edgeOf(t, g, src, dst)

	var sem PersistentSemantics
	tvs := sem.EdgeTemporalPropWindow(edge, Window{10, 12}, layers.All(), key)
	if len(tvs) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(tvs), tvs)
	}
	if tvs[0].T != 10 {
		t.Fatalf("expected synthetic tick at t=10, got %+v", tvs[0])
	}
	if s, _ := tvs[0].Val.AsStr(); s != "a" {
		t.Fatalf("synthetic tick value = %q, want %q", s, "a")
	}
	if tvs[1].T != 11 {
		t.Fatalf("expected write at t=11, got %+v", tvs[1])
	}
	if s, _ := tvs[1].Val.AsStr(); s != "b" {
		t.Fatalf("write value = %q, want %q", s, "b")
	}
}

func TestMultiLayerExplode(t *testing.T) {
	g, src, dst := buildEdge(t)
	l1 := g.EnsureLayer("1")
	l2 := g.EnsureLayer("2")
	l3 := g.EnsureLayer("3")
	g.DeleteEdge(src, dst, l1, 1)
	g.DeleteEdge(src, dst, l2, 2)
	g.DeleteEdge(src, dst, l3, 3)
	edge := edgeOf(t, g, src, dst)

	var sem PersistentSemantics
	refs := sem.EdgeExploded(edge, layers.All())
	if len(refs) != 3 {
		t.Fatalf("EdgeExploded len = %d, want 3: %+v", len(refs), refs)
	}
	for _, r := range refs {
		if !r.Synthetic {
			t.Fatalf("expected all refs synthetic (no additions exist), got %+v", r)
		}
	}

	windowRefs := sem.EdgeExplodedWindow(edge, Window{2, 3}, layers.All())
	if len(windowRefs) != 1 {
		t.Fatalf("EdgeExplodedWindow(2,3) len = %d, want 1: %+v", len(windowRefs), windowRefs)
	}
}

func TestPersistentDualityXOR(t *testing.T) {
	g, src, dst := buildEdge(t)
	g.AddEdge(src, dst, g.DefaultLayerID(), 5)
	edge := edgeOf(t, g, src, dst)

	var sem PersistentSemantics
	valid := sem.IsValid(edge, 5, layers.All())
	deleted := sem.IsDeleted(edge, 5, layers.All())
	if valid == deleted {
		t.Fatalf("IsValid/IsDeleted must be exclusive: valid=%v deleted=%v", valid, deleted)
	}
}
