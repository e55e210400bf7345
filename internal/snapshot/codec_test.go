package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/storage"
)

func buildTestGraph(t *testing.T) *storage.GraphStorage {
	t.Helper()
	g := storage.New(storage.VariantPersistent)
	a := g.AddNode(storage.IntID(1), 0, 1, true)
	b := g.AddNode(storage.StrID("bob"), 1, 0, false)

	colorKey := g.PropKey("color")
	if err := g.AddNodeConstantProperty(a, colorKey, prop.Str("red")); err != nil {
		t.Fatal(err)
	}
	scoreKey := g.PropKey("score")
	if err := g.AddNodeTemporalProperty(a, scoreKey, 5, prop.I64(10)); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNodeTemporalProperty(a, scoreKey, 9, prop.I64(20)); err != nil {
		t.Fatal(err)
	}

	likes := g.EnsureLayer("likes")
	eid, err := g.AddEdge(a, b, likes, 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddEdge(a, b, g.DefaultLayerID(), 3); err != nil {
		t.Fatal(err)
	}
	if err := g.DeleteEdge(a, b, likes, 10); err != nil {
		t.Fatal(err)
	}
	weightKey := g.PropKey("weight")
	if err := g.AddEdgeConstantProperty(eid, likes, weightKey, prop.F64(1.5)); err != nil {
		t.Fatal(err)
	}
	tagsKey := g.PropKey("tags")
	listVal := prop.List([]prop.Value{prop.Str("x"), prop.Str("y")})
	if err := g.AddEdgeTemporalProperty(eid, likes, tagsKey, 2, listVal); err != nil {
		t.Fatal(err)
	}
	metaKey := g.PropKey("meta")
	mapVal := prop.Map(map[string]prop.Value{"a": prop.Bool(true), "b": prop.U64(7)})
	if err := g.AddGraphProperty(metaKey, mapVal); err != nil {
		t.Fatal(err)
	}

	return g
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := buildTestGraph(t)
	path := filepath.Join(t.TempDir(), "graph.chronon")

	if err := Save(g, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path, storage.VariantPersistent)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Variant() != storage.VariantPersistent {
		t.Fatal("loaded graph has the wrong variant")
	}
	if loaded.Seq() != g.Seq() {
		t.Fatalf("Seq() = %d, want %d", loaded.Seq(), g.Seq())
	}
	if loaded.NodeCount() != g.NodeCount() || loaded.EdgeCount() != g.EdgeCount() {
		t.Fatalf("counts mismatch: nodes %d/%d edges %d/%d",
			loaded.NodeCount(), g.NodeCount(), loaded.EdgeCount(), g.EdgeCount())
	}

	a, ok := loaded.NodeByExternal(storage.IntID(1))
	if !ok {
		t.Fatal("expected node with external id 1 to round-trip")
	}
	rec, err := loaded.Node(a)
	if err != nil {
		t.Fatal(err)
	}

	v, ok := rec.ConstProp(loaded.PropKey("color"))
	if !ok {
		t.Fatal("expected color constant property to round-trip")
	}
	if s, _ := v.AsStr(); s != "red" {
		t.Fatalf("color = %q, want red", s)
	}

	nodeType, hasType := rec.NodeType()
	if !hasType || nodeType != 1 {
		t.Fatalf("NodeType() = %d, %v, want 1, true", nodeType, hasType)
	}

	b, ok := loaded.NodeByExternal(storage.StrID("bob"))
	if !ok {
		t.Fatal("expected string-id node to round-trip")
	}
	eid, ok := loaded.EdgeBetween(a, b)
	if !ok {
		t.Fatal("expected edge a->b to round-trip")
	}
	erec, err := loaded.Edge(eid)
	if err != nil {
		t.Fatal(err)
	}
	likesID, ok := loaded.LayerID("likes")
	if !ok {
		t.Fatal("expected layer 'likes' to round-trip")
	}
	if erec.LayerAdditions(likesID).Len() != 1 {
		t.Fatalf("expected 1 addition on likes, got %d", erec.LayerAdditions(likesID).Len())
	}
	if erec.LayerDeletions(likesID).Len() != 1 {
		t.Fatalf("expected 1 deletion on likes, got %d", erec.LayerDeletions(likesID).Len())
	}

	wv, ok := erec.ConstProp(likesID, loaded.PropKey("weight"))
	if !ok {
		t.Fatal("expected weight constant property to round-trip")
	}
	if f, _ := wv.AsF64(); f != 1.5 {
		t.Fatalf("weight = %v, want 1.5", f)
	}

	cell, ok := erec.TemporalPropLayer(likesID, loaded.PropKey("tags"))
	if !ok {
		t.Fatal("expected tags temporal property to round-trip")
	}
	tv, ok := cell.At(2)
	if !ok {
		t.Fatal("expected a tags write at t=2")
	}
	list, _ := tv.AsList()
	if len(list) != 2 {
		t.Fatalf("tags list length = %d, want 2", len(list))
	}

	gprops := loaded.GraphProperties()
	mv, ok := gprops[loaded.PropKey("meta")]
	if !ok {
		t.Fatal("expected graph-level meta property to round-trip")
	}
	m, _ := mv.AsMap()
	if b, _ := m["a"].AsBool(); !b {
		t.Fatal("expected meta.a = true to round-trip")
	}
}

func TestLoadRejectsVariantMismatch(t *testing.T) {
	g := storage.New(storage.VariantEvent)
	g.AddNode(storage.IntID(1), 0, 0, false)
	path := filepath.Join(t.TempDir(), "graph.chronon")
	if err := Save(g, path); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, storage.VariantPersistent); !errors.Is(err, ErrVariantMismatch) {
		t.Fatalf("expected ErrVariantMismatch, got %v", err)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	g := storage.New(storage.VariantEvent)
	g.AddNode(storage.IntID(1), 0, 0, false)
	path := filepath.Join(t.TempDir(), "graph.chronon")
	if err := Save(g, path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, storage.VariantEvent); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat on corrupted trailer, got %v", err)
	}
}
