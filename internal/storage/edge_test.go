package storage

import (
	"testing"

	"github.com/chronon-db/chronon/internal/layers"
	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/timeindex"
)

func entryAt(t int64, seq uint64) timeindex.Entry { return timeindex.Entry{T: t, Seq: seq} }

func TestEdgeAdditionsUnionAcrossLayers(t *testing.T) {
	e := newEdgeRecord(0, 1, 2)
	e.addAddition(layers.ID(0), entryAt(1, 0))
	e.addAddition(layers.ID(1), entryAt(2, 1))
	e.addAddition(layers.ID(2), entryAt(3, 2))

	got := e.Additions(layers.Multiple([]layers.ID{0, 2})).IterT()
	want := []int64{1, 3}
	if len(got) != len(want) {
		t.Fatalf("Additions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Additions = %v, want %v", got, want)
		}
	}
}

func TestEdgeAdditionsAllLayers(t *testing.T) {
	e := newEdgeRecord(0, 1, 2)
	e.addAddition(layers.ID(0), entryAt(5, 0))
	e.addAddition(layers.ID(4), entryAt(9, 1))

	got := e.Additions(layers.All()).IterT()
	if len(got) != 2 || got[0] != 5 || got[1] != 9 {
		t.Fatalf("Additions(All) = %v", got)
	}
}

func TestEdgeActiveRespectsSelection(t *testing.T) {
	e := newEdgeRecord(0, 1, 2)
	e.addAddition(layers.ID(0), entryAt(10, 0))
	e.addAddition(layers.ID(1), entryAt(20, 1))

	if e.Active(layers.One(1), 0, 15) {
		t.Fatal("layer 1 has no addition before t=15")
	}
	if !e.Active(layers.One(1), 15, 25) {
		t.Fatal("layer 1 has an addition in [15,25)")
	}
	if !e.Active(layers.All(), 0, 15) {
		t.Fatal("layer 0 has an addition in [0,15) and All selects it")
	}
}

func TestEdgeNoneSelectionIsEmpty(t *testing.T) {
	e := newEdgeRecord(0, 1, 2)
	e.addAddition(layers.ID(0), entryAt(1, 0))
	if !e.Additions(layers.None()).IsEmpty() {
		t.Fatal("None() selection must yield no additions")
	}
	if e.Active(layers.None(), 0, 100) {
		t.Fatal("None() selection must never be active")
	}
}

func TestEdgeUpdatesIterOrderedByLayer(t *testing.T) {
	e := newEdgeRecord(0, 1, 2)
	e.addAddition(layers.ID(3), entryAt(1, 0))
	e.addAddition(layers.ID(1), entryAt(2, 1))
	e.addDeletion(layers.ID(1), entryAt(3, 2))

	ups := e.UpdatesIter(layers.All())
	if len(ups) != 2 {
		t.Fatalf("UpdatesIter len = %d, want 2", len(ups))
	}
	if ups[0].Layer != 1 || ups[1].Layer != 3 {
		t.Fatalf("UpdatesIter not ordered by layer: %+v", ups)
	}
	if ups[0].Deletions.Len() != 1 {
		t.Fatalf("layer 1 should have one deletion")
	}
}

func TestEdgeConstPropConflict(t *testing.T) {
	e := newEdgeRecord(0, 1, 2)
	key := prop.ID(7)
	if err := e.setConstProp(layers.ID(0), key, prop.I64(1)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := e.setConstProp(layers.ID(0), key, prop.I64(1)); err != nil {
		t.Fatalf("idempotent rewrite: %v", err)
	}
	if err := e.setConstProp(layers.ID(0), key, prop.I64(2)); err == nil {
		t.Fatal("expected conflict error on differing value")
	}
}

func TestEdgeTemporalPropPerLayer(t *testing.T) {
	e := newEdgeRecord(0, 1, 2)
	key := prop.ID(1)
	e.setTemporalProp(layers.ID(0), key, entryAt(1, 0), prop.I64(10))
	e.setTemporalProp(layers.ID(0), key, entryAt(2, 1), prop.I64(20))
	e.setTemporalProp(layers.ID(1), key, entryAt(5, 2), prop.I64(99))

	if !e.HasTemporalProp(layers.One(0), key) {
		t.Fatal("layer 0 should have the prop")
	}
	if e.HasTemporalProp(layers.One(2), key) {
		t.Fatal("layer 2 never wrote this key")
	}

	cell, ok := e.TemporalPropLayer(layers.ID(0), key)
	if !ok {
		t.Fatal("expected layer 0 temporal prop")
	}
	v, ok := cell.At(2)
	if !ok {
		t.Fatal("expected a value at t=2")
	}
	if iv, _ := v.AsI64(); iv != 20 {
		t.Fatalf("At(2) = %v, want 20", v)
	}
}

func TestEdgeLastDeletionBefore(t *testing.T) {
	e := newEdgeRecord(0, 1, 2)
	e.addDeletion(layers.ID(0), entryAt(5, 0))
	e.addDeletion(layers.ID(1), entryAt(8, 1))
	e.addDeletion(layers.ID(0), entryAt(12, 2))

	last, ok := e.LastDeletionBefore(layers.All(), 10)
	if !ok || last.T != 8 {
		t.Fatalf("LastDeletionBefore(10) = %+v, ok=%v, want t=8", last, ok)
	}

	last, ok = e.LastDeletionBefore(layers.All(), 13)
	if !ok || last.T != 12 {
		t.Fatalf("LastDeletionBefore(13) = %+v, ok=%v, want t=12", last, ok)
	}

	_, ok = e.LastDeletionBefore(layers.All(), 5)
	if ok {
		t.Fatal("no deletion strictly before t=5")
	}
}
