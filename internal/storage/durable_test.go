package storage

import (
	"testing"

	"github.com/chronon-db/chronon/internal/layers"
)

func TestDurableConfigValidation(t *testing.T) {
	cfg := DefaultDurableConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled config should always validate: %v", err)
	}

	cfg.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a missing data dir")
	}
	cfg.DataDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected a valid config: %v", err)
	}
}

func TestOpenDurableLogDisabledIsNoop(t *testing.T) {
	log, err := OpenDurableLog(DefaultDurableConfig())
	if err != nil {
		t.Fatal(err)
	}
	if log != nil {
		t.Fatal("a disabled config must yield a nil log")
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close on a nil log must be a no-op: %v", err)
	}
	if err := log.Append(MutationRecord{}); err != nil {
		t.Fatalf("Append on a nil log must be a no-op: %v", err)
	}
}

func TestDurableLogAppendAndReplay(t *testing.T) {
	cfg := DefaultDurableConfig()
	cfg.Enabled = true
	cfg.DataDir = t.TempDir()

	dl, err := OpenDurableLog(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer dl.Close()

	if err := dl.Append(MutationRecord{Kind: MutAddNode, ExternalInt: 1, T: 0}); err != nil {
		t.Fatal(err)
	}
	if err := dl.Append(MutationRecord{Kind: MutAddNode, ExternalInt: 2, T: 0}); err != nil {
		t.Fatal(err)
	}
	if err := dl.Append(MutationRecord{Kind: MutAddEdge, Src: 0, Dst: 1, Layer: uint32(layers.ID(0)), T: 1}); err != nil {
		t.Fatal(err)
	}

	g := New(VariantEvent)
	if err := dl.Replay(g); err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 2 {
		t.Fatalf("NodeCount = %d, want 2", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}
