package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/chronon-db/chronon/internal/layers"
)

// MutationKind tags a MutationRecord so a replaying DurableLog knows
// which GraphStorage method to call.
type MutationKind uint8

const (
	MutAddNode MutationKind = iota
	MutAddEdge
	MutDeleteEdge
)

// MutationRecord is one write-ahead entry in the durable mutation log.
// Only the fields relevant to Kind are populated; a flat record beats a
// sum-type encoding here since the overhead of an unused field is
// negligible next to badger's own per-key framing.
//
// The log journals the structural mutations that define which nodes
// and edges exist and when (AddNode, AddEdge, DeleteEdge): exactly
// what Replay needs to rebuild the arenas' identities and timestamps.
// Property writes are not journaled here; a property value's own
// history is already fully captured by the next snapshot (internal/snapshot),
// so a deployment that needs durable properties between snapshots
// should snapshot more frequently rather than grow this log into a
// second property store.
type MutationRecord struct {
	Kind MutationKind

	ExternalIsStr bool
	ExternalInt   int64
	ExternalStr   string

	Src, Dst VID
	Layer    uint32

	NodeType uint32
	HasType  bool

	T int64
}

// DurableLog is an append-only, badger-backed record of every mutation
// applied to a GraphStorage, used to recover in-memory state after a
// restart without requiring a snapshot on every write. It complements,
// rather than replaces, the binary snapshot codec (internal/snapshot):
// a snapshot is the compact checkpoint, the log is what lets the
// storage core catch up from the last checkpoint to "now".
type DurableLog struct {
	db  *badger.DB
	seq atomic.Uint64
}

// OpenDurableLog opens (creating if needed) the badger database backing
// a DurableLog. Call Close when the graph is shut down.
func OpenDurableLog(cfg DurableConfig) (*DurableLog, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(cfg.DataDir).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("chronon: opening durable log: %w", err)
	}
	d := &DurableLog{db: db}
	if err := d.initSeq(); err != nil {
		db.Close()
		return nil, fmt.Errorf("chronon: scanning durable log: %w", err)
	}
	return d, nil
}

// initSeq advances the append counter past the highest key already in
// the log, so records written before a restart are never overwritten by
// appends after it.
func (d *DurableLog) initSeq() error {
	return d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := make([]byte, 9)
		seek[0] = mutationKeyPrefix
		for i := 1; i < len(seek); i++ {
			seek[i] = 0xFF
		}
		it.Seek(seek)
		if it.ValidForPrefix([]byte{mutationKeyPrefix}) {
			key := it.Item().Key()
			d.seq.Store(binary.BigEndian.Uint64(key[1:]) + 1)
		}
		return nil
	})
}

// Close releases the underlying badger handle.
func (d *DurableLog) Close() error {
	if d == nil {
		return nil
	}
	return d.db.Close()
}

// Append writes one mutation record, keyed by a monotonically
// increasing sequence number so Replay can iterate them in order.
func (d *DurableLog) Append(rec MutationRecord) error {
	if d == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("chronon: encoding mutation record: %w", err)
	}
	key := mutationKey(d.seq.Add(1) - 1)
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Replay applies every recorded mutation, in order, to g. It is the
// durable-log counterpart to loading a snapshot. It always starts from
// the first record in the log; there is no way to replay only the
// records appended after a given point.
func (d *DurableLog) Replay(g *GraphStorage) error {
	if d == nil {
		return nil
	}
	return d.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte{mutationKeyPrefix}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var rec MutationRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("chronon: decoding mutation record: %w", err)
			}
			if err := applyMutation(g, rec); err != nil {
				log.Printf("chronon: durable log replay: skipping bad record: %v", err)
				continue
			}
		}
		return nil
	})
}

func applyMutation(g *GraphStorage, rec MutationRecord) error {
	switch rec.Kind {
	case MutAddNode:
		ext := externalFromRecord(rec)
		g.AddNode(ext, rec.T, rec.NodeType, rec.HasType)
		return nil
	case MutAddEdge:
		_, err := g.AddEdge(rec.Src, rec.Dst, layers.ID(rec.Layer), rec.T)
		return err
	case MutDeleteEdge:
		return g.DeleteEdge(rec.Src, rec.Dst, layers.ID(rec.Layer), rec.T)
	default:
		return fmt.Errorf("chronon: unsupported mutation kind %d during replay", rec.Kind)
	}
}

func externalFromRecord(rec MutationRecord) ExternalID {
	if rec.ExternalIsStr {
		return StrID(rec.ExternalStr)
	}
	return IntID(rec.ExternalInt)
}

const mutationKeyPrefix = byte(0xD0)

func mutationKey(seq uint64) []byte {
	key := make([]byte, 9)
	key[0] = mutationKeyPrefix
	binary.BigEndian.PutUint64(key[1:], seq)
	return key
}
