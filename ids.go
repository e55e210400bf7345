package chronon

import "github.com/chronon-db/chronon/internal/storage"

// NodeID is a node's stable external identity: either an integer or a
// string.
type NodeID = storage.ExternalID

// IntID builds an integer NodeID.
func IntID(i int64) NodeID { return storage.IntID(i) }

// StrID builds a string NodeID.
func StrID(s string) NodeID { return storage.StrID(s) }
