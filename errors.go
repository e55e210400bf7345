package chronon

import (
	"github.com/chronon-db/chronon/internal/snapshot"
	"github.com/chronon-db/chronon/internal/storage"
)

// Error taxonomy at the public boundary. These are the same sentinels
// internal/storage and internal/snapshot define,
// re-exported so callers outside this module can match them with
// errors.Is without reaching into an internal package.
var (
	ErrUnknownNode              = storage.ErrUnknownNode
	ErrUnknownEdge              = storage.ErrUnknownEdge
	ErrUnknownLayer             = storage.ErrUnknownLayer
	ErrPropertyTypeMismatch     = storage.ErrPropertyTypeMismatch
	ErrConstantPropertyConflict = storage.ErrConstantPropertyConflict
	ErrDeletionNotSupported     = storage.ErrDeletionNotSupported

	ErrSnapshotIO      = snapshot.ErrIO
	ErrSnapshotFormat  = snapshot.ErrFormat
	ErrVariantMismatch = snapshot.ErrVariantMismatch
)
