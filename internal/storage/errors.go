package storage

import "errors"

// Sentinel errors for the mutation and lookup surface. Call sites wrap
// these with fmt.Errorf("...: %w", err) to attach path/id context;
// callers match with errors.Is.
var (
	ErrUnknownNode              = errors.New("chronon: unknown node")
	ErrUnknownEdge              = errors.New("chronon: unknown edge")
	ErrUnknownLayer             = errors.New("chronon: unknown layer")
	ErrPropertyTypeMismatch     = errors.New("chronon: property type mismatch")
	ErrConstantPropertyConflict = errors.New("chronon: constant property conflict")
	ErrVariantMismatch          = errors.New("chronon: variant mismatch")
	ErrDeletionNotSupported     = errors.New("chronon: delete_edge is not supported on event graphs")
)
