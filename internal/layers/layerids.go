// Package layers implements LayerIds, a variant describing
// a layer selection used by every time-semantics query.
package layers

import "sort"

// Kind discriminates the LayerIds variant.
type Kind uint8

const (
	KindNone Kind = iota
	KindAll
	KindOne
	KindMultiple
)

// ID is a dense layer id; layer 0 is the default layer.
type ID uint32

// LayerIds selects a subset of a graph's layers. The zero value is
// KindNone. Multiple is never empty and never a singleton; both
// normalize to None/One respectively.
type LayerIds struct {
	kind Kind
	one  ID
	many []ID // sorted, strictly increasing, len >= 2
}

// None selects no layers.
func None() LayerIds { return LayerIds{kind: KindNone} }

// All selects every layer the graph has.
func All() LayerIds { return LayerIds{kind: KindAll} }

// One selects a single layer.
func One(id ID) LayerIds { return LayerIds{kind: KindOne, one: id} }

// Multiple selects the given set of layers, normalizing degenerate
// cases per the invariant above.
func Multiple(ids []ID) LayerIds {
	set := make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	switch len(set) {
	case 0:
		return None()
	case 1:
		for id := range set {
			return One(id)
		}
	}
	sorted := make([]ID, 0, len(set))
	for id := range set {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return LayerIds{kind: KindMultiple, many: sorted}
}

// Kind reports which variant this selection holds.
func (l LayerIds) Kind() Kind { return l.kind }

// IsNone reports whether this selection matches no layers.
func (l LayerIds) IsNone() bool { return l.kind == KindNone }

// IsAll reports whether this selection matches every layer.
func (l LayerIds) IsAll() bool { return l.kind == KindAll }

// OneID returns the single selected id when Kind() == KindOne.
func (l LayerIds) OneID() (ID, bool) {
	if l.kind == KindOne {
		return l.one, true
	}
	return 0, false
}

// IDs returns the explicit ids selected; for KindAll and KindNone the
// caller must consult Kind() separately, since the full set of layer
// ids is not known to LayerIds itself (it is a property of the owning
// registry).
func (l LayerIds) IDs() []ID {
	switch l.kind {
	case KindOne:
		return []ID{l.one}
	case KindMultiple:
		return append([]ID(nil), l.many...)
	default:
		return nil
	}
}

// Contains reports whether id is part of this selection. allIDs is
// consulted only for KindAll, since that variant has no explicit member
// list; pass the full set of layer ids known to the caller's registry.
func (l LayerIds) Contains(id ID, allIDs func(ID) bool) bool {
	switch l.kind {
	case KindNone:
		return false
	case KindAll:
		if allIDs == nil {
			return true
		}
		return allIDs(id)
	case KindOne:
		return id == l.one
	case KindMultiple:
		i := sort.Search(len(l.many), func(i int) bool { return l.many[i] >= id })
		return i < len(l.many) && l.many[i] == id
	default:
		return false
	}
}

// Intersect computes the canonical intersection of l and other. The
// result always normalizes per the Multiple invariant.
func (l LayerIds) Intersect(other LayerIds) LayerIds {
	if l.kind == KindNone || other.kind == KindNone {
		return None()
	}
	if l.kind == KindAll {
		return other
	}
	if other.kind == KindAll {
		return l
	}

	lids := l.IDs()
	oset := make(map[ID]struct{}, len(other.IDs()))
	for _, id := range other.IDs() {
		oset[id] = struct{}{}
	}
	var out []ID
	for _, id := range lids {
		if _, ok := oset[id]; ok {
			out = append(out, id)
		}
	}
	return Multiple(out)
}
