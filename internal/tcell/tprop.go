package tcell

import (
	"github.com/chronon-db/chronon/internal/prop"
	"github.com/chronon-db/chronon/internal/timeindex"
)

// TProp is the TCell specialisation used for property histories: a
// temporal log of prop.Value, one per (entity, layer, key). It is a
// type alias rather than a distinct type so that TCell's read contract
// (At, LastBefore, Iter, IterWindow) is exactly TProp's contract.
type TProp = TCell[prop.Value]

// NewTProp returns a TProp with a single initial (t, v) write.
func NewTProp(t timeindex.Entry, v prop.Value) *TProp {
	return New[prop.Value](t, v)
}
