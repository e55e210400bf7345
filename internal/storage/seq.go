package storage

import (
	"sync/atomic"

	"github.com/chronon-db/chronon/internal/timeindex"
)

// seqCounter is the per-graph monotonically increasing counter used to
// disambiguate events at the same t. A single atomic counter totally
// orders writes across threads without a dedicated mutex.
type seqCounter struct {
	n atomic.Uint64
}

// next returns the next (t, seq) entry for time t.
func (c *seqCounter) next(t int64) timeindex.Entry {
	return timeindex.Entry{T: t, Seq: c.n.Add(1) - 1}
}

// current reports the counter's current value, for snapshot save.
func (c *seqCounter) current() uint64 {
	return c.n.Load()
}

// restore resets the counter to a saved value, for snapshot load.
func (c *seqCounter) restore(v uint64) {
	c.n.Store(v)
}
