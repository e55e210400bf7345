package prop

import "sync"

// ID is a dense integer id resolved through an Interner.
type ID uint32

// Interner is a per-graph string interner. Property keys and layer
// names each get their own *Interner instance rather than a single
// process-global table, so snapshot round-trips stay deterministic and
// tests stay independent.
//
// Reads never block on other reads; writes (interning a new string) take
// the write lock only for the duration of the map mutation.
type Interner struct {
	mu       sync.RWMutex
	byString map[string]ID
	byID     []string
}

// NewInterner returns an empty interner.
func NewInterner() *Interner {
	return &Interner{byString: make(map[string]ID)}
}

// Intern returns the dense id for s, assigning a fresh one if s has not
// been seen before. IDs are assigned in first-seen order starting at 0.
func (in *Interner) Intern(s string) ID {
	in.mu.RLock()
	if id, ok := in.byString[s]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.byString[s]; ok {
		return id
	}
	id := ID(len(in.byID))
	in.byID = append(in.byID, s)
	in.byString[s] = id
	return id
}

// Lookup returns the id already assigned to s, if any, without
// interning a new one.
func (in *Interner) Lookup(s string) (ID, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.byString[s]
	return id, ok
}

// Resolve returns the string for a previously interned id.
func (in *Interner) Resolve(id ID) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(in.byID) {
		return "", false
	}
	return in.byID[id], true
}

// Len reports how many distinct strings have been interned.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.byID)
}

// All returns the interned strings in id order (index i is the string
// for ID(i)). Used by the snapshot codec to write registry sections
// deterministically.
func (in *Interner) All() []string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]string, len(in.byID))
	copy(out, in.byID)
	return out
}

// LoadAll resets the interner to hold exactly the given strings, in
// order, assigning id i to entries[i]. Used by the snapshot codec on
// load; the interner must be empty (a fresh graph) when this is called.
func (in *Interner) LoadAll(entries []string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.byID = append([]string(nil), entries...)
	in.byString = make(map[string]ID, len(entries))
	for i, s := range entries {
		in.byString[s] = ID(i)
	}
}
