package token

import (
	"sync"
	"sync/atomic"
)

// Pool is an interned string table. Ids are assigned monotonically
// and are never reused or reassigned, unlike the teacher's reference-
// counted StringTable: the engine's invariant (spec 3) is that a
// string id remains valid for the lifetime of the model once issued.
//
// Reads go through a lock-free snapshot (an atomic pointer to an
// immutable map), so concurrent formula evaluation never blocks on
// Lookup/String during a calculation run. Writes (new strings only)
// take the mutex, assign the next id, and republish a new snapshot —
// the two-level reader/writer split called for in the design notes.
type Pool struct {
	snapshot atomic.Pointer[poolSnapshot]
	writer   sync.Mutex
	nextID   uint32
}

type poolSnapshot struct {
	byString map[string]uint32
	byID     map[uint32]string
}

// NewPool creates an empty pool. Id 0 is reserved to mean "no string".
func NewPool() *Pool {
	p := &Pool{nextID: 1}
	p.snapshot.Store(&poolSnapshot{byString: map[string]uint32{}, byID: map[uint32]string{}})
	return p
}

// Lookup returns the id for s without acquiring any lock, if s has
// already been interned.
func (p *Pool) Lookup(s string) (uint32, bool) {
	snap := p.snapshot.Load()
	id, ok := snap.byString[s]
	return id, ok
}

// String returns the string for an id without acquiring any lock.
func (p *Pool) String(id uint32) (string, bool) {
	if id == 0 {
		return "", false
	}
	snap := p.snapshot.Load()
	s, ok := snap.byID[id]
	return s, ok
}

// Intern returns the id for s, assigning a fresh monotonic id and
// publishing a new snapshot on first sight. Safe to call during a
// parallel calculation run (formula results that produce new string
// values intern through this same path).
func (p *Pool) Intern(s string) uint32 {
	if id, ok := p.Lookup(s); ok {
		return id
	}

	p.writer.Lock()
	defer p.writer.Unlock()

	// re-check under the writer lock: another writer may have interned
	// the same string between our lock-free Lookup and acquiring it.
	old := p.snapshot.Load()
	if id, ok := old.byString[s]; ok {
		return id
	}

	id := p.nextID
	p.nextID++

	next := &poolSnapshot{
		byString: make(map[string]uint32, len(old.byString)+1),
		byID:     make(map[uint32]string, len(old.byID)+1),
	}
	for k, v := range old.byString {
		next.byString[k] = v
	}
	for k, v := range old.byID {
		next.byID[k] = v
	}
	next.byString[s] = id
	next.byID[id] = s

	p.snapshot.Store(next)
	return id
}

// Count returns the number of unique interned strings.
func (p *Pool) Count() int {
	return len(p.snapshot.Load().byString)
}
