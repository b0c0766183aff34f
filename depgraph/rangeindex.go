package depgraph

import (
	"sort"

	"github.com/vogtb/calcengine/address"
)

// rangeEntry is one registered range precedent: dependent watches
// rng for changes.
type rangeEntry struct {
	rng       address.Range
	dependent address.Address
}

// rangeIndex is a per-sheet spatial index of range precedents, sorted
// by starting row. A mutation at a single address or narrow region
// only needs to scan entries whose band could plausibly cover it,
// instead of every range precedent ever registered on the sheet —
// the sub-linear requirement for query_listeners on a sheet with many
// unrelated SUM(...) ranges scattered across it.
type rangeIndex struct {
	entries []rangeEntry // sorted by rng.First.Row
}

func (idx *rangeIndex) insert(e rangeEntry) {
	i := sort.Search(len(idx.entries), func(i int) bool { return idx.entries[i].rng.First.Row >= e.rng.First.Row })
	idx.entries = append(idx.entries, rangeEntry{})
	copy(idx.entries[i+1:], idx.entries[i:])
	idx.entries[i] = e
}

func (idx *rangeIndex) remove(dependent address.Address, rng address.Range) {
	for i, e := range idx.entries {
		if e.dependent == dependent && e.rng == rng {
			idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
			return
		}
	}
}

// removeAllFor drops every entry registered by dependent, returning
// the ranges it had been watching.
func (idx *rangeIndex) removeAllFor(dependent address.Address) []address.Range {
	var removed []address.Range
	kept := idx.entries[:0]
	for _, e := range idx.entries {
		if e.dependent == dependent {
			removed = append(removed, e.rng)
			continue
		}
		kept = append(kept, e)
	}
	idx.entries = kept
	return removed
}

// queryContaining returns the distinct dependents whose watched range
// contains addr. Since entries are sorted by start row, a binary
// search finds the first entry that starts strictly after addr.Row;
// only the entries before it (rng.First.Row <= addr.Row) are scanned.
func (idx *rangeIndex) queryContaining(addr address.Address) []address.Address {
	i := sort.Search(len(idx.entries), func(i int) bool { return idx.entries[i].rng.First.Row > addr.Row })

	seen := map[address.Address]struct{}{}
	var out []address.Address
	for j := 0; j < i; j++ {
		e := idx.entries[j]
		if !e.rng.Contains(addr) {
			continue
		}
		if _, dup := seen[e.dependent]; dup {
			continue
		}
		seen[e.dependent] = struct{}{}
		out = append(out, e.dependent)
	}
	return out
}

// queryIntersecting returns every entry whose range intersects rng.
func (idx *rangeIndex) queryIntersecting(rng address.Range) []rangeEntry {
	var out []rangeEntry
	for _, e := range idx.entries {
		if e.rng.First.Row > rng.Last.Row {
			break
		}
		if e.rng.Intersects(rng) {
			out = append(out, e)
		}
	}
	return out
}
