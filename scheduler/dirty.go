// Package scheduler resolves which formula cells must be recalculated
// after a batch of writes and orders them so every cell is computed
// after its precedents.
package scheduler

import "github.com/vogtb/calcengine/address"

// Listeners reports which formula cells directly depend on addr,
// satisfied by *depgraph.Graph.
type Listeners interface {
	QueryListeners(addr address.Address) []address.Address
}

// ResolveDirtySet computes the full set of formula cells that need
// recalculation: every formula in dirtyFormulas (cells marked dirty
// directly — newly entered, replaced, or volatile) plus every formula
// cell transitively reachable by following listener edges outward
// from both changedCells (plain value writes) and dirtyFormulas
// themselves (a formula's own dirtiness propagates to whatever reads
// it, same as a value write would).
func ResolveDirtySet(g Listeners, changedCells, dirtyFormulas []address.Address) []address.Address {
	affected := make(map[address.Address]struct{}, len(dirtyFormulas))
	for _, f := range dirtyFormulas {
		affected[f] = struct{}{}
	}

	queue := make([]address.Address, 0, len(changedCells)+len(dirtyFormulas))
	queue = append(queue, changedCells...)
	queue = append(queue, dirtyFormulas...)

	processed := map[address.Address]struct{}{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, done := processed[cur]; done {
			continue
		}
		processed[cur] = struct{}{}

		for _, dep := range g.QueryListeners(cur) {
			if _, ok := affected[dep]; !ok {
				affected[dep] = struct{}{}
			}
			if _, done := processed[dep]; !done {
				queue = append(queue, dep)
			}
		}
	}

	out := make([]address.Address, 0, len(affected))
	for a := range affected {
		out = append(out, a)
	}
	return out
}
