package scheduler

import "github.com/vogtb/calcengine/address"

// PrecedentsProvider exposes a formula cell's direct and range
// precedents, satisfied by *depgraph.Graph.
type PrecedentsProvider interface {
	Precedents(dependent address.Address) ([]address.Address, []address.Range)
}

// Schedule resolves the dirty set reachable from changedCells and
// dirtyFormulas, then orders it so every cell appears after whichever
// of its precedents are themselves in the dirty set. A range
// precedent schedules an edge to every dirty-set member that falls
// inside that range, since any one of them changing requires the
// range-reading formula to be recomputed after it.
func Schedule(g Listeners, p PrecedentsProvider, changedCells, dirtyFormulas []address.Address) Result {
	dirty := ResolveDirtySet(g, changedCells, dirtyFormulas)

	precedentsOf := func(addr address.Address) []address.Address {
		cells, ranges := p.Precedents(addr)
		if len(ranges) == 0 {
			return cells
		}
		out := append([]address.Address(nil), cells...)
		for _, d := range dirty {
			for _, rng := range ranges {
				if rng.Contains(d) {
					out = append(out, d)
					break
				}
			}
		}
		return out
	}

	return TopoSort(dirty, precedentsOf)
}
