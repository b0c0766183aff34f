package depgraph

import "github.com/vogtb/calcengine/address"

// sheetEdges holds the reverse (listener) side of the graph for one
// sheet: which formula cells must be notified on a direct single-cell
// write, plus the spatial range index for range-shaped precedents.
type sheetEdges struct {
	cellListeners map[address.Address]map[address.Address]struct{} // precedent -> dependents
	ranges        rangeIndex
}

func newSheetEdges() *sheetEdges {
	return &sheetEdges{cellListeners: map[address.Address]map[address.Address]struct{}{}}
}

// Graph is the dependency graph: for every formula cell (the
// "dependent"), the set of cells and ranges it reads (its
// precedents), and, indexed for fast lookup, which dependents must be
// notified when a given cell or range is written.
type Graph struct {
	nodes  map[address.Address]*node
	sheets map[int32]*sheetEdges
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{nodes: map[address.Address]*node{}, sheets: map[int32]*sheetEdges{}}
}

func (g *Graph) sheetEdgesFor(sheetID int32) *sheetEdges {
	se, ok := g.sheets[sheetID]
	if !ok {
		se = newSheetEdges()
		g.sheets[sheetID] = se
	}
	return se
}

// Register records dependent's precedents, replacing anything
// previously registered for it. Call this every time a formula cell
// is (re)installed, including on first registration.
func (g *Graph) Register(dependent address.Address, cellRefs []address.Address, rangeRefs []address.Range) {
	g.Unregister(dependent)

	n := newNode()
	se := g.sheetEdgesFor(dependent.Sheet)

	for _, ref := range cellRefs {
		n.cellPrecedents[ref] = struct{}{}
		listeners, ok := se.cellListeners[ref]
		if !ok {
			listeners = map[address.Address]struct{}{}
			se.cellListeners[ref] = listeners
		}
		listeners[dependent] = struct{}{}
	}

	for _, rng := range rangeRefs {
		n.rangePrecedents[rng] = struct{}{}
		se.ranges.insert(rangeEntry{rng: rng, dependent: dependent})
	}

	g.nodes[dependent] = n
}

// Unregister removes every precedent edge dependent had, undoing a
// prior Register. Safe to call on an address with no node (no-op) —
// the façade's unregister_formula_cell op resolves the duplicate-
// registration open question by treating a redundant unregister as a
// silent no-op rather than an error at this layer; the façade decides
// whether to surface an error for an unknown cell.
func (g *Graph) Unregister(dependent address.Address) {
	n, ok := g.nodes[dependent]
	if !ok {
		return
	}
	se := g.sheetEdgesFor(dependent.Sheet)

	for ref := range n.cellPrecedents {
		listeners := se.cellListeners[ref]
		delete(listeners, dependent)
		if len(listeners) == 0 {
			delete(se.cellListeners, ref)
		}
	}
	for rng := range n.rangePrecedents {
		se.ranges.remove(dependent, rng)
	}
	delete(g.nodes, dependent)
}

// Has reports whether dependent currently has a registered node.
func (g *Graph) Has(dependent address.Address) bool {
	_, ok := g.nodes[dependent]
	return ok
}

// QueryListeners returns every formula cell that must be recalculated
// because addr changed: direct single-cell listeners plus any formula
// whose range precedent contains addr.
func (g *Graph) QueryListeners(addr address.Address) []address.Address {
	seen := map[address.Address]struct{}{}
	var out []address.Address

	se, ok := g.sheets[addr.Sheet]
	if !ok {
		return nil
	}

	for dep := range se.cellListeners[addr] {
		if _, dup := seen[dep]; !dup {
			seen[dep] = struct{}{}
			out = append(out, dep)
		}
	}
	for _, dep := range se.ranges.queryContaining(addr) {
		if _, dup := seen[dep]; !dup {
			seen[dep] = struct{}{}
			out = append(out, dep)
		}
	}
	return out
}

// RemoveListenersIn drops every range-precedent registration whose
// watched range intersects rng, for every dependent's node as well as
// the spatial index — used when a sheet or a block of cells is
// removed outright and any formula watching that area should lose the
// dangling precedent rather than silently keep observing dead space.
func (g *Graph) RemoveListenersIn(sheetID int32, rng address.Range) {
	se, ok := g.sheets[sheetID]
	if !ok {
		return
	}
	for _, e := range se.ranges.queryIntersecting(rng) {
		se.ranges.remove(e.dependent, e.rng)
		if n, ok := g.nodes[e.dependent]; ok {
			delete(n.rangePrecedents, e.rng)
		}
	}
}

// Precedents returns dependent's direct cell and range precedents.
func (g *Graph) Precedents(dependent address.Address) ([]address.Address, []address.Range) {
	n, ok := g.nodes[dependent]
	if !ok {
		return nil, nil
	}
	cells := make([]address.Address, 0, len(n.cellPrecedents))
	for c := range n.cellPrecedents {
		cells = append(cells, c)
	}
	ranges := make([]address.Range, 0, len(n.rangePrecedents))
	for r := range n.rangePrecedents {
		ranges = append(ranges, r)
	}
	return cells, ranges
}
