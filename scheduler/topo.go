package scheduler

import "github.com/vogtb/calcengine/address"

// color is a node's DFS visitation state: white (unvisited), gray
// (on the current DFS path, not yet finished), black (finished).
// Grounded on the explicit color-vector depth-first search used to
// compute a calculation order: a plain recursive map-keyed visited
// set cannot distinguish "currently being visited" from "fully
// visited" without extra bookkeeping, which is exactly the
// distinction a cycle check needs.
type color uint8

const (
	white color = iota
	gray
	black
)

// PrecedentsFunc returns the direct precedents (cells read) of a
// formula cell.
type PrecedentsFunc func(address.Address) []address.Address

// Result is a topological schedule over a dirty set: Order lists
// every node so that each one appears after every precedent of its
// that is also in the dirty set, and Cyclic flags every node that
// participates in a circular reference.
type Result struct {
	Order  []address.Address
	Cyclic map[address.Address]bool
}

// frame is one stack entry of the iterative DFS: which node, and how
// far through its precedent list the scan has progressed.
type frame struct {
	node int
	next int
}

// TopoSort orders nodes so each cell comes after its in-set
// precedents, using an explicit stack instead of recursion (so a
// long dependency chain can't blow the call stack) over a dense
// color array indexed by each node's position in nodes, following
// the shape of a classic array-indexed depth-first search rather than
// a map-keyed recursive walk.
func TopoSort(nodes []address.Address, precedentsOf PrecedentsFunc) Result {
	index := make(map[address.Address]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}

	colors := make([]color, len(nodes))
	cyclic := make(map[address.Address]bool)
	order := make([]address.Address, 0, len(nodes))

	for start := 0; start < len(nodes); start++ {
		if colors[start] != white {
			continue
		}
		runDFS(start, nodes, index, precedentsOf, colors, cyclic, &order)
	}

	return Result{Order: order, Cyclic: cyclic}
}

func runDFS(start int, nodes []address.Address, index map[address.Address]int, precedentsOf PrecedentsFunc, colors []color, cyclic map[address.Address]bool, order *[]address.Address) {
	stack := []frame{{node: start}}
	colors[start] = gray

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		precedents := precedentsOf(nodes[top.node])

		descended := false
		for top.next < len(precedents) {
			p := precedents[top.next]
			top.next++

			pi, inSet := index[p]
			if !inSet {
				continue // precedent isn't dirty: already resolved, no scheduling edge needed
			}
			switch colors[pi] {
			case white:
				colors[pi] = gray
				stack = append(stack, frame{node: pi})
				descended = true
			case gray:
				markCycle(stack, pi, nodes, cyclic)
			case black:
				// cross edge into an already-finished node: fine, no cycle.
			}
			if descended {
				break
			}
		}
		if descended {
			continue
		}

		colors[top.node] = black
		*order = append(*order, nodes[top.node])
		stack = stack[:len(stack)-1]
	}
}

// markCycle tags every node on the current DFS path from the first
// occurrence of target onward as a cycle member — the whole loop, not
// just the two endpoints of the back edge that discovered it.
func markCycle(stack []frame, target int, nodes []address.Address, cyclic map[address.Address]bool) {
	start := 0
	for i, f := range stack {
		if f.node == target {
			start = i
			break
		}
	}
	for _, f := range stack[start:] {
		cyclic[nodes[f.node]] = true
	}
}
