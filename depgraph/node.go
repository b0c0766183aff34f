// Package depgraph tracks, for every formula cell, the set of cells
// and ranges it reads (its precedents) and, in reverse, which formula
// cells must be notified when a given cell or range changes (its
// listeners).
package depgraph

import "github.com/vogtb/calcengine/address"

// node is one formula cell's edges in the dependency graph.
type node struct {
	cellPrecedents  map[address.Address]struct{}
	rangePrecedents map[address.Range]struct{}
}

func newNode() *node {
	return &node{
		cellPrecedents:  map[address.Address]struct{}{},
		rangePrecedents: map[address.Range]struct{}{},
	}
}
