package depgraph

import "github.com/vogtb/calcengine/address"

// VolatileSet tracks formula cells whose token store calls a volatile
// function (NOW, RAND, ...) and so must be re-added to the dirty set
// on every calculation run regardless of whether any precedent
// changed.
type VolatileSet struct {
	cells map[address.Address]struct{}
}

// NewVolatileSet creates an empty tracker.
func NewVolatileSet() *VolatileSet {
	return &VolatileSet{cells: map[address.Address]struct{}{}}
}

// Mark records addr as volatile.
func (v *VolatileSet) Mark(addr address.Address) { v.cells[addr] = struct{}{} }

// Unmark removes addr, called when a formula cell is replaced or
// removed.
func (v *VolatileSet) Unmark(addr address.Address) { delete(v.cells, addr) }

// All returns every currently tracked volatile cell.
func (v *VolatileSet) All() []address.Address {
	out := make([]address.Address, 0, len(v.cells))
	for addr := range v.cells {
		out = append(out, addr)
	}
	return out
}
