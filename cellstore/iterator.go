package cellstore

import (
	"iter"

	"github.com/vogtb/calcengine/address"
)

// Direction selects the traversal order of ModelIterator.
type Direction uint8

const (
	RowMajor Direction = iota
	ColumnMajor
)

// Positioned pairs a cell's address with its public value view.
type Positioned struct {
	Addr   address.Address
	Access CellAccess
}

type hit struct {
	addr address.Address
	cell Cell
}

// ModelIterator walks every position within rng in dir order, empty
// positions included — an unset cell yields a Positioned with an
// empty CellAccess rather than being skipped. The scan copies the
// whole rectangle's (address, cell) pairs under a single read lock,
// then yields outside the lock so a slow consumer never blocks
// writers mid-iteration.
func (s *Store) ModelIterator(rng address.Range, dir Direction) iter.Seq[Positioned] {
	return func(yield func(Positioned) bool) {
		hits := s.collectHits(rng, dir)
		for _, h := range hits {
			if !yield(Positioned{Addr: h.addr, Access: s.access(h.cell)}) {
				return
			}
		}
	}
}

func (s *Store) collectHits(rng address.Range, dir Direction) []hit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.sheets[rng.First.Sheet]

	get := func(row, col int32) Cell {
		if !ok {
			return Cell{}
		}
		c := sh.col(col, false)
		if c == nil {
			return Cell{}
		}
		return c.get(row)
	}

	hits := make([]hit, 0, int(rng.Rows())*int(rng.Cols()))
	if dir == RowMajor {
		for row := rng.First.Row; row <= rng.Last.Row; row++ {
			for col := rng.First.Col; col <= rng.Last.Col; col++ {
				hits = append(hits, hit{addr: address.Address{Sheet: rng.First.Sheet, Row: row, Col: col}, cell: get(row, col)})
			}
		}
	} else {
		for col := rng.First.Col; col <= rng.Last.Col; col++ {
			for row := rng.First.Row; row <= rng.Last.Row; row++ {
				hits = append(hits, hit{addr: address.Address{Sheet: rng.First.Sheet, Row: row, Col: col}, cell: get(row, col)})
			}
		}
	}
	return hits
}
