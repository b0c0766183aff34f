package cellstore

import "sort"

// run is a contiguous, gap-free block of cells starting at startRow.
// Long empty stretches between runs cost nothing: a column with one
// value at row 900000 is one run of length one, not 900000 slots.
type run struct {
	startRow int32
	cells    []Cell
}

func (r *run) endRow() int32 { return r.startRow + int32(len(r.cells)) }

// column is a run-length-compressed, row-sorted sequence of cells.
// Lookups binary-search the run list (O(log runs)); a dense column
// with no gaps degenerates to a single run and O(1) lookup.
type column struct {
	runs []run
}

// indexOf returns the index of the run that would contain row, and
// whether a run actually contains it.
func (c *column) indexOf(row int32) (int, bool) {
	i := sort.Search(len(c.runs), func(i int) bool { return c.runs[i].endRow() > row })
	if i < len(c.runs) && c.runs[i].startRow <= row {
		return i, true
	}
	return i, false
}

// get returns the cell at row, or the zero (empty) Cell if absent.
func (c *column) get(row int32) Cell {
	i, ok := c.indexOf(row)
	if !ok {
		return Cell{}
	}
	return c.runs[i].cells[row-c.runs[i].startRow]
}

// set writes cell at row, splicing it into an existing run, merging
// adjacent runs, or starting a new one.
func (c *column) set(row int32, cell Cell) {
	if cell.IsEmpty() {
		c.clear(row)
		return
	}

	i, ok := c.indexOf(row)
	if ok {
		c.runs[i].cells[row-c.runs[i].startRow] = cell
		return
	}

	// Does it extend the run before, the run after, or both (bridging
	// a single-row gap), or does it need a brand new run?
	before := i > 0 && c.runs[i-1].endRow() == row
	after := i < len(c.runs) && c.runs[i].startRow == row+1

	switch {
	case before && after:
		c.runs[i-1].cells = append(c.runs[i-1].cells, cell)
		c.runs[i-1].cells = append(c.runs[i-1].cells, c.runs[i].cells...)
		c.runs = append(c.runs[:i], c.runs[i+1:]...)
	case before:
		c.runs[i-1].cells = append(c.runs[i-1].cells, cell)
	case after:
		c.runs[i].startRow = row
		c.runs[i].cells = append([]Cell{cell}, c.runs[i].cells...)
	default:
		nr := run{startRow: row, cells: []Cell{cell}}
		c.runs = append(c.runs, run{})
		copy(c.runs[i+1:], c.runs[i:])
		c.runs[i] = nr
	}
}

// clear removes the cell at row, splitting its run if row falls in
// the interior.
func (c *column) clear(row int32) {
	i, ok := c.indexOf(row)
	if !ok {
		return
	}
	r := c.runs[i]
	offset := row - r.startRow

	switch {
	case len(r.cells) == 1:
		c.runs = append(c.runs[:i], c.runs[i+1:]...)
	case offset == 0:
		c.runs[i].startRow++
		c.runs[i].cells = r.cells[1:]
	case int(offset) == len(r.cells)-1:
		c.runs[i].cells = r.cells[:offset]
	default:
		head := run{startRow: r.startRow, cells: append([]Cell(nil), r.cells[:offset]...)}
		tail := run{startRow: row + 1, cells: append([]Cell(nil), r.cells[offset+1:]...)}
		c.runs = append(c.runs[:i], append([]run{head, tail}, c.runs[i+1:]...)...)
	}
}

// bounds returns the lowest and highest occupied row in the column.
func (c *column) bounds() (int32, int32, bool) {
	if len(c.runs) == 0 {
		return 0, 0, false
	}
	return c.runs[0].startRow, c.runs[len(c.runs)-1].endRow() - 1, true
}

// isEmpty reports whether the column has no occupied rows.
func (c *column) isEmpty() bool { return len(c.runs) == 0 }
