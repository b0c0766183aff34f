// Package address implements the pure value types of the engine's
// address algebra: absolute and relative cell addresses and ranges,
// their ordering, and translation between the two.
package address

import "fmt"

// invalidSheet is the sentinel sheet index carried by Address.Invalid()
// and by any Address derived from translating a relative address whose
// origin sheet was itself invalid.
const invalidSheet = -1

// Address is an absolute cell position within a workbook. The zero
// value is a valid address (sheet 0, row 0, col 0 is the top-left
// cell), not the sentinel — use Invalid() for the sentinel.
type Address struct {
	Sheet int32
	Row   int32
	Col   int32
}

// Invalid returns the sentinel absolute address.
func Invalid() Address {
	return Address{Sheet: invalidSheet, Row: -1, Col: -1}
}

// IsValid reports whether a is not the sentinel invalid address.
func (a Address) IsValid() bool {
	return a.Sheet >= 0 && a.Row >= 0 && a.Col >= 0
}

func (a Address) String() string {
	if !a.IsValid() {
		return "#INVALID!"
	}
	return fmt.Sprintf("sheet%d!R%dC%d", a.Sheet, a.Row, a.Col)
}

// Compare implements a total order over absolute addresses: sheet,
// then row, then column. It satisfies a < b => !(b < a) and totality
// for any pair of addresses, including the invalid sentinel (which
// sorts before every valid address on account of its negative fields).
func (a Address) Compare(b Address) int {
	if a.Sheet != b.Sheet {
		return cmp32(a.Sheet, b.Sheet)
	}
	if a.Row != b.Row {
		return cmp32(a.Row, b.Row)
	}
	return cmp32(a.Col, b.Col)
}

// Less reports whether a sorts strictly before b.
func (a Address) Less(b Address) bool {
	return a.Compare(b) < 0
}

func cmp32(x, y int32) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// RelativeAddress is a cell reference as it appears inside a formula
// token: each axis is either absolute (the component is taken as-is)
// or relative to the formula's origin cell (the origin's component is
// added to it).
type RelativeAddress struct {
	Sheet      int32
	Row        int32
	Col        int32
	SheetAbs   bool
	RowAbs     bool
	ColAbs     bool
}

// ToAbsolute resolves r against origin: for each axis, an absolute
// flag takes the stored component as-is, otherwise the origin's
// component is added to it. If origin's sheet is the invalid
// sentinel, that sheet is preserved in the result regardless of
// SheetAbs.
func (r RelativeAddress) ToAbsolute(origin Address) Address {
	if origin.Sheet == invalidSheet {
		return Address{Sheet: invalidSheet, Row: resolveAxis(r.Row, r.RowAbs, origin.Row), Col: resolveAxis(r.Col, r.ColAbs, origin.Col)}
	}
	sheet := r.Sheet
	if !r.SheetAbs {
		sheet = origin.Sheet + r.Sheet
	}
	return Address{
		Sheet: sheet,
		Row:   resolveAxis(r.Row, r.RowAbs, origin.Row),
		Col:   resolveAxis(r.Col, r.ColAbs, origin.Col),
	}
}

func resolveAxis(component int32, abs bool, origin int32) int32 {
	if abs {
		return component
	}
	return origin + component
}

// FromAbsolute builds the RelativeAddress that, resolved against
// origin, reproduces target — used by the formula compiler to encode
// a parsed reference relative to the formula's origin.
func FromAbsolute(target, origin Address, sheetAbs, rowAbs, colAbs bool) RelativeAddress {
	r := RelativeAddress{Sheet: target.Sheet, Row: target.Row, Col: target.Col, SheetAbs: sheetAbs, RowAbs: rowAbs, ColAbs: colAbs}
	if !sheetAbs {
		r.Sheet = target.Sheet - origin.Sheet
	}
	if !rowAbs {
		r.Row = target.Row - origin.Row
	}
	if !colAbs {
		r.Col = target.Col - origin.Col
	}
	return r
}
