package engine

import (
	"iter"

	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/cellstore"
	"github.com/vogtb/calcengine/token"
)

// GetCellAccess returns addr's public, read-only value view.
func (e *Engine) GetCellAccess(addr address.Address) cellstore.CellAccess {
	return e.store.GetCellAccess(addr)
}

// GetNumericValue returns addr's numeric value, or 0 if addr is not a
// number (including empty cells, per the façade's typed-getter
// contract).
func (e *Engine) GetNumericValue(addr address.Address) float64 {
	ca := e.store.GetCellAccess(addr)
	if ca.Type == cellstore.ValueNumber {
		return ca.Num
	}
	return 0
}

// GetStringValue returns addr's string value, or "" if addr is not a
// string.
func (e *Engine) GetStringValue(addr address.Address) string {
	ca := e.store.GetCellAccess(addr)
	if ca.Type == cellstore.ValueString {
		return ca.Str
	}
	return ""
}

// GetBooleanValue returns addr's boolean value, or false if addr is
// not a boolean.
func (e *Engine) GetBooleanValue(addr address.Address) bool {
	ca := e.store.GetCellAccess(addr)
	return ca.Type == cellstore.ValueBoolean && ca.Bool
}

// GetErrorValue returns addr's error code, or token.ErrNone if addr
// does not currently hold an error result.
func (e *Engine) GetErrorValue(addr address.Address) token.ErrorCode {
	ca := e.store.GetCellAccess(addr)
	if ca.Type == cellstore.ValueError {
		return ca.ErrCode
	}
	return token.ErrNone
}

// GetDataRange returns the smallest rectangle covering every
// non-empty cell on sheetID, or ok=false if the sheet is empty.
func (e *Engine) GetDataRange(sheetID int32) (address.Range, bool) {
	return e.store.GetDataRange(sheetID)
}

// GetModelIterator walks every position in rng (the sheet's full data
// range when rng is nil, "open-ended to the sheet edge") in dir
// order, a finite, non-restartable sequence.
func (e *Engine) GetModelIterator(sheetID int32, dir cellstore.Direction, rng *address.Range) iter.Seq[cellstore.Positioned] {
	var r address.Range
	if rng != nil {
		r = *rng
	} else {
		dr, ok := e.store.GetDataRange(sheetID)
		if !ok {
			return func(func(cellstore.Positioned) bool) {}
		}
		r = dr
	}
	return e.store.ModelIterator(r, dir)
}

// FormulaErrorName returns the stable short name for code, per
// get_formula_error_name.
func (e *Engine) FormulaErrorName(code token.ErrorCode) string { return code.Name() }
