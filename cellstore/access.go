package cellstore

import "github.com/vogtb/calcengine/token"

// CellAccess is the read-only, type-tagged view of a cell's current
// value returned to callers outside the store. It never exposes
// storage internals (runs, formula tokens, result-slot locking).
type CellAccess struct {
	Type ValueType

	Num     float64
	Str     string
	Bool    bool
	ErrCode token.ErrorCode

	// Unresolved is true when the cell holds a formula whose result
	// slot has not yet been published (still unset or resolving) —
	// callers asking before a calculation run has reached it.
	Unresolved bool
}

// IsEmpty reports whether the accessed cell had no value.
func (c CellAccess) IsEmpty() bool { return c.Type == ValueEmpty && !c.Unresolved }
