// Package interp implements the formula interpreter: a stack-based
// evaluator that walks a postfix token.Token stream, resolving
// references through a Context and dispatching function calls into a
// builtin.Registry.
package interp

import (
	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/builtin"
)

// Context is everything the interpreter needs from the surrounding
// model without holding a reference to it directly: cell/range value
// resolution, named-expression lookup, and interned-string lookup. Backed in
// practice by cellstore.Store (values) plus the engine's named-
// expression table, so the interpreter itself has no dependency on
// either.
type Context interface {
	// CellValue resolves a single absolute address to its current
	// scalar value. An empty cell resolves to builtin.Empty().
	CellValue(addr address.Address) builtin.Value

	// RangeValues resolves every cell in rng to a value, in row-major
	// order.
	RangeValues(rng address.Range) []builtin.Value

	// ResolveName looks up a named expression by name, returning the
	// range it denotes.
	ResolveName(name string) (address.Range, bool)

	// String resolves an interned string id, satisfying token.Token's
	// OpString/OpNamedExprRef-adjacent payloads.
	String(id uint32) (string, bool)
}
