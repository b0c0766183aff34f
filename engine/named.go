package engine

import (
	"iter"

	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/formula"
	"github.com/vogtb/calcengine/token"
)

// namedExpr is a named expression resolved once, at definition time,
// to the absolute range it denotes — interp.Context.ResolveName's
// contract only needs a range back, so a named expression here is
// always a named reference (a single cell or a range), not an
// arbitrary formula.
type namedExpr struct {
	name string
	rng  address.Range
}

// singleRefRange reduces a compiled token stream to the one absolute
// range it denotes, for the named-expression definitions this engine
// supports: a lone single-cell or range reference, nothing more.
func singleRefRange(tokens []token.Token, origin address.Address) (address.Range, bool) {
	if len(tokens) != 1 {
		return address.Range{}, false
	}
	switch tokens[0].Op {
	case token.OpSingleRef:
		return address.Single(tokens[0].Ref.ToAbsolute(origin)), true
	case token.OpRangeRef:
		return tokens[0].Rng.ToAbsolute(origin), true
	default:
		return address.Range{}, false
	}
}

// SetNamedExpression defines name (global when scope is nil, else
// scoped to that sheet) as the range src resolves to relative to
// origin. name must match ^[A-Za-z_][A-Za-z0-9_.]*$.
func (e *Engine) SetNamedExpression(scope *int32, name string, origin address.Address, src string) error {
	if !namedExprPattern.MatchString(name) {
		return newModelError(InvalidNamedExpression, "engine: invalid named expression name %q", name)
	}

	store, err := formula.Compile(src, compileCtx{e: e, origin: origin})
	if err != nil {
		return err
	}
	rng, ok := singleRefRange(store.Tokens, origin)
	if !ok {
		return newModelError(InvalidNamedExpression, "engine: named expression %q must be a single cell or range reference", name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if scope != nil {
		if !e.sheetExistsLocked(*scope) {
			return newModelError(UnknownSheet, "engine: unknown sheet %d", *scope)
		}
		m, ok := e.sheetNamed[*scope]
		if !ok {
			m = map[string]namedExpr{}
			e.sheetNamed[*scope] = m
		}
		m[name] = namedExpr{name: name, rng: rng}
		return nil
	}

	e.globalNamed[name] = namedExpr{name: name, rng: rng}
	return nil
}

// NamedExpressionsIterator lazily enumerates the names defined in
// scope (global when nil). The returned sequence is a snapshot taken
// under a read lock and is not restartable.
func (e *Engine) NamedExpressionsIterator(scope *int32) iter.Seq[string] {
	e.mu.RLock()
	var names []string
	if scope == nil {
		names = make([]string, 0, len(e.globalNamed))
		for n := range e.globalNamed {
			names = append(names, n)
		}
	} else if m, ok := e.sheetNamed[*scope]; ok {
		names = make([]string, 0, len(m))
		for n := range m {
			names = append(names, n)
		}
	}
	e.mu.RUnlock()

	return func(yield func(string) bool) {
		for _, n := range names {
			if !yield(n) {
				return
			}
		}
	}
}
