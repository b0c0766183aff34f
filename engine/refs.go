package engine

import (
	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/token"
)

// extractRefs walks a compiled formula's flat postfix token stream
// and resolves every reference token to an absolute cell or range,
// relative to origin — refs(F) per spec 3's dependency graph forward
// edges. A named-expression reference that fails to resolve is simply
// omitted: the interpreter will surface #NAME? for it at evaluation
// time, which is the correct observable behavior for an unregistered
// dependency.
func extractRefs(tokens []token.Token, origin address.Address, resolveName func(string) (address.Range, bool)) (cells []address.Address, ranges []address.Range) {
	for _, tok := range tokens {
		switch tok.Op {
		case token.OpSingleRef:
			cells = append(cells, tok.Ref.ToAbsolute(origin))
		case token.OpRangeRef:
			ranges = append(ranges, tok.Rng.ToAbsolute(origin))
		case token.OpNamedExprRef:
			rng, ok := resolveName(tok.Name)
			if !ok {
				continue
			}
			if rng.IsSingleCell() {
				cells = append(cells, rng.First)
			} else {
				ranges = append(ranges, rng)
			}
		}
	}
	return cells, ranges
}
