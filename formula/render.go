package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/token"
)

// RenderContext supplies the reverse lookups Render needs: turning an
// interned string id back into text and a function id back into its
// name.
type RenderContext interface {
	String(id uint32) (string, bool)
	FunctionName(id token.FuncID) (string, bool)
}

// Render reconstructs source text for store's token stream, resolved
// against store.Origin. It walks the postfix stream with an explicit
// value stack of already-rendered substrings, the mirror image of how
// Compile produces the stream in the first place. Binary operators are
// written without parentheses, so a stream whose grouping differs from
// default operator precedence does not render back to equivalent text:
// the stream compiled from "(1+2)*3" renders as "1+2*3".
func Render(store *token.Store, ctx RenderContext) string {
	var stack []string
	for _, tok := range store.Tokens {
		switch tok.Op {
		case token.OpNumber:
			stack = append(stack, strconv.FormatFloat(tok.Num, 'g', -1, 64))
		case token.OpString:
			s, _ := ctx.String(tok.Str)
			stack = append(stack, `"`+strings.ReplaceAll(s, `"`, `""`)+`"`)
		case token.OpBoolean:
			if tok.Bool {
				stack = append(stack, "TRUE")
			} else {
				stack = append(stack, "FALSE")
			}
		case token.OpSingleRef:
			stack = append(stack, renderRef(tok.Ref, store.Origin))
		case token.OpRangeRef:
			stack = append(stack, renderRef(tok.Rng.First, store.Origin)+":"+renderRef(tok.Rng.Last, store.Origin))
		case token.OpNamedExprRef:
			stack = append(stack, tok.Name)
		case token.OpFunction:
			name, _ := ctx.FunctionName(tok.Func)
			args := popN(&stack, tok.Argc)
			stack = append(stack, name+"("+strings.Join(args, ",")+")")
		case token.OpUnaryPlus:
			stack = append(stack, "+"+pop(&stack))
		case token.OpUnaryMinus:
			stack = append(stack, "-"+pop(&stack))
		case token.OpPercent:
			stack = append(stack, pop(&stack)+"%")
		default:
			rhs := pop(&stack)
			lhs := pop(&stack)
			stack = append(stack, fmt.Sprintf("%s%s%s", lhs, tok.Op.String(), rhs))
		}
	}
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

func renderRef(r address.RelativeAddress, origin address.Address) string {
	abs := r.ToAbsolute(origin)
	col := lettersFromCol(abs.Col)
	if r.ColAbs {
		col = "$" + col
	}
	row := strconv.Itoa(int(abs.Row) + 1)
	if r.RowAbs {
		row = "$" + row
	}
	return col + row
}

func pop(stack *[]string) string {
	s := *stack
	v := s[len(s)-1]
	*stack = s[:len(s)-1]
	return v
}

func popN(stack *[]string, n int) []string {
	s := *stack
	out := append([]string(nil), s[len(s)-n:]...)
	*stack = s[:len(s)-n]
	return out
}
