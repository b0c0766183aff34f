package interp

import (
	"math"

	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/builtin"
	"github.com/vogtb/calcengine/token"
)

// Eval walks tokens (a compiled formula's postfix stream) and returns
// its scalar result. origin is the address relative references are
// resolved against, whatever the caller passes: the executor passes a
// standalone formula cell's own position, and for a grouped (array)
// formula the group's anchor, evaluating the group once. Passing a
// different origin shifts every relative reference by the difference,
// as a fill-down or fill-right would. A range-ref surfacing at the top of evaluation (consumed by
// nothing that demands a matrix) scalarizes to #REF!.
func Eval(tokens []token.Token, origin address.Address, ctx Context, registry *builtin.Registry) builtin.Value {
	return scalarize(EvalArg(tokens, origin, ctx, registry))
}

// EvalArg is Eval's non-collapsing form: it returns the raw top-of-
// stack Arg, preserving whether the formula's final value is a range
// (an array formula whose last operation was a bare range reference,
// e.g. "=A1:A3") rather than forcing it through scalarize. The
// executor uses this to decide whether a grouped formula's single
// evaluation at its anchor should broadcast a scalar across the whole
// group or populate the group's matrix from the resolved range.
func EvalArg(tokens []token.Token, origin address.Address, ctx Context, registry *builtin.Registry) builtin.Arg {
	st := &stack{}
	for _, tok := range tokens {
		step(st, tok, origin, ctx, registry)
		if st.errored {
			break
		}
	}
	if st.errored {
		return builtin.ScalarArg(builtin.Error(st.err))
	}
	if len(st.items) != 1 {
		// A malformed stream (compiler bug, not a user-facing case) —
		// never partially evaluates into a stray value.
		return builtin.ScalarArg(builtin.Error(token.ErrGeneral))
	}
	return st.items[0]
}

// stack is the interpreter's value stack plus a short-circuit error
// latch: once set, remaining tokens are skipped rather than evaluated
// against garbage operands.
type stack struct {
	items   []builtin.Arg
	errored bool
	err     token.ErrorCode
}

func (s *stack) push(a builtin.Arg) { s.items = append(s.items, a) }

func (s *stack) fail(err token.ErrorCode) {
	s.errored = true
	s.err = err
}

func (s *stack) pop() builtin.Arg {
	n := len(s.items)
	a := s.items[n-1]
	s.items = s.items[:n-1]
	return a
}

func (s *stack) popN(n int) []builtin.Arg {
	start := len(s.items) - n
	args := append([]builtin.Arg(nil), s.items[start:]...)
	s.items = s.items[:start]
	return args
}

func step(s *stack, tok token.Token, origin address.Address, ctx Context, registry *builtin.Registry) {
	switch tok.Op {
	case token.OpNumber:
		s.push(builtin.ScalarArg(builtin.Number(tok.Num)))
	case token.OpBoolean:
		s.push(builtin.ScalarArg(builtin.Boolean(tok.Bool)))
	case token.OpString:
		str, ok := ctx.String(tok.Str)
		if !ok {
			s.fail(token.ErrGeneral)
			return
		}
		s.push(builtin.ScalarArg(builtin.String(str)))
	case token.OpSingleRef:
		addr := tok.Ref.ToAbsolute(origin)
		if !addr.IsValid() {
			s.push(builtin.ScalarArg(builtin.Error(token.ErrRef)))
			return
		}
		s.push(builtin.ScalarArg(ctx.CellValue(addr)))
	case token.OpRangeRef:
		rng := tok.Rng.ToAbsolute(origin)
		s.push(builtin.RangeArg(ctx.RangeValues(rng)))
	case token.OpNamedExprRef:
		rng, ok := ctx.ResolveName(tok.Name)
		if !ok {
			s.push(builtin.ScalarArg(builtin.Error(token.ErrName)))
			return
		}
		if rng.IsSingleCell() {
			s.push(builtin.ScalarArg(ctx.CellValue(rng.First)))
			return
		}
		s.push(builtin.RangeArg(ctx.RangeValues(rng)))
	case token.OpError:
		// The only current producer (the parser, for an unresolved
		// function name) always means #NAME? for the whole formula; the
		// call's argument tokens are still on the stack, so latch the
		// error instead of pushing a value beside them.
		s.fail(token.ErrName)
	case token.OpUnaryPlus:
		evalUnary(s, func(n float64) float64 { return n })
	case token.OpUnaryMinus:
		evalUnary(s, func(n float64) float64 { return -n })
	case token.OpPercent:
		evalUnary(s, func(n float64) float64 { return n / 100 })
	case token.OpAdd:
		evalArith(s, func(l, r float64) (float64, token.ErrorCode, bool) { return l + r, 0, true })
	case token.OpSub:
		evalArith(s, func(l, r float64) (float64, token.ErrorCode, bool) { return l - r, 0, true })
	case token.OpMul:
		evalArith(s, func(l, r float64) (float64, token.ErrorCode, bool) { return l * r, 0, true })
	case token.OpDiv:
		evalArith(s, func(l, r float64) (float64, token.ErrorCode, bool) {
			if r == 0 {
				return 0, token.ErrDiv0, false
			}
			return l / r, 0, true
		})
	case token.OpPower:
		evalArith(s, func(l, r float64) (float64, token.ErrorCode, bool) { return math.Pow(l, r), 0, true })
	case token.OpConcat:
		evalConcat(s)
	case token.OpEq:
		evalCompare(s, func(c int) bool { return c == 0 })
	case token.OpNe:
		evalCompare(s, func(c int) bool { return c != 0 })
	case token.OpLt:
		evalCompare(s, func(c int) bool { return c < 0 })
	case token.OpLe:
		evalCompare(s, func(c int) bool { return c <= 0 })
	case token.OpGt:
		evalCompare(s, func(c int) bool { return c > 0 })
	case token.OpGe:
		evalCompare(s, func(c int) bool { return c >= 0 })
	case token.OpFunction:
		args := s.popN(tok.Argc)
		result := registry.Call(tok.Func, args)
		s.push(builtin.ScalarArg(result))
	default:
		s.fail(token.ErrGeneral)
	}
}

func evalUnary(s *stack, f func(float64) float64) {
	a := s.pop()
	v := scalarize(a)
	if v.IsError() {
		s.fail(v.Err)
		return
	}
	n, errc := numericOperand(v)
	if errc != nil {
		s.fail(*errc)
		return
	}
	s.push(builtin.ScalarArg(builtin.Number(f(n))))
}

func evalArith(s *stack, f func(l, r float64) (float64, token.ErrorCode, bool)) {
	r := s.pop()
	l := s.pop()
	lv, rv := scalarize(l), scalarize(r)
	if lv.IsError() {
		s.fail(lv.Err)
		return
	}
	if rv.IsError() {
		s.fail(rv.Err)
		return
	}
	ln, errc := numericOperand(lv)
	if errc != nil {
		s.fail(*errc)
		return
	}
	rn, errc := numericOperand(rv)
	if errc != nil {
		s.fail(*errc)
		return
	}
	result, errCode, ok := f(ln, rn)
	if !ok {
		s.fail(errCode)
		return
	}
	s.push(builtin.ScalarArg(builtin.Number(result)))
}

func evalConcat(s *stack) {
	r := s.pop()
	l := s.pop()
	lv, rv := scalarize(l), scalarize(r)
	if lv.IsError() {
		s.fail(lv.Err)
		return
	}
	if rv.IsError() {
		s.fail(rv.Err)
		return
	}
	ls, errc := textOperand(lv)
	if errc != nil {
		s.fail(*errc)
		return
	}
	rs, errc := textOperand(rv)
	if errc != nil {
		s.fail(*errc)
		return
	}
	s.push(builtin.ScalarArg(builtin.String(ls + rs)))
}

func evalCompare(s *stack, pred func(int) bool) {
	r := s.pop()
	l := s.pop()
	lv, rv := scalarize(l), scalarize(r)
	if lv.IsError() {
		s.fail(lv.Err)
		return
	}
	if rv.IsError() {
		s.fail(rv.Err)
		return
	}
	s.push(builtin.ScalarArg(builtin.Boolean(pred(compareOperands(lv, rv)))))
}
