package interp

import (
	"strconv"
	"strings"

	"github.com/vogtb/calcengine/builtin"
	"github.com/vogtb/calcengine/token"
)

// scalarize collapses an Arg consumed by a scalar-consuming operator
// (arithmetic, comparison, concatenation, unary) to its single value.
// A range-ref in this position — one not passed whole into an
// aggregate function — is invalid per spec 4.6 and yields #REF!.
func scalarize(a builtin.Arg) builtin.Value {
	if a.IsRange {
		return builtin.Error(token.ErrRef)
	}
	return a.Scalar
}

// Scalarize applies the same bare-range-to-#REF! rule to a formula's
// final Arg (as returned by EvalArg), for a caller that publishes a
// cell's scalar result directly from a raw Arg rather than going
// through Eval.
func Scalarize(a builtin.Arg) builtin.Value {
	return scalarize(a)
}

// numericOperand coerces a scalar value for an arithmetic operator. An
// empty cell is 0, matching ordinary spreadsheet arithmetic.
func numericOperand(v builtin.Value) (float64, *token.ErrorCode) {
	switch v.Kind {
	case builtin.VNumber:
		return v.Num, nil
	case builtin.VBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case builtin.VEmpty:
		return 0, nil
	case builtin.VString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			e := token.ErrValue
			return 0, &e
		}
		return n, nil
	case builtin.VError:
		return 0, &v.Err
	default:
		e := token.ErrValue
		return 0, &e
	}
}

// textOperand coerces a scalar value for the concatenation operator.
// An empty cell is the empty string.
func textOperand(v builtin.Value) (string, *token.ErrorCode) {
	switch v.Kind {
	case builtin.VString:
		return v.Str, nil
	case builtin.VNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64), nil
	case builtin.VBool:
		if v.Bool {
			return "TRUE", nil
		}
		return "FALSE", nil
	case builtin.VEmpty:
		return "", nil
	case builtin.VError:
		return "", &v.Err
	default:
		e := token.ErrValue
		return "", &e
	}
}

// compareOperands orders two scalar values the way a spreadsheet
// comparison operator does: two numbers compare numerically, two
// booleans compare FALSE < TRUE, otherwise both sides are compared as
// text. Returns -1, 0, or 1.
func compareOperands(l, r builtin.Value) int {
	if l.Kind == builtin.VNumber && r.Kind == builtin.VNumber {
		switch {
		case l.Num < r.Num:
			return -1
		case l.Num > r.Num:
			return 1
		default:
			return 0
		}
	}
	if l.Kind == builtin.VBool && r.Kind == builtin.VBool {
		switch {
		case l.Bool == r.Bool:
			return 0
		case !l.Bool:
			return -1
		default:
			return 1
		}
	}
	ls, _ := textOperand(l)
	rs, _ := textOperand(r)
	return strings.Compare(ls, rs)
}
