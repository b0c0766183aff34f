package builtin

import (
	"strconv"
	"strings"

	"github.com/vogtb/calcengine/token"
)

// toNumber coerces v to a float64 the way a spreadsheet arithmetic
// context does: booleans are 1/0, empty is 0, a numeric-looking
// string parses, anything else is #VALUE!. An error value propagates
// as itself rather than being coerced.
func toNumber(v Value) (float64, *token.ErrorCode) {
	switch v.Kind {
	case VNumber:
		return v.Num, nil
	case VBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case VEmpty:
		return 0, nil
	case VString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			e := token.ErrValue
			return 0, &e
		}
		return n, nil
	case VError:
		return 0, &v.Err
	default:
		e := token.ErrValue
		return 0, &e
	}
}

// toText coerces v to display text the way CONCATENATE/TEXT functions
// do.
func toText(v Value) (string, *token.ErrorCode) {
	switch v.Kind {
	case VString:
		return v.Str, nil
	case VNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64), nil
	case VBool:
		if v.Bool {
			return "TRUE", nil
		}
		return "FALSE", nil
	case VEmpty:
		return "", nil
	case VError:
		return "", &v.Err
	default:
		e := token.ErrValue
		return "", &e
	}
}

// toBool coerces v to a boolean condition the way IF/AND/OR do.
func toBool(v Value) (bool, *token.ErrorCode) {
	switch v.Kind {
	case VBool:
		return v.Bool, nil
	case VNumber:
		return v.Num != 0, nil
	case VEmpty:
		return false, nil
	case VString:
		switch strings.ToUpper(strings.TrimSpace(v.Str)) {
		case "TRUE":
			return true, nil
		case "FALSE":
			return false, nil
		}
		e := token.ErrValue
		return false, &e
	case VError:
		return false, &v.Err
	default:
		e := token.ErrValue
		return false, &e
	}
}
