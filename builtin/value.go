// Package builtin implements the function library the interpreter
// calls into for every FUNCTION token: the name/id/volatility
// registry and the functions themselves.
package builtin

import "github.com/vogtb/calcengine/token"

// ValueKind tags the payload of a Value.
type ValueKind uint8

const (
	VEmpty ValueKind = iota
	VNumber
	VString
	VBool
	VError
)

// Value is a single resolved scalar formula value.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
	Err  token.ErrorCode
}

func Number(n float64) Value { return Value{Kind: VNumber, Num: n} }
func String(s string) Value  { return Value{Kind: VString, Str: s} }
func Boolean(b bool) Value   { return Value{Kind: VBool, Bool: b} }
func Error(e token.ErrorCode) Value { return Value{Kind: VError, Err: e} }
func Empty() Value           { return Value{Kind: VEmpty} }

// IsError reports whether v is an error value.
func (v Value) IsError() bool { return v.Kind == VError }

// Arg is one argument passed to a function call: either a single
// resolved scalar, or — for an argument written as a range reference
// — every value in that range in row-major order. Aggregate functions
// (SUM, COUNT, ...) flatten Values; scalar functions take the first
// element when handed a range, matching ordinary spreadsheet
// coercion rules.
type Arg struct {
	Scalar Value
	Values []Value
	IsRange bool
}

func ScalarArg(v Value) Arg { return Arg{Scalar: v} }
func RangeArg(vs []Value) Arg { return Arg{IsRange: true, Values: vs} }

// Flatten returns every scalar value an Arg denotes: the range's
// values, or a single-element slice for a plain scalar.
func (a Arg) Flatten() []Value {
	if a.IsRange {
		return a.Values
	}
	return []Value{a.Scalar}
}

// First returns a's scalar coercion: the scalar itself, or the first
// element of a range (empty Value if the range is empty).
func (a Arg) First() Value {
	if !a.IsRange {
		return a.Scalar
	}
	if len(a.Values) == 0 {
		return Empty()
	}
	return a.Values[0]
}
