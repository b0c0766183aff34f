package builtin

import (
	"strings"

	"github.com/vogtb/calcengine/token"
)

// Function ids. The interpreter treats these as opaque; only this
// package interprets them.
const (
	FuncSum token.FuncID = iota + 1
	FuncAverage
	FuncAverageA
	FuncCount
	FuncCountA
	FuncMax
	FuncMin
	FuncMedian
	FuncMode
	FuncIf
	FuncAnd
	FuncOr
	FuncNot
	FuncConcatenate
	FuncLen
	FuncUpper
	FuncLower
	FuncTrim
	FuncAbs
	FuncRound
	FuncFloor
	FuncCeiling
	FuncSqrt
	FuncPower
	FuncMod
	FuncPi
	FuncNow
	FuncToday
	FuncRand
)

// fn is one registered function: its name, whether it's volatile, and
// its implementation.
type fn struct {
	name     string
	volatile bool
	call     func(r *Registry, args []Arg) Value
}

// Registry is the function library: name <-> id resolution,
// volatility, and dispatch. It owns the Clock/RandomSource seams so
// NOW/TODAY/RAND are deterministic in tests without needing a global.
type Registry struct {
	clock  Clock
	random RandomSource

	byID   map[token.FuncID]*fn
	byName map[string]token.FuncID
}

// New builds the default registry, backed by real wall-clock time and
// randomness.
func New() *Registry { return NewWithClock(WallClock{}, DefaultRandomSource{}) }

// NewWithClock builds a registry with injected time/randomness
// sources, for deterministic tests.
func NewWithClock(clock Clock, random RandomSource) *Registry {
	r := &Registry{clock: clock, random: random, byID: map[token.FuncID]*fn{}, byName: map[string]token.FuncID{}}
	r.register(FuncSum, "SUM", false, sumFn)
	r.register(FuncAverage, "AVERAGE", false, averageFn)
	r.register(FuncAverageA, "AVERAGEA", false, averageAFn)
	r.register(FuncCount, "COUNT", false, countFn)
	r.register(FuncCountA, "COUNTA", false, countAFn)
	r.register(FuncMax, "MAX", false, maxFn)
	r.register(FuncMin, "MIN", false, minFn)
	r.register(FuncMedian, "MEDIAN", false, medianFn)
	r.register(FuncMode, "MODE", false, modeFn)
	r.register(FuncIf, "IF", false, ifFn)
	r.register(FuncAnd, "AND", false, andFn)
	r.register(FuncOr, "OR", false, orFn)
	r.register(FuncNot, "NOT", false, notFn)
	r.register(FuncConcatenate, "CONCATENATE", false, concatenateFn)
	r.register(FuncLen, "LEN", false, lenFn)
	r.register(FuncUpper, "UPPER", false, upperFn)
	r.register(FuncLower, "LOWER", false, lowerFn)
	r.register(FuncTrim, "TRIM", false, trimFn)
	r.register(FuncAbs, "ABS", false, absFn)
	r.register(FuncRound, "ROUND", false, roundFn)
	r.register(FuncFloor, "FLOOR", false, floorFn)
	r.register(FuncCeiling, "CEILING", false, ceilingFn)
	r.register(FuncSqrt, "SQRT", false, sqrtFn)
	r.register(FuncPower, "POWER", false, powerFn)
	r.register(FuncMod, "MOD", false, modFn)
	r.register(FuncPi, "PI", false, piFn)
	r.register(FuncNow, "NOW", true, nowFn)
	r.register(FuncToday, "TODAY", true, todayFn)
	r.register(FuncRand, "RAND", true, randFn)
	return r
}

func (r *Registry) register(id token.FuncID, name string, volatile bool, call func(*Registry, []Arg) Value) {
	r.byID[id] = &fn{name: name, volatile: volatile, call: call}
	r.byName[name] = id
}

// LookupFunction resolves a formula-text function name to its id,
// satisfying formula.CompileContext.
func (r *Registry) LookupFunction(name string) (token.FuncID, bool) {
	id, ok := r.byName[strings.ToUpper(name)]
	return id, ok
}

// FunctionName is LookupFunction's inverse, for rendering a token
// stream back to source text.
func (r *Registry) FunctionName(id token.FuncID) (string, bool) {
	f, ok := r.byID[id]
	if !ok {
		return "", false
	}
	return f.name, true
}

// IsVolatile reports whether id names a volatile function.
func (r *Registry) IsVolatile(id token.FuncID) bool {
	f, ok := r.byID[id]
	return ok && f.volatile
}

// Call dispatches id against args. An unregistered id (which should
// never happen once a token stream has been compiled through this
// same registry) yields #NAME?.
func (r *Registry) Call(id token.FuncID, args []Arg) Value {
	f, ok := r.byID[id]
	if !ok {
		return Error(token.ErrName)
	}
	return f.call(r, args)
}
