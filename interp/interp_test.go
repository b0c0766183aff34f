package interp_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/builtin"
	"github.com/vogtb/calcengine/formula"
	"github.com/vogtb/calcengine/interp"
	"github.com/vogtb/calcengine/token"
)

// fakeModel is a minimal in-memory implementation of both
// formula.CompileContext and interp.Context, backed by a real
// builtin.Registry, so these tests exercise compile+evaluate
// end to end the way the engine package wires them together.
type fakeModel struct {
	origin  address.Address
	sheets  map[string]int32
	cells   map[address.Address]builtin.Value
	named   map[string]address.Range
	pool    map[uint32]string
	nextStr uint32
	reg     *builtin.Registry
}

func newFakeModel(origin address.Address, reg *builtin.Registry) *fakeModel {
	return &fakeModel{
		origin:  origin,
		sheets:  map[string]int32{},
		cells:   map[address.Address]builtin.Value{},
		named:   map[string]address.Range{},
		pool:    map[uint32]string{},
		nextStr: 1,
		reg:     reg,
	}
}

func (m *fakeModel) Origin() address.Address { return m.origin }
func (m *fakeModel) ResolveSheet(name string) (int32, bool) {
	id, ok := m.sheets[name]
	return id, ok
}
func (m *fakeModel) InternString(s string) uint32 {
	id := m.nextStr
	m.nextStr++
	m.pool[id] = s
	return id
}
func (m *fakeModel) LookupFunction(name string) (token.FuncID, bool) { return m.reg.LookupFunction(name) }
func (m *fakeModel) IsVolatile(id token.FuncID) bool                 { return m.reg.IsVolatile(id) }

func (m *fakeModel) CellValue(addr address.Address) builtin.Value {
	if v, ok := m.cells[addr]; ok {
		return v
	}
	return builtin.Empty()
}
func (m *fakeModel) RangeValues(rng address.Range) []builtin.Value {
	var out []builtin.Value
	for row := rng.First.Row; row <= rng.Last.Row; row++ {
		for col := rng.First.Col; col <= rng.Last.Col; col++ {
			out = append(out, m.CellValue(address.Address{Sheet: rng.First.Sheet, Row: row, Col: col}))
		}
	}
	return out
}
func (m *fakeModel) ResolveName(name string) (address.Range, bool) {
	rng, ok := m.named[name]
	return rng, ok
}
func (m *fakeModel) String(id uint32) (string, bool) {
	s, ok := m.pool[id]
	return s, ok
}

func evalSrc(t *testing.T, m *fakeModel, src string) builtin.Value {
	t.Helper()
	store, err := formula.Compile(src, m)
	require.NoError(t, err)
	return interp.Eval(store.Tokens, m.Origin(), m, m.reg)
}

func TestEvalArithmeticPrecedence(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 0, Col: 0}, builtin.New())
	got := evalSrc(t, m, "2+3*4")
	require.Equal(t, builtin.Number(14), got)
}

func TestEvalCellReferenceResolvesThroughContext(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 4, Col: 0}, builtin.New())
	m.cells[address.Address{Sheet: 0, Row: 0, Col: 1}] = builtin.Number(10)
	got := evalSrc(t, m, "B1+1")
	require.Equal(t, builtin.Number(11), got)
}

func TestEvalEmptyCellIsZeroInArithmetic(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 0, Col: 0}, builtin.New())
	got := evalSrc(t, m, "A5+1")
	require.Equal(t, builtin.Number(1), got)
}

func TestEvalEmptyCellIsEmptyStringInConcatenation(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 0, Col: 0}, builtin.New())
	got := evalSrc(t, m, `A5&"x"`)
	require.Equal(t, builtin.String("x"), got)
}

func TestEvalDivisionByZero(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 0, Col: 0}, builtin.New())
	got := evalSrc(t, m, "1/0")
	require.True(t, got.IsError())
	require.Equal(t, token.ErrDiv0, got.Err)
}

func TestEvalErrorOperandPropagates(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 4, Col: 0}, builtin.New())
	m.cells[address.Address{Sheet: 0, Row: 0, Col: 1}] = builtin.Error(token.ErrValue)
	got := evalSrc(t, m, "B1+1")
	require.Equal(t, token.ErrValue, got.Err)
}

func TestEvalBareRangeInArithmeticIsRefError(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 4, Col: 0}, builtin.New())
	got := evalSrc(t, m, "A1:A3+1")
	require.Equal(t, token.ErrRef, got.Err)
}

func TestEvalSumFunctionFlattensRange(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 4, Col: 0}, builtin.New())
	m.cells[address.Address{Sheet: 0, Row: 0, Col: 0}] = builtin.Number(1)
	m.cells[address.Address{Sheet: 0, Row: 1, Col: 0}] = builtin.Number(2)
	m.cells[address.Address{Sheet: 0, Row: 2, Col: 0}] = builtin.Number(3)
	got := evalSrc(t, m, "SUM(A1:A3)")
	require.Equal(t, builtin.Number(6), got)
}

func TestEvalIfFunction(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 0, Col: 0}, builtin.New())
	got := evalSrc(t, m, `IF(1<2,"yes","no")`)
	require.Equal(t, builtin.String("yes"), got)
}

func TestEvalUnaryMinusAndPercentOrder(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 0, Col: 0}, builtin.New())
	got := evalSrc(t, m, "-5%")
	require.Equal(t, builtin.Number(-0.05), got)
}

func TestEvalPowerIsRightAssociative(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 0, Col: 0}, builtin.New())
	got := evalSrc(t, m, "2^3^2")
	require.Equal(t, builtin.Number(512), got)
}

func TestEvalComparisonAndConcatenation(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 0, Col: 0}, builtin.New())
	require.Equal(t, builtin.Boolean(true), evalSrc(t, m, "1<2"))
	require.Equal(t, builtin.String("ab"), evalSrc(t, m, `"a"&"b"`))
}

func TestEvalNamedExpressionSingleCell(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 0, Col: 0}, builtin.New())
	m.named["Rate"] = address.Single(address.Address{Sheet: 0, Row: 9, Col: 9})
	m.cells[address.Address{Sheet: 0, Row: 9, Col: 9}] = builtin.Number(42)
	got := evalSrc(t, m, "Rate+1")
	require.Equal(t, builtin.Number(43), got)
}

func TestEvalUnresolvedNamedExpressionIsNameError(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 0, Col: 0}, builtin.New())
	got := evalSrc(t, m, "MissingName+1")
	require.Equal(t, token.ErrName, got.Err)
}

func TestEvalGroupedMemberResolvesRelativeToItsOwnPosition(t *testing.T) {
	// Compile once at the anchor (C1), then evaluate the same token
	// stream with origin set to a different member's position (C2):
	// a relative reference should shift by the same delta the member
	// sits away from the anchor, reproducing fill-right semantics for
	// a shared-store grouped formula.
	reg := builtin.New()
	anchor := address.Address{Sheet: 0, Row: 0, Col: 2}
	m := newFakeModel(anchor, reg)
	m.cells[address.Address{Sheet: 0, Row: 0, Col: 0}] = builtin.Number(10)
	m.cells[address.Address{Sheet: 0, Row: 0, Col: 1}] = builtin.Number(20)
	store, err := formula.Compile("A1", m)
	require.NoError(t, err)

	gotAnchor := interp.Eval(store.Tokens, anchor, m, reg)
	require.Equal(t, builtin.Number(10), gotAnchor)

	member := address.Address{Sheet: 0, Row: 0, Col: 3}
	gotMember := interp.Eval(store.Tokens, member, m, reg)
	require.Equal(t, builtin.Number(20), gotMember)
}

func TestEvalArgPreservesRangeForAggregateAwareCaller(t *testing.T) {
	m := newFakeModel(address.Address{Sheet: 0, Row: 0, Col: 0}, builtin.New())
	m.cells[address.Address{Sheet: 0, Row: 0, Col: 0}] = builtin.Number(1)
	m.cells[address.Address{Sheet: 0, Row: 1, Col: 0}] = builtin.Number(2)
	store, err := formula.Compile("A1:A2", m)
	require.NoError(t, err)

	arg := interp.EvalArg(store.Tokens, m.Origin(), m, m.reg)
	require.True(t, arg.IsRange)
	require.Equal(t, []builtin.Value{builtin.Number(1), builtin.Number(2)}, arg.Values)
}
