package formula

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/token"
)

type fakeFunc struct {
	id        token.FuncID
	volatile  bool
}

type fakeCtx struct {
	origin    address.Address
	sheets    map[string]int32
	strings   map[uint32]string
	nextStr   uint32
	functions map[string]fakeFunc
}

func newFakeCtx(origin address.Address) *fakeCtx {
	return &fakeCtx{
		origin:  origin,
		sheets:  map[string]int32{},
		strings: map[uint32]string{},
		nextStr: 1,
		functions: map[string]fakeFunc{
			"SUM": {id: 1},
			"NOW": {id: 2, volatile: true},
			"IF":  {id: 3},
		},
	}
}

func (c *fakeCtx) Origin() address.Address { return c.origin }
func (c *fakeCtx) ResolveSheet(name string) (int32, bool) {
	id, ok := c.sheets[name]
	return id, ok
}
func (c *fakeCtx) InternString(s string) uint32 {
	id := c.nextStr
	c.nextStr++
	c.strings[id] = s
	return id
}
func (c *fakeCtx) LookupFunction(name string) (token.FuncID, bool) {
	f, ok := c.functions[strings.ToUpper(name)]
	return f.id, ok
}
func (c *fakeCtx) IsVolatile(id token.FuncID) bool {
	for _, f := range c.functions {
		if f.id == id {
			return f.volatile
		}
	}
	return false
}
func (c *fakeCtx) String(id uint32) (string, bool) {
	s, ok := c.strings[id]
	return s, ok
}
func (c *fakeCtx) FunctionName(id token.FuncID) (string, bool) {
	for name, f := range c.functions {
		if f.id == id {
			return name, true
		}
	}
	return "", false
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	ctx := newFakeCtx(address.Address{Sheet: 0, Row: 0, Col: 0})
	store, err := Compile("1+2*3", ctx)
	require.NoError(t, err)

	ops := make([]token.Opcode, len(store.Tokens))
	for i, tok := range store.Tokens {
		ops[i] = tok.Op
	}
	require.Equal(t, []token.Opcode{token.OpNumber, token.OpNumber, token.OpNumber, token.OpMul, token.OpAdd}, ops)
}

func TestCompilePowerIsRightAssociative(t *testing.T) {
	ctx := newFakeCtx(address.Address{})
	store, err := Compile("2^3^2", ctx)
	require.NoError(t, err)
	require.Equal(t, "2^3^2", Render(store, ctx))
}

func TestCompileAndRenderCellReference(t *testing.T) {
	ctx := newFakeCtx(address.Address{Sheet: 0, Row: 4, Col: 0}) // A5
	store, err := Compile("B1+$C$2", ctx)
	require.NoError(t, err)
	require.Equal(t, "B1+$C$2", Render(store, ctx))

	require.Equal(t, token.OpSingleRef, store.Tokens[0].Op)
	require.False(t, store.Tokens[0].Ref.RowAbs)
	require.False(t, store.Tokens[0].Ref.ColAbs)
	require.True(t, store.Tokens[1].Ref.RowAbs)
	require.True(t, store.Tokens[1].Ref.ColAbs)
}

func TestRelativeReferenceShiftsWithOrigin(t *testing.T) {
	ctx := newFakeCtx(address.Address{Sheet: 0, Row: 0, Col: 0})
	store, err := Compile("A1", ctx)
	require.NoError(t, err)

	abs := store.Tokens[0].Ref.ToAbsolute(address.Address{Sheet: 0, Row: 10, Col: 0})
	require.Equal(t, int32(10), abs.Row)
}

func TestCompileRangeReference(t *testing.T) {
	ctx := newFakeCtx(address.Address{})
	store, err := Compile("SUM(A1:A10)", ctx)
	require.NoError(t, err)
	require.Equal(t, token.OpRangeRef, store.Tokens[0].Op)
	require.Equal(t, token.OpFunction, store.Tokens[1].Op)
	require.Equal(t, 1, store.Tokens[1].Argc)
}

func TestCompileSheetQualifiedReference(t *testing.T) {
	ctx := newFakeCtx(address.Address{Sheet: 0, Row: 0, Col: 0})
	ctx.sheets["Sheet2"] = 1
	store, err := Compile("Sheet2!A1", ctx)
	require.NoError(t, err)
	require.True(t, store.Tokens[0].Ref.SheetAbs)
	abs := store.Tokens[0].Ref.ToAbsolute(ctx.Origin())
	require.Equal(t, int32(1), abs.Sheet)
}

func TestCompileNamedExpressionReference(t *testing.T) {
	ctx := newFakeCtx(address.Address{})
	store, err := Compile("MyRange", ctx)
	require.NoError(t, err)
	require.Equal(t, token.OpNamedExprRef, store.Tokens[0].Op)
	require.Equal(t, "MyRange", store.Tokens[0].Name)
}

func TestCompileStringLiteralWithEscapedQuote(t *testing.T) {
	ctx := newFakeCtx(address.Address{})
	store, err := Compile(`"say ""hi"""`, ctx)
	require.NoError(t, err)
	s, ok := ctx.String(store.Tokens[0].Str)
	require.True(t, ok)
	require.Equal(t, `say "hi"`, s)
}

func TestCompileBooleanLiterals(t *testing.T) {
	ctx := newFakeCtx(address.Address{})
	store, err := Compile("TRUE", ctx)
	require.NoError(t, err)
	require.Equal(t, token.OpBoolean, store.Tokens[0].Op)
	require.True(t, store.Tokens[0].Bool)
}

func TestCompileVolatileFunctionMarksStoreVolatile(t *testing.T) {
	ctx := newFakeCtx(address.Address{})
	store, err := Compile("NOW()", ctx)
	require.NoError(t, err)
	require.True(t, store.IsVolatile())
}

func TestCompileUnknownFunctionEmitsNameError(t *testing.T) {
	ctx := newFakeCtx(address.Address{})
	store, err := Compile("BOGUS(1)", ctx)
	require.NoError(t, err)
	require.Equal(t, token.OpError, store.Tokens[len(store.Tokens)-1].Op)
}

func TestCompileUnterminatedStringIsSyntaxError(t *testing.T) {
	ctx := newFakeCtx(address.Address{})
	_, err := Compile(`"unterminated`, ctx)
	require.Error(t, err)
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestCompileMismatchedParenIsSyntaxError(t *testing.T) {
	ctx := newFakeCtx(address.Address{})
	_, err := Compile("(1+2", ctx)
	require.Error(t, err)
}

func TestCompileUnaryMinusAndPercent(t *testing.T) {
	ctx := newFakeCtx(address.Address{})
	store, err := Compile("-5%", ctx)
	require.NoError(t, err)
	ops := make([]token.Opcode, len(store.Tokens))
	for i, tok := range store.Tokens {
		ops[i] = tok.Op
	}
	require.Equal(t, []token.Opcode{token.OpNumber, token.OpPercent, token.OpUnaryMinus}, ops)
}
