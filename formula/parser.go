package formula

import (
	"strings"

	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/token"
)

// CompileContext supplies everything the compiler needs from outside
// the formula text itself: where the formula lives (for resolving
// relative references), how to look up another sheet by name, how to
// intern string literals, and how to resolve a function name to its
// id and volatility.
type CompileContext interface {
	Origin() address.Address
	ResolveSheet(name string) (int32, bool)
	InternString(s string) uint32
	LookupFunction(name string) (token.FuncID, bool)
	IsVolatile(id token.FuncID) bool
}

// Compile parses src and produces the postfix token.Store the
// interpreter can execute. The grammar (comparison, concatenation,
// addition, multiplication, power, unary, postfix, primary) and its
// precedence climbing is the same shape as the teacher's recursive-
// descent parser, but each rule emits directly into a flat postfix
// buffer instead of building an AST node tree: a binary rule compiles
// its left side, then its right side, then appends the operator
// token, which is exactly a post-order walk of the AST the teacher
// would have built, computed without ever allocating it.
func Compile(src string, ctx CompileContext) (*token.Store, error) {
	lexTokens, err := NewLexer(src).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: lexTokens, ctx: ctx}
	if err := p.parseComparison(); err != nil {
		return nil, err
	}
	if p.cur().kind != lexEOF {
		return nil, newSyntaxError(p.cur().pos, "unexpected trailing input")
	}
	return token.NewStore(p.out, ctx.Origin(), ctx.IsVolatile), nil
}

type parser struct {
	tokens []lexToken
	pos    int
	ctx    CompileContext
	out    []token.Token
}

func (p *parser) cur() lexToken  { return p.tokens[p.pos] }
func (p *parser) advance() lexToken {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) emit(t token.Token) { p.out = append(p.out, t) }

func (p *parser) parseComparison() error {
	if err := p.parseConcatenation(); err != nil {
		return err
	}
	for {
		cur := p.cur()
		if cur.kind != lexOp || !isComparisonOp(cur.op) {
			return nil
		}
		p.advance()
		if err := p.parseConcatenation(); err != nil {
			return err
		}
		p.emit(token.Token{Op: cur.op})
	}
}

func isComparisonOp(op token.Opcode) bool {
	switch op {
	case token.OpEq, token.OpNe, token.OpLt, token.OpLe, token.OpGt, token.OpGe:
		return true
	}
	return false
}

func (p *parser) parseConcatenation() error {
	if err := p.parseAddition(); err != nil {
		return err
	}
	for p.cur().kind == lexOp && p.cur().op == token.OpConcat {
		p.advance()
		if err := p.parseAddition(); err != nil {
			return err
		}
		p.emit(token.Token{Op: token.OpConcat})
	}
	return nil
}

func (p *parser) parseAddition() error {
	if err := p.parseMultiplication(); err != nil {
		return err
	}
	for p.cur().kind == lexOp && (p.cur().op == token.OpAdd || p.cur().op == token.OpSub) {
		op := p.advance().op
		if err := p.parseMultiplication(); err != nil {
			return err
		}
		p.emit(token.Token{Op: op})
	}
	return nil
}

func (p *parser) parseMultiplication() error {
	if err := p.parsePower(); err != nil {
		return err
	}
	for p.cur().kind == lexOp && (p.cur().op == token.OpMul || p.cur().op == token.OpDiv) {
		op := p.advance().op
		if err := p.parsePower(); err != nil {
			return err
		}
		p.emit(token.Token{Op: op})
	}
	return nil
}

// parsePower is right-associative: A^B^C == A^(B^C).
func (p *parser) parsePower() error {
	if err := p.parseUnary(); err != nil {
		return err
	}
	if p.cur().kind == lexOp && p.cur().op == token.OpPower {
		p.advance()
		if err := p.parsePower(); err != nil {
			return err
		}
		p.emit(token.Token{Op: token.OpPower})
	}
	return nil
}

func (p *parser) parseUnary() error {
	cur := p.cur()
	if cur.kind == lexOp && (cur.op == token.OpAdd || cur.op == token.OpSub) {
		p.advance()
		if err := p.parseUnary(); err != nil {
			return err
		}
		if cur.op == token.OpSub {
			p.emit(token.Token{Op: token.OpUnaryMinus})
		} else {
			p.emit(token.Token{Op: token.OpUnaryPlus})
		}
		return nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() error {
	if err := p.parsePrimary(); err != nil {
		return err
	}
	for p.cur().kind == lexOp && p.cur().op == token.OpPercent {
		p.advance()
		p.emit(token.Token{Op: token.OpPercent})
	}
	return nil
}

func (p *parser) parsePrimary() error {
	cur := p.cur()
	switch cur.kind {
	case lexNumber:
		p.advance()
		p.emit(token.Token{Op: token.OpNumber, Num: cur.num})
		return nil
	case lexString:
		p.advance()
		p.emit(token.Token{Op: token.OpString, Str: p.ctx.InternString(cur.text)})
		return nil
	case lexLParen:
		p.advance()
		if err := p.parseComparison(); err != nil {
			return err
		}
		if p.cur().kind != lexRParen {
			return newSyntaxError(p.cur().pos, "expected ')'")
		}
		p.advance()
		return nil
	case lexIdent:
		return p.parseIdentExpr()
	default:
		return newSyntaxError(cur.pos, "unexpected token")
	}
}

func (p *parser) parseIdentExpr() error {
	name := p.advance().text

	switch strings.ToUpper(name) {
	case "TRUE":
		p.emit(token.Token{Op: token.OpBoolean, Bool: true})
		return nil
	case "FALSE":
		p.emit(token.Token{Op: token.OpBoolean, Bool: false})
		return nil
	}

	sheetAbs := false
	sheetID := p.ctx.Origin().Sheet
	text := name
	if p.cur().kind == lexBang {
		p.advance()
		resolved, ok := p.ctx.ResolveSheet(name)
		if !ok {
			return newSyntaxError(p.cur().pos, "unknown sheet %q", name)
		}
		sheetID = resolved
		sheetAbs = true
		if p.cur().kind != lexIdent {
			return newSyntaxError(p.cur().pos, "expected reference after sheet qualifier")
		}
		text = p.advance().text
	}

	if p.cur().kind == lexLParen && !sheetAbs {
		return p.parseFunctionCall(name)
	}

	first, ok := parseCellRef(text)
	if !ok {
		p.emit(token.Token{Op: token.OpNamedExprRef, Name: text})
		return nil
	}

	origin := p.ctx.Origin()
	firstTarget := address.Address{Sheet: sheetID, Row: first.row, Col: first.col}

	if p.cur().kind != lexColon {
		rel := address.FromAbsolute(firstTarget, origin, sheetAbs, first.rowAbs, first.colAbs)
		p.emit(token.Token{Op: token.OpSingleRef, Ref: rel})
		return nil
	}

	p.advance()
	if p.cur().kind != lexIdent {
		return newSyntaxError(p.cur().pos, "expected range end reference")
	}
	endText := p.advance().text
	second, ok := parseCellRef(endText)
	if !ok {
		return newSyntaxError(p.cur().pos, "invalid range end %q", endText)
	}
	secondTarget := address.Address{Sheet: sheetID, Row: second.row, Col: second.col}

	relFirst := address.FromAbsolute(firstTarget, origin, sheetAbs, first.rowAbs, first.colAbs)
	relSecond := address.FromAbsolute(secondTarget, origin, sheetAbs, second.rowAbs, second.colAbs)
	p.emit(token.Token{Op: token.OpRangeRef, Rng: address.RelativeRange{First: relFirst, Last: relSecond}})
	return nil
}

func (p *parser) parseFunctionCall(name string) error {
	p.advance() // '('
	argc := 0
	if p.cur().kind != lexRParen {
		for {
			if err := p.parseComparison(); err != nil {
				return err
			}
			argc++
			if p.cur().kind == lexComma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur().kind != lexRParen {
		return newSyntaxError(p.cur().pos, "expected ')' closing call to %s", name)
	}
	p.advance()

	id, ok := p.ctx.LookupFunction(name)
	if !ok {
		p.emit(token.Token{Op: token.OpError, ErrText: p.ctx.InternString(name), ErrMessage: p.ctx.InternString(token.ErrName.Name())})
		return nil
	}
	p.emit(token.Token{Op: token.OpFunction, Func: id, Argc: argc})
	return nil
}
