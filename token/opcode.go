// Package token defines the formula token stream the core consumes:
// tagged opcodes for operators, literals, references, function calls,
// and parse errors, plus the interned string pool and the reference-
// counted token store that backs formula and grouped-formula cells.
package token

// Opcode tags the payload carried by a Token. The core never branches
// on anything but this tag; payload fields not meaningful for a given
// opcode are left zero.
type Opcode uint8

const (
	OpEOF Opcode = iota
	OpLParen
	OpRParen
	OpComma
	OpColon
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPower
	OpConcat
	OpPercent
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpUnaryPlus
	OpUnaryMinus
	OpNumber
	OpString
	OpBoolean
	OpSingleRef
	OpRangeRef
	OpNamedExprRef
	OpFunction
	OpError
)

func (o Opcode) String() string {
	switch o {
	case OpEOF:
		return "EOF"
	case OpLParen:
		return "("
	case OpRParen:
		return ")"
	case OpComma:
		return ","
	case OpColon:
		return ":"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpPower:
		return "^"
	case OpConcat:
		return "&"
	case OpPercent:
		return "%"
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpUnaryPlus:
		return "u+"
	case OpUnaryMinus:
		return "u-"
	case OpNumber:
		return "NUMBER"
	case OpString:
		return "STRING"
	case OpBoolean:
		return "BOOLEAN"
	case OpSingleRef:
		return "REF"
	case OpRangeRef:
		return "RANGE"
	case OpNamedExprRef:
		return "NAME"
	case OpFunction:
		return "FUNC"
	case OpError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FuncID identifies a built-in function. The core treats it as an
// opaque enum value; the function library (package builtin) owns the
// name <-> id mapping and the volatility table.
type FuncID uint16

// ErrorCode is the observable error taxonomy a formula cell's result
// slot (or an individual token, for parse failures) can carry.
type ErrorCode uint8

const (
	ErrNone ErrorCode = iota
	ErrRef
	ErrName
	ErrDiv0
	ErrNum
	ErrValue
	ErrNull
	ErrNA
	ErrCircular
	ErrGeneral
)

var errorNames = map[ErrorCode]string{
	ErrRef:      "#REF!",
	ErrName:     "#NAME?",
	ErrDiv0:     "#DIV/0!",
	ErrNum:      "#NUM!",
	ErrValue:    "#VALUE!",
	ErrNull:     "#NULL!",
	ErrNA:       "#N/A",
	ErrCircular: "#CIRCULAR!",
	ErrGeneral:  "#ERROR!",
}

// Name returns the stable short name for an error code, per
// get_formula_error_name in the engine's public contract.
func (e ErrorCode) Name() string {
	if n, ok := errorNames[e]; ok {
		return n
	}
	return "#ERROR!"
}

func (e ErrorCode) Error() string { return e.Name() }
