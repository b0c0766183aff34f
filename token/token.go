package token

import "github.com/vogtb/calcengine/address"

// Token is a single entry in a formula's token stream. Only the
// fields relevant to Op are populated; the rest are zero.
type Token struct {
	Op Opcode

	Num  float64          // OpNumber
	Str  uint32           // OpString: interned string id
	Bool bool             // OpBoolean
	Ref  address.RelativeAddress // OpSingleRef
	Rng  address.RelativeRange   // OpRangeRef
	Name string           // OpNamedExprRef: named expression name
	Func FuncID           // OpFunction
	Argc int              // OpFunction: argument count, filled by the parser

	// OpError: the offending text and the error message, both interned,
	// so the stream remains self-describing without needing the original
	// source text kept alive.
	ErrText    uint32
	ErrMessage uint32
}

// VolatileLookup reports whether a function id names a volatile
// function (NOW, RAND, ...). Supplied by the function library at
// Store construction time so package token has no dependency on
// package builtin.
type VolatileLookup func(FuncID) bool

// Store is an immutable, reference-counted sequence of tokens plus
// the origin address used to resolve the relative references it
// contains. A Store is shared verbatim across every position of a
// grouped formula.
type Store struct {
	Tokens   []Token
	Origin   address.Address
	volatile bool
	refs     int32
}

// NewStore builds a token store, scanning once for volatile function
// calls so IsVolatile is O(1) thereafter.
func NewStore(tokens []Token, origin address.Address, isVolatile VolatileLookup) *Store {
	s := &Store{Tokens: tokens, Origin: origin, refs: 1}
	if isVolatile != nil {
		for _, tok := range tokens {
			if tok.Op == OpFunction && isVolatile(tok.Func) {
				s.volatile = true
				break
			}
		}
	}
	return s
}

// IsVolatile reports whether this store's tokens include a call to a
// volatile function.
func (s *Store) IsVolatile() bool { return s.volatile }

// Retain increments the group-membership reference count and returns
// the store, for call-site chaining when a position joins a group.
func (s *Store) Retain() *Store {
	s.refs++
	return s
}

// Release decrements the reference count and reports whether it
// reached zero (the store has no more owning positions).
func (s *Store) Release() bool {
	s.refs--
	return s.refs <= 0
}

// RefCount returns the current group-membership reference count.
func (s *Store) RefCount() int32 { return s.refs }
