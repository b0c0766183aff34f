// Package cellstore is the authoritative, concurrently-readable grid
// of cell values: per-sheet, per-column run-length-compressed storage
// plus the formula cell result slots the interpreter and executor
// publish into.
package cellstore

import (
	"sync"

	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/token"
)

// Kind is the internal storage tag of a cell's content.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindBoolean
	KindString
	KindFormula
	// KindError tags a literal error value. It never arises from direct
	// user input — only as an element of a matrix result, where one
	// position of an array formula resolves to an error while its
	// siblings resolve to values.
	KindError
)

// ValueType is the observed type of a cell's value from the caller's
// perspective, as returned by GetCellAccess. A formula cell reports
// the type of its current result, not KindFormula.
type ValueType uint8

const (
	ValueEmpty ValueType = iota
	ValueNumber
	ValueString
	ValueBoolean
	ValueError
)

// ResultState is the evaluation state machine of a formula cell's
// result slot: unresolved -> resolving -> resolved(value|error).
type ResultState uint8

const (
	ResultUnset ResultState = iota
	ResultResolving
	ResultValue
	ResultError
	ResultMatrix
)

// Cell is one grid position. Exactly one of the Kind-tagged fields is
// meaningful at a time.
type Cell struct {
	Kind Kind

	Num     float64
	Bool    bool
	StrID   uint32
	Err     token.ErrorCode
	Formula *FormulaCell
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool { return c.Kind == KindEmpty }

// resultSlot is a formula's published result: either a scalar
// (value or error) or, for a grouped formula, a matrix indexed by
// offset from the group's anchor position. Every member of a group
// shares the same *resultSlot, so the interpreter evaluates the
// anchor once and every member observes the shared publish.
type resultSlot struct {
	mu         sync.Mutex
	state      ResultState
	resultKind Kind
	num        float64
	boolv      bool
	strID      uint32
	err        token.ErrorCode
	matrix     [][]Cell
}

// FormulaCell is a cell whose value is computed by evaluating a
// token stream. A rectangular range of grouped positions shares one
// token.Store and one resultSlot; each position still owns its own
// FormulaCell struct so that per-cell bookkeeping (Position, dirty,
// interpreted, circular-safe) is independent even though the tokens
// and the published result are shared.
type FormulaCell struct {
	Store *token.Store
	slot  *resultSlot

	// Position is this specific cell's absolute address. For a
	// standalone formula Position == Store.Origin; for a grouped
	// member it is the member's own address, whose offset from
	// GroupAnchor selects the member's element of the group's matrix
	// result (the group itself is evaluated once, at GroupAnchor).
	Position address.Address

	// GroupAnchor and GroupBounds are set only for grouped formulas:
	// GroupAnchor is the top-left position of the group (== Store.Origin)
	// and GroupBounds is the group's full rectangle, which sizes the
	// published matrix. Overwriting a member does not change the
	// surviving members' anchor or bounds.
	Grouped     bool
	GroupAnchor address.Address
	GroupBounds address.Range

	Dirty        bool
	Interpreted  bool
	CircularSafe bool
}

// NewFormulaCell creates an unresolved, dirty standalone formula cell
// at pos, with its own private result slot.
func NewFormulaCell(store *token.Store, pos address.Address) *FormulaCell {
	return &FormulaCell{Store: store, Position: pos, Dirty: true, slot: &resultSlot{}}
}

// NewGroupMember creates a formula cell at pos that shares slot with
// the rest of its group (pass the anchor's slot for every member,
// including the anchor itself).
func NewGroupMember(store *token.Store, pos, anchor address.Address, bounds address.Range, slot *resultSlot) *FormulaCell {
	return &FormulaCell{
		Store: store, Position: pos, Dirty: true, slot: slot,
		Grouped: true, GroupAnchor: anchor, GroupBounds: bounds,
	}
}

// State returns the current result state under the slot's lock,
// giving dependents an acquire of whatever the last publisher wrote.
func (f *FormulaCell) State() ResultState {
	f.slot.mu.Lock()
	defer f.slot.mu.Unlock()
	return f.slot.state
}

// BeginResolving transitions unresolved -> resolving and reports
// whether the transition happened (false means some other state was
// already current — a concurrent re-entry, which 4.6 treats as a
// cycle unless it is the same worker finishing its own evaluation).
// For a grouped formula only the first member to reach this call
// actually flips the shared slot; the rest observe ResultResolving
// and skip re-evaluating the group.
func (f *FormulaCell) BeginResolving() bool {
	f.slot.mu.Lock()
	defer f.slot.mu.Unlock()
	if f.slot.state != ResultUnset {
		return false
	}
	f.slot.state = ResultResolving
	return true
}

// PublishValue stores a scalar result and flips the state to
// resolved, releasing the slot for dependents' acquire reads.
func (f *FormulaCell) PublishValue(kind Kind, num float64, boolv bool, strID uint32) {
	f.slot.mu.Lock()
	defer f.slot.mu.Unlock()
	f.slot.state = ResultValue
	f.slot.resultKind = kind
	f.slot.num, f.slot.boolv, f.slot.strID = num, boolv, strID
	f.Dirty = false
	f.Interpreted = true
}

// PublishError stores an error result (including circular-ref, which
// is assigned directly without invoking the interpreter).
func (f *FormulaCell) PublishError(err token.ErrorCode) {
	f.slot.mu.Lock()
	defer f.slot.mu.Unlock()
	f.slot.state = ResultError
	f.slot.err = err
	f.Dirty = false
	f.Interpreted = true
}

// PublishMatrix stores a matrix result on the group's shared slot;
// every member (including the one that called this) reads its own
// element back out through MatrixAt.
func (f *FormulaCell) PublishMatrix(m [][]Cell) {
	f.slot.mu.Lock()
	defer f.slot.mu.Unlock()
	f.slot.state = ResultMatrix
	f.slot.matrix = m
	f.Dirty = false
	f.Interpreted = true
}

// Snapshot returns a read-only copy of the result slot's contents.
func (f *FormulaCell) Snapshot() (ResultState, Kind, float64, bool, uint32, token.ErrorCode) {
	f.slot.mu.Lock()
	defer f.slot.mu.Unlock()
	return f.slot.state, f.slot.resultKind, f.slot.num, f.slot.boolv, f.slot.strID, f.slot.err
}

// MatrixAt returns the matrix element at (row, col) relative to the
// group anchor, for a resolved matrix result.
func (f *FormulaCell) MatrixAt(row, col int) (Cell, bool) {
	f.slot.mu.Lock()
	defer f.slot.mu.Unlock()
	if f.slot.state != ResultMatrix || row < 0 || row >= len(f.slot.matrix) {
		return Cell{}, false
	}
	r := f.slot.matrix[row]
	if col < 0 || col >= len(r) {
		return Cell{}, false
	}
	return r[col], true
}

// MarkDirty flips the shared slot back to unresolved so the whole
// group will be recalculated on the next run.
func (f *FormulaCell) MarkDirty() {
	f.slot.mu.Lock()
	defer f.slot.mu.Unlock()
	f.slot.state = ResultUnset
	f.Dirty = true
}
