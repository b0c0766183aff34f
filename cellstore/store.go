package cellstore

import (
	"fmt"
	"sync"

	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/token"
)

// sheet is one worksheet's grid: a sparse map of occupied columns,
// each itself run-length compressed by row.
type sheet struct {
	columns map[int32]*column
}

func newSheet() *sheet { return &sheet{columns: map[int32]*column{}} }

func (sh *sheet) col(c int32, create bool) *column {
	col, ok := sh.columns[c]
	if !ok {
		if !create {
			return nil
		}
		col = &column{}
		sh.columns[c] = col
	}
	return col
}

// Store is the concurrently-readable grid of every sheet's cells. A
// single RWMutex guards cell identity and shape (which positions hold
// which kind of value); formula result slots publish through their
// own per-cell lock (see FormulaCell) so workers writing only results
// during a calculation run never contend on this mutex beyond the
// brief read-locked lookups of the cells they evaluate or read.
type Store struct {
	mu     sync.RWMutex
	sheets map[int32]*sheet
	pool   *token.Pool
}

// New creates an empty store backed by pool for string interning.
func New(pool *token.Pool) *Store {
	return &Store{sheets: map[int32]*sheet{}, pool: pool}
}

// EnsureSheet registers sheetID if it is not already present.
func (s *Store) EnsureSheet(sheetID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureSheetLocked(sheetID)
}

func (s *Store) ensureSheetLocked(sheetID int32) *sheet {
	sh, ok := s.sheets[sheetID]
	if !ok {
		sh = newSheet()
		s.sheets[sheetID] = sh
	}
	return sh
}

// SetNumeric writes a numeric literal at addr, replacing any prior
// content (including dissociating a formula group member — see
// dissociateIfGrouped).
func (s *Store) SetNumeric(addr address.Address, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh := s.ensureSheetLocked(addr.Sheet)
	s.dissociateIfGroupedLocked(sh, addr)
	sh.col(addr.Col, true).set(addr.Row, Cell{Kind: KindNumber, Num: v})
}

// SetBoolean writes a boolean literal at addr.
func (s *Store) SetBoolean(addr address.Address, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh := s.ensureSheetLocked(addr.Sheet)
	s.dissociateIfGroupedLocked(sh, addr)
	sh.col(addr.Col, true).set(addr.Row, Cell{Kind: KindBoolean, Bool: v})
}

// SetString interns v and writes a string literal at addr.
func (s *Store) SetString(addr address.Address, v string) {
	id := s.pool.Intern(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	sh := s.ensureSheetLocked(addr.Sheet)
	s.dissociateIfGroupedLocked(sh, addr)
	sh.col(addr.Col, true).set(addr.Row, Cell{Kind: KindString, StrID: id})
}

// SetEmpty clears addr.
func (s *Store) SetEmpty(addr address.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh := s.ensureSheetLocked(addr.Sheet)
	s.dissociateIfGroupedLocked(sh, addr)
	col := sh.col(addr.Col, false)
	if col != nil {
		col.clear(addr.Row)
	}
}

// SetFormula installs a standalone formula cell at addr owning store.
// store.Origin must equal addr.
func (s *Store) SetFormula(addr address.Address, store *token.Store) *FormulaCell {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh := s.ensureSheetLocked(addr.Sheet)
	s.dissociateIfGroupedLocked(sh, addr)
	fc := NewFormulaCell(store, addr)
	sh.col(addr.Col, true).set(addr.Row, Cell{Kind: KindFormula, Formula: fc})
	return fc
}

// SetGroupedFormula installs one shared token.Store across every
// position in rng, each with its own FormulaCell and all sharing one
// result slot. The store's Origin is rng.First (the anchor); the group
// is evaluated once with relative references resolved against the
// anchor, and each member reads its element of the resulting matrix
// at its own offset from the anchor.
func (s *Store) SetGroupedFormula(rng address.Range, store *token.Store) []*FormulaCell {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := rng.Rows()
	cols := rng.Cols()
	cells := make([]*FormulaCell, 0, int(rows)*int(cols))
	slot := &resultSlot{}

	for r := int32(0); r < rows; r++ {
		for c := int32(0); c < cols; c++ {
			pos := address.Address{Sheet: rng.First.Sheet, Row: rng.First.Row + r, Col: rng.First.Col + c}
			sh := s.ensureSheetLocked(pos.Sheet)
			s.dissociateIfGroupedLocked(sh, pos)

			fc := NewGroupMember(store, pos, rng.First, rng, slot)
			if pos != rng.First {
				store.Retain()
			}
			sh.col(pos.Col, true).set(pos.Row, Cell{Kind: KindFormula, Formula: fc})
			cells = append(cells, fc)
		}
	}
	return cells
}

// dissociateIfGroupedLocked handles overwriting one member of a
// formula group: per 9's resolution of the open question, the
// remaining members keep their shared store (and its ref count drops
// by one) and stay grouped under their original anchor and bounds —
// the overwritten position simply stops being one of them.
//
// GroupAnchor never moves (it is the fixed origin every member's
// relative references are resolved against; changing it would shift
// what the shared formula actually computes), and GroupBounds is
// left at the rectangle's original extent rather than shrunk to the
// surviving positions: publishGroup sizes the matrix it builds from
// GroupBounds, so shrinking it would desync that size from the
// shared formula's still-unchanged evaluated shape. A survivor simply
// reads its own (row, col) offset out of the full matrix and ignores
// the slot the departed member used to occupy.
//
// The one thing that does need to survive an overwrite is
// reachability: only a position actually registered in the
// dependency graph is ever scheduled and dispatched, so the caller
// (engine.RegisterFormulaCell) registers every member of a group, not
// just its anchor, when the group is installed. Losing any single
// member — anchor included — then still leaves the rest independently
// reachable for future recalculation.
func (s *Store) dissociateIfGroupedLocked(sh *sheet, addr address.Address) {
	col := sh.col(addr.Col, false)
	if col == nil {
		return
	}
	cell := col.get(addr.Row)
	if cell.Kind != KindFormula || !cell.Formula.Grouped {
		return
	}
	cell.Formula.Store.Release()
}

// GetCellAccess returns the public, read-only view of addr's value:
// for a formula cell this is its current result, not its formula.
func (s *Store) GetCellAccess(addr address.Address) CellAccess {
	s.mu.RLock()
	sh, ok := s.sheets[addr.Sheet]
	if !ok {
		s.mu.RUnlock()
		return CellAccess{Type: ValueEmpty}
	}
	col := sh.col(addr.Col, false)
	if col == nil {
		s.mu.RUnlock()
		return CellAccess{Type: ValueEmpty}
	}
	cell := col.get(addr.Row)
	s.mu.RUnlock()

	return s.access(cell)
}

func (s *Store) access(cell Cell) CellAccess {
	switch cell.Kind {
	case KindEmpty:
		return CellAccess{Type: ValueEmpty}
	case KindNumber:
		return CellAccess{Type: ValueNumber, Num: cell.Num}
	case KindBoolean:
		return CellAccess{Type: ValueBoolean, Bool: cell.Bool}
	case KindString:
		str, _ := s.pool.String(cell.StrID)
		return CellAccess{Type: ValueString, Str: str}
	case KindError:
		return CellAccess{Type: ValueError, ErrCode: cell.Err}
	case KindFormula:
		return s.accessFormula(cell.Formula)
	default:
		return CellAccess{Type: ValueEmpty}
	}
}

func (s *Store) accessFormula(fc *FormulaCell) CellAccess {
	if fc.Grouped {
		dr := fc.Position.Row - fc.GroupAnchor.Row
		dc := fc.Position.Col - fc.GroupAnchor.Col
		if cell, ok := fc.MatrixAt(int(dr), int(dc)); ok {
			return s.access(cell)
		}
	}
	state, kind, num, boolv, strID, err := fc.Snapshot()
	switch state {
	case ResultValue:
		switch kind {
		case KindNumber:
			return CellAccess{Type: ValueNumber, Num: num}
		case KindBoolean:
			return CellAccess{Type: ValueBoolean, Bool: boolv}
		case KindString:
			str, _ := s.pool.String(strID)
			return CellAccess{Type: ValueString, Str: str}
		}
		return CellAccess{Type: ValueEmpty}
	case ResultError:
		return CellAccess{Type: ValueError, ErrCode: err}
	default:
		return CellAccess{Type: ValueEmpty, Unresolved: true}
	}
}

// FormulaCellAt returns the formula cell installed at addr, if any —
// the lookup the executor uses to resolve a scheduled address to the
// result slot it should publish into.
func (s *Store) FormulaCellAt(addr address.Address) (*FormulaCell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.sheets[addr.Sheet]
	if !ok {
		return nil, false
	}
	col := sh.col(addr.Col, false)
	if col == nil {
		return nil, false
	}
	cell := col.get(addr.Row)
	if cell.Kind != KindFormula {
		return nil, false
	}
	return cell.Formula, true
}

// GetDataRange returns the smallest range covering every non-empty
// cell in sheetID, or ok=false if the sheet is empty.
func (s *Store) GetDataRange(sheetID int32) (address.Range, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.sheets[sheetID]
	if !ok {
		return address.Range{}, false
	}

	var minRow, maxRow, minCol, maxCol int32
	found := false
	for c, col := range sh.columns {
		lo, hi, ok := col.bounds()
		if !ok {
			continue
		}
		if !found {
			minRow, maxRow, minCol, maxCol = lo, hi, c, c
			found = true
			continue
		}
		if lo < minRow {
			minRow = lo
		}
		if hi > maxRow {
			maxRow = hi
		}
		if c < minCol {
			minCol = c
		}
		if c > maxCol {
			maxCol = c
		}
	}
	if !found {
		return address.Range{}, false
	}
	return address.Range{
		First: address.Address{Sheet: sheetID, Row: minRow, Col: minCol},
		Last:  address.Address{Sheet: sheetID, Row: maxRow, Col: maxCol},
	}, true
}

// FillDown copies the cell at addr into the n cells below it. Literal
// values are copied verbatim; a formula cell is cloned into n
// independent standalone formula cells, each with its own copy of the
// tokens anchored at its own row, so relative references shift exactly
// as they would if the formula had been retyped at each position.
func (s *Store) FillDown(addr address.Address, n int32, isVolatile token.VolatileLookup) error {
	if n <= 0 {
		return fmt.Errorf("cellstore: FillDown requires n > 0, got %d", n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sh := s.ensureSheetLocked(addr.Sheet)
	col := sh.col(addr.Col, false)
	var src Cell
	if col != nil {
		src = col.get(addr.Row)
	}

	for i := int32(1); i <= n; i++ {
		dst := address.Address{Sheet: addr.Sheet, Row: addr.Row + i, Col: addr.Col}
		dsh := s.ensureSheetLocked(dst.Sheet)
		s.dissociateIfGroupedLocked(dsh, dst)

		switch src.Kind {
		case KindEmpty:
			dsh.col(dst.Col, true).clear(dst.Row)
		case KindFormula:
			clone := token.NewStore(append([]token.Token(nil), src.Formula.Store.Tokens...), dst, isVolatile)
			fc := NewFormulaCell(clone, dst)
			dsh.col(dst.Col, true).set(dst.Row, Cell{Kind: KindFormula, Formula: fc})
		default:
			dsh.col(dst.Col, true).set(dst.Row, src)
		}
	}
	return nil
}
