package cellstore

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/token"
)

func addr(sheet, row, col int32) address.Address {
	return address.Address{Sheet: sheet, Row: row, Col: col}
}

func TestSetAndGetLiterals(t *testing.T) {
	s := New(token.NewPool())

	s.SetNumeric(addr(0, 0, 0), 42)
	s.SetString(addr(0, 0, 1), "hello")
	s.SetBoolean(addr(0, 0, 2), true)

	require.Equal(t, CellAccess{Type: ValueNumber, Num: 42}, s.GetCellAccess(addr(0, 0, 0)))
	require.Equal(t, CellAccess{Type: ValueString, Str: "hello"}, s.GetCellAccess(addr(0, 0, 1)))
	require.Equal(t, CellAccess{Type: ValueBoolean, Bool: true}, s.GetCellAccess(addr(0, 0, 2)))
	require.True(t, s.GetCellAccess(addr(0, 99, 99)).IsEmpty())
}

func TestSetEmptyClearsCell(t *testing.T) {
	s := New(token.NewPool())
	s.SetNumeric(addr(0, 5, 5), 1)
	s.SetEmpty(addr(0, 5, 5))
	require.True(t, s.GetCellAccess(addr(0, 5, 5)).IsEmpty())
}

func TestColumnRunSplittingAndMerging(t *testing.T) {
	s := New(token.NewPool())
	// Build a column with a gap, then fill the gap, then split it
	// back out by clearing the middle.
	for _, row := range []int32{0, 1, 3, 4} {
		s.SetNumeric(addr(0, row, 0), float64(row))
	}
	sh := s.sheets[0]
	require.Len(t, sh.columns[0].runs, 2)

	s.SetNumeric(addr(0, 2, 0), 2)
	require.Len(t, sh.columns[0].runs, 1)

	s.SetEmpty(addr(0, 2, 0))
	require.Len(t, sh.columns[0].runs, 2)

	for _, row := range []int32{0, 1, 3, 4} {
		require.Equal(t, float64(row), s.GetCellAccess(addr(0, row, 0)).Num)
	}
	require.True(t, s.GetCellAccess(addr(0, 2, 0)).IsEmpty())
}

func TestGetDataRangeTracksOccupiedBounds(t *testing.T) {
	s := New(token.NewPool())
	_, ok := s.GetDataRange(0)
	require.False(t, ok)

	s.SetNumeric(addr(0, 10, 2), 1)
	s.SetNumeric(addr(0, 2, 10), 1)

	rng, ok := s.GetDataRange(0)
	require.True(t, ok)
	require.Equal(t, int32(2), rng.First.Row)
	require.Equal(t, int32(2), rng.First.Col)
	require.Equal(t, int32(10), rng.Last.Row)
	require.Equal(t, int32(10), rng.Last.Col)
}

func TestFormulaCellResultSlotLifecycle(t *testing.T) {
	pool := token.NewPool()
	s := New(pool)

	store := token.NewStore(nil, addr(0, 0, 0), nil)
	fc := s.SetFormula(addr(0, 0, 0), store)

	require.Equal(t, ResultUnset, fc.State())
	require.True(t, s.GetCellAccess(addr(0, 0, 0)).Unresolved)

	require.True(t, fc.BeginResolving())
	require.False(t, fc.BeginResolving())

	fc.PublishValue(KindNumber, 7, false, 0)
	require.Equal(t, CellAccess{Type: ValueNumber, Num: 7}, s.GetCellAccess(addr(0, 0, 0)))

	fc.MarkDirty()
	require.True(t, s.GetCellAccess(addr(0, 0, 0)).Unresolved)
}

func TestFormulaCellPublishError(t *testing.T) {
	s := New(token.NewPool())
	store := token.NewStore(nil, addr(0, 1, 1), nil)
	fc := s.SetFormula(addr(0, 1, 1), store)

	fc.PublishError(token.ErrDiv0)
	got := s.GetCellAccess(addr(0, 1, 1))
	require.Equal(t, ValueError, got.Type)
	require.Equal(t, token.ErrDiv0, got.ErrCode)
}

func TestGroupedFormulaSharesStoreAndResolvesPerPosition(t *testing.T) {
	s := New(token.NewPool())
	rng := address.Range{First: addr(0, 0, 0), Last: addr(0, 1, 1)}
	store := token.NewStore(nil, rng.First, nil)

	cells := s.SetGroupedFormula(rng, store)
	require.Len(t, cells, 4)
	require.EqualValues(t, 4, store.RefCount())

	matrix := [][]Cell{
		{{Kind: KindNumber, Num: 1}, {Kind: KindNumber, Num: 2}},
		{{Kind: KindNumber, Num: 3}, {Kind: KindNumber, Num: 4}},
	}
	// Publishing through any one member publishes to the whole group:
	// they all share the same result slot.
	cells[0].PublishMatrix(matrix)

	require.Equal(t, CellAccess{Type: ValueNumber, Num: 1}, s.GetCellAccess(addr(0, 0, 0)))
	require.Equal(t, CellAccess{Type: ValueNumber, Num: 2}, s.GetCellAccess(addr(0, 0, 1)))
	require.Equal(t, CellAccess{Type: ValueNumber, Num: 3}, s.GetCellAccess(addr(0, 1, 0)))
	require.Equal(t, CellAccess{Type: ValueNumber, Num: 4}, s.GetCellAccess(addr(0, 1, 1)))
}

func TestOverwritingGroupMemberReleasesSharedStore(t *testing.T) {
	s := New(token.NewPool())
	rng := address.Range{First: addr(0, 0, 0), Last: addr(0, 0, 1)}
	store := token.NewStore(nil, rng.First, nil)
	s.SetGroupedFormula(rng, store)
	require.EqualValues(t, 2, store.RefCount())

	s.SetNumeric(addr(0, 0, 1), 99)
	require.EqualValues(t, 1, store.RefCount())
	require.Equal(t, CellAccess{Type: ValueNumber, Num: 99}, s.GetCellAccess(addr(0, 0, 1)))
}

func TestFillDownClonesFormulaWithShiftedOrigin(t *testing.T) {
	s := New(token.NewPool())
	origin := addr(0, 0, 0)
	store := token.NewStore([]token.Token{{Op: token.OpSingleRef}}, origin, nil)
	s.SetFormula(origin, store)

	require.NoError(t, s.FillDown(origin, 2, nil))

	for _, row := range []int32{1, 2} {
		access := s.GetCellAccess(addr(0, row, 0))
		require.True(t, access.Unresolved)
	}

	sh := s.sheets[0]
	clone := sh.columns[0].get(1)
	require.Equal(t, address.Address{Sheet: 0, Row: 1, Col: 0}, clone.Formula.Store.Origin)
	require.NotSame(t, store, clone.Formula.Store)
}

func TestFillDownCopiesLiteralValues(t *testing.T) {
	s := New(token.NewPool())
	s.SetNumeric(addr(0, 0, 0), 5)
	require.NoError(t, s.FillDown(addr(0, 0, 0), 3, nil))

	for row := int32(1); row <= 3; row++ {
		require.Equal(t, float64(5), s.GetCellAccess(addr(0, row, 0)).Num)
	}
}

func TestFormulaCellAtFindsInstalledFormulaOnly(t *testing.T) {
	s := New(token.NewPool())
	store := token.NewStore(nil, addr(0, 2, 2), nil)
	s.SetFormula(addr(0, 2, 2), store)
	s.SetNumeric(addr(0, 3, 3), 1)

	fc, ok := s.FormulaCellAt(addr(0, 2, 2))
	require.True(t, ok)
	require.Equal(t, addr(0, 2, 2), fc.Position)

	_, ok = s.FormulaCellAt(addr(0, 3, 3))
	require.False(t, ok)

	_, ok = s.FormulaCellAt(addr(0, 9, 9))
	require.False(t, ok)
}

func TestModelIteratorOrdering(t *testing.T) {
	s := New(token.NewPool())
	s.SetNumeric(addr(0, 0, 0), 1)
	s.SetNumeric(addr(0, 0, 1), 2)
	s.SetNumeric(addr(0, 1, 0), 3)
	// (0,1,1) is left unset: the iterator must still visit it, yielding
	// an empty CellAccess rather than skipping the position.

	rng := address.Range{First: addr(0, 0, 0), Last: addr(0, 1, 1)}

	var rowOrder []address.Address
	var rowAccess []CellAccess
	for p := range s.ModelIterator(rng, RowMajor) {
		rowOrder = append(rowOrder, p.Addr)
		rowAccess = append(rowAccess, p.Access)
	}
	require.Equal(t, []address.Address{addr(0, 0, 0), addr(0, 0, 1), addr(0, 1, 0), addr(0, 1, 1)}, rowOrder)
	require.True(t, rowAccess[3].IsEmpty())

	var colOrder []address.Address
	for p := range s.ModelIterator(rng, ColumnMajor) {
		colOrder = append(colOrder, p.Addr)
	}
	require.Equal(t, []address.Address{addr(0, 0, 0), addr(0, 1, 0), addr(0, 0, 1), addr(0, 1, 1)}, colOrder)
}

func TestModelIteratorEarlyStop(t *testing.T) {
	s := New(token.NewPool())
	s.SetNumeric(addr(0, 0, 0), 1)
	s.SetNumeric(addr(0, 0, 1), 2)
	s.SetNumeric(addr(0, 0, 2), 3)

	rng := address.Range{First: addr(0, 0, 0), Last: addr(0, 0, 2)}
	count := 0
	for range s.ModelIterator(rng, RowMajor) {
		count++
		if count == 1 {
			break
		}
	}
	require.Equal(t, 1, count)
}
