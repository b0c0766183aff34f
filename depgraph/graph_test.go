package depgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vogtb/calcengine/address"
)

func a(sheet, row, col int32) address.Address { return address.Address{Sheet: sheet, Row: row, Col: col} }

func TestRegisterAndQueryDirectCellListener(t *testing.T) {
	g := New()
	b2 := a(0, 1, 1)
	a1 := a(0, 0, 0)

	g.Register(b2, []address.Address{a1}, nil)

	require.ElementsMatch(t, []address.Address{b2}, g.QueryListeners(a1))
	require.Empty(t, g.QueryListeners(a(0, 5, 5)))
}

func TestRegisterAndQueryRangeListener(t *testing.T) {
	g := New()
	dependent := a(0, 10, 0)
	rng := address.Range{First: a(0, 0, 0), Last: a(0, 5, 5)}

	g.Register(dependent, nil, []address.Range{rng})

	require.ElementsMatch(t, []address.Address{dependent}, g.QueryListeners(a(0, 3, 3)))
	require.Empty(t, g.QueryListeners(a(0, 6, 6)))
}

func TestReregisterReplacesPrecedents(t *testing.T) {
	g := New()
	dependent := a(0, 0, 2)
	g.Register(dependent, []address.Address{a(0, 0, 0)}, nil)
	g.Register(dependent, []address.Address{a(0, 0, 1)}, nil)

	require.Empty(t, g.QueryListeners(a(0, 0, 0)))
	require.ElementsMatch(t, []address.Address{dependent}, g.QueryListeners(a(0, 0, 1)))
}

func TestUnregisterUnknownCellIsNoOp(t *testing.T) {
	g := New()
	require.NotPanics(t, func() { g.Unregister(a(0, 9, 9)) })
	require.False(t, g.Has(a(0, 9, 9)))
}

func TestUnregisterRemovesAllEdges(t *testing.T) {
	g := New()
	dependent := a(0, 0, 2)
	rng := address.Range{First: a(0, 0, 0), Last: a(0, 1, 1)}
	g.Register(dependent, []address.Address{a(0, 5, 5)}, []address.Range{rng})

	g.Unregister(dependent)

	require.False(t, g.Has(dependent))
	require.Empty(t, g.QueryListeners(a(0, 5, 5)))
	require.Empty(t, g.QueryListeners(a(0, 0, 0)))
}

func TestQueryListenersDedupesCellAndRangeHit(t *testing.T) {
	g := New()
	dependent := a(0, 10, 10)
	rng := address.Range{First: a(0, 0, 0), Last: a(0, 5, 5)}
	g.Register(dependent, []address.Address{a(0, 2, 2)}, []address.Range{rng})

	listeners := g.QueryListeners(a(0, 2, 2))
	require.Len(t, listeners, 1)
	require.Equal(t, dependent, listeners[0])
}

func TestRemoveListenersInDropsIntersectingRangePrecedents(t *testing.T) {
	g := New()
	dependent := a(0, 10, 0)
	rng := address.Range{First: a(0, 0, 0), Last: a(0, 5, 5)}
	g.Register(dependent, nil, []address.Range{rng})

	g.RemoveListenersIn(0, address.Range{First: a(0, 3, 3), Last: a(0, 20, 20)})

	require.Empty(t, g.QueryListeners(a(0, 2, 2)))
	cells, ranges := g.Precedents(dependent)
	require.Empty(t, cells)
	require.Empty(t, ranges)
}

func TestPrecedentsReturnsDirectEdges(t *testing.T) {
	g := New()
	dependent := a(0, 0, 2)
	g.Register(dependent, []address.Address{a(0, 0, 0), a(0, 0, 1)}, nil)

	cells, ranges := g.Precedents(dependent)
	require.ElementsMatch(t, []address.Address{a(0, 0, 0), a(0, 0, 1)}, cells)
	require.Empty(t, ranges)
}

func TestVolatileSetTracksMembership(t *testing.T) {
	v := NewVolatileSet()
	v.Mark(a(0, 0, 0))
	v.Mark(a(0, 1, 1))
	require.ElementsMatch(t, []address.Address{a(0, 0, 0), a(0, 1, 1)}, v.All())

	v.Unmark(a(0, 0, 0))
	require.ElementsMatch(t, []address.Address{a(0, 1, 1)}, v.All())
}
