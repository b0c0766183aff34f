package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/depgraph"
)

func a(sheet, row, col int32) address.Address { return address.Address{Sheet: sheet, Row: row, Col: col} }

func indexOf(t *testing.T, order []address.Address, addr address.Address) int {
	t.Helper()
	for i, o := range order {
		if o == addr {
			return i
		}
	}
	t.Fatalf("%v not found in order %v", addr, order)
	return -1
}

func TestResolveDirtySetTransitiveClosure(t *testing.T) {
	g := depgraph.New()
	b1 := a(0, 1, 0)
	c1 := a(0, 2, 0)
	d1 := a(0, 3, 0)
	a1 := a(0, 0, 0)

	g.Register(b1, []address.Address{a1}, nil)
	g.Register(c1, []address.Address{b1}, nil)
	g.Register(d1, nil, nil) // unrelated

	got := ResolveDirtySet(g, []address.Address{a1}, nil)
	require.ElementsMatch(t, []address.Address{b1, c1}, got)
}

func TestScheduleOrdersPrecedentsBeforeDependents(t *testing.T) {
	g := depgraph.New()
	a1 := a(0, 0, 0)
	b1 := a(0, 1, 0)
	c1 := a(0, 2, 0)

	g.Register(b1, []address.Address{a1}, nil)
	g.Register(c1, []address.Address{b1}, nil)

	result := Schedule(g, g, []address.Address{a1}, nil)
	require.Empty(t, result.Cyclic)
	require.Less(t, indexOf(t, result.Order, b1), indexOf(t, result.Order, c1))
}

func TestScheduleDetectsDirectCycle(t *testing.T) {
	g := depgraph.New()
	a1 := a(0, 0, 0)
	b1 := a(0, 1, 0)
	g.Register(a1, []address.Address{b1}, nil)
	g.Register(b1, []address.Address{a1}, nil)

	result := Schedule(g, g, nil, []address.Address{a1, b1})
	require.True(t, result.Cyclic[a1])
	require.True(t, result.Cyclic[b1])
}

func TestScheduleSelfReferenceIsACycle(t *testing.T) {
	g := depgraph.New()
	a1 := a(0, 0, 0)
	g.Register(a1, []address.Address{a1}, nil)

	result := Schedule(g, g, nil, []address.Address{a1})
	require.True(t, result.Cyclic[a1])
}

func TestScheduleRangePrecedentOutsideDirtySetStillSchedules(t *testing.T) {
	g := depgraph.New()
	a1 := a(0, 0, 0)
	a2 := a(0, 1, 0)
	sum := a(0, 5, 0)
	rng := address.Range{First: a(0, 0, 0), Last: a(0, 1, 0)}

	g.Register(sum, nil, []address.Range{rng})

	result := Schedule(g, g, []address.Address{a1, a2}, []address.Address{sum})
	// sum must come after whichever of a1/a2 are in the dirty set —
	// here neither a1 nor a2 is itself a formula so they aren't part
	// of the dirty set; sum has no in-set precedent and should just
	// appear in the order on its own.
	require.Contains(t, result.Order, sum)
	require.Empty(t, result.Cyclic)
}

func TestScheduleUnrelatedCellsAreIndependentOfOrder(t *testing.T) {
	g := depgraph.New()
	x := a(0, 0, 0)
	y := a(0, 1, 0)

	result := Schedule(g, g, nil, []address.Address{x, y})
	require.ElementsMatch(t, []address.Address{x, y}, result.Order)
}
