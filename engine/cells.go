package engine

import (
	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/cellstore"
	"github.com/vogtb/calcengine/formula"
)

func (e *Engine) checkAddr(addr address.Address) error {
	if !addr.IsValid() {
		return newModelError(InvalidAddress, "engine: invalid address %s", addr)
	}
	e.mu.RLock()
	ok := e.sheetExistsLocked(addr.Sheet)
	e.mu.RUnlock()
	if !ok {
		return newModelError(UnknownSheet, "engine: unknown sheet %d", addr.Sheet)
	}
	return nil
}

// SetNumericCell writes a numeric literal at addr.
func (e *Engine) SetNumericCell(addr address.Address, v float64) error {
	if err := e.checkAddr(addr); err != nil {
		return err
	}
	e.store.SetNumeric(addr, v)
	return nil
}

// SetBooleanCell writes a boolean literal at addr.
func (e *Engine) SetBooleanCell(addr address.Address, v bool) error {
	if err := e.checkAddr(addr); err != nil {
		return err
	}
	e.store.SetBoolean(addr, v)
	return nil
}

// SetStringCell writes a string literal at addr.
func (e *Engine) SetStringCell(addr address.Address, v string) error {
	if err := e.checkAddr(addr); err != nil {
		return err
	}
	e.store.SetString(addr, v)
	return nil
}

// SetEmptyCell clears addr. The caller must have unregistered any
// formula previously installed there first.
func (e *Engine) SetEmptyCell(addr address.Address) error {
	if err := e.checkAddr(addr); err != nil {
		return err
	}
	e.store.SetEmpty(addr)
	return nil
}

// SetFormulaCell compiles src and installs a standalone formula cell
// at addr, returning its handle without registering it in the
// dependency graph — the caller calls RegisterFormulaCell separately,
// per the façade's two-step install/register contract.
func (e *Engine) SetFormulaCell(addr address.Address, src string) (*cellstore.FormulaCell, error) {
	if err := e.checkAddr(addr); err != nil {
		return nil, err
	}
	store, err := formula.Compile(src, compileCtx{e: e, origin: addr})
	if err != nil {
		return nil, err
	}
	return e.store.SetFormula(addr, store), nil
}

// SetGroupedFormulaCell compiles src once against rng's anchor and
// installs it across every position in rng, sharing one token store
// and one matrix result slot. As with SetFormulaCell, nothing is
// registered in the dependency graph yet — the caller must call
// RegisterFormulaCell for every returned cell's position, not just
// the anchor's, so the group stays reachable for recalculation even
// after one member (anchor included) is later overwritten.
func (e *Engine) SetGroupedFormulaCell(rng address.Range, src string) ([]*cellstore.FormulaCell, error) {
	if err := e.checkAddr(rng.First); err != nil {
		return nil, err
	}
	store, err := formula.Compile(src, compileCtx{e: e, origin: rng.First})
	if err != nil {
		return nil, err
	}
	return e.store.SetGroupedFormula(rng, store), nil
}

// FillDown copies addr into the n cells below it, per cellstore's
// FillDown contract.
func (e *Engine) FillDown(addr address.Address, n int32) error {
	if err := e.checkAddr(addr); err != nil {
		return err
	}
	return e.store.FillDown(addr, n, e.registry.IsVolatile)
}

// RegisterFormulaCell records addr's refs in the dependency graph and
// the volatile-cell tracker, from the formula cell already installed
// at addr. Calling this twice for the same cell (same tokens, same
// position) is equivalent to calling it once — Graph.Register always
// replaces a dependent's prior edges, so re-registering is a no-op in
// effect rather than a duplicate.
//
// For a grouped formula, refs are extracted relative to the group's
// anchor (fc.GroupAnchor), not addr itself — every member shares the
// same token stream resolved against that fixed origin, so every
// member has identical precedents regardless of which position is
// being registered. Callers installing a group should register every
// member this way, so the group survives any single member (anchor
// included) later being overwritten.
func (e *Engine) RegisterFormulaCell(addr address.Address) error {
	fc, ok := e.store.FormulaCellAt(addr)
	if !ok {
		return newModelError(FormulaCellNotFound, "engine: no formula cell at %s", addr)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	origin := fc.Position
	if fc.Grouped {
		origin = fc.GroupAnchor
	}
	cells, ranges := extractRefs(fc.Store.Tokens, origin, e.resolveNameLocked(addr.Sheet))
	e.graph.Register(addr, cells, ranges)

	if fc.Store.IsVolatile() {
		e.volatile.Mark(addr)
	} else {
		e.volatile.Unmark(addr)
	}
	return nil
}

// UnregisterFormulaCell removes addr's listener entries. Per the
// Open Question resolution (spec 9), unregistering a cell that was
// never registered is an error rather than a silent no-op.
func (e *Engine) UnregisterFormulaCell(addr address.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.graph.Has(addr) {
		return newModelError(FormulaCellNotRegistered, "engine: formula cell at %s is not registered", addr)
	}
	e.graph.Unregister(addr)
	e.volatile.Unmark(addr)
	return nil
}

// resolveNameLocked returns a name resolver scoped to sheet, for use
// while e.mu is already held (extractRefs needs resolution but must
// not re-acquire the lock).
func (e *Engine) resolveNameLocked(sheet int32) func(string) (address.Range, bool) {
	return func(name string) (address.Range, bool) {
		if sheetScope, ok := e.sheetNamed[sheet]; ok {
			if ne, ok := sheetScope[name]; ok {
				return ne.rng, true
			}
		}
		if ne, ok := e.globalNamed[name]; ok {
			return ne.rng, true
		}
		return address.Range{}, false
	}
}
