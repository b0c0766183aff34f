package engine

import (
	"context"

	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/builtin"
	"github.com/vogtb/calcengine/cellstore"
	"github.com/vogtb/calcengine/executor"
	"github.com/vogtb/calcengine/interp"
	"github.com/vogtb/calcengine/scheduler"
)

// QueryAndSortDirtyCells computes the full dirty set reachable from
// changedCells (positions whose value just changed) and dirtyFormulas
// (cells to force-recompute), folds in every currently-volatile
// formula cell per spec 4.5 step 2, and returns the dependency-
// respecting order plus any cycle members — the batch
// CalculateSortedCells later runs.
func (e *Engine) QueryAndSortDirtyCells(changedCells, dirtyFormulas []address.Address) scheduler.Result {
	e.mu.RLock()
	volatile := e.volatile.All()
	e.mu.RUnlock()

	allDirty := make([]address.Address, 0, len(dirtyFormulas)+len(volatile))
	allDirty = append(allDirty, dirtyFormulas...)
	allDirty = append(allDirty, volatile...)

	return scheduler.Schedule(e.graph, e.graph, changedCells, allDirty)
}

// CalculateSortedCells runs result to completion against a worker
// pool sized to threadCount (0 for synchronous, on the caller's
// goroutine). The returned RunResult reports the run's correlation
// id and whether cancellation stopped it early.
func (e *Engine) CalculateSortedCells(ctx context.Context, result scheduler.Result, threadCount int, cancel *executor.Cancel) executor.RunResult {
	var opts []executor.Option
	if e.logger != nil {
		opts = append(opts, executor.WithLogger(e.logger))
	}
	pool := executor.New(threadCount, opts...)
	return pool.Run(ctx, result, e.graph, e.store, e, cancel)
}

// Evaluate runs fc's token stream, satisfying executor.Evaluator. The
// interp.Context passed to the interpreter is scoped to fc's own
// sheet, so a named expression reference resolves against that
// sheet's scope before falling back to the workbook-global scope.
func (e *Engine) Evaluate(fc *cellstore.FormulaCell, origin address.Address) builtin.Arg {
	ctx := scopedView{e: e, sheet: origin.Sheet}
	return interp.EvalArg(fc.Store.Tokens, origin, ctx, e.registry)
}

// InternString satisfies executor.Evaluator, used to publish a
// formula result that evaluated to a string.
func (e *Engine) InternString(s string) uint32 { return e.pool.Intern(s) }
