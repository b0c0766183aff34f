// Package executor runs a scheduler.Result against a worker pool:
// cycle members are pre-tagged with a circular-reference error before
// any dispatch, remaining cells are released to workers as their
// in-set precedents resolve, and the whole batch is a single barrier
// a caller can cancel cooperatively between cells.
package executor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/builtin"
	"github.com/vogtb/calcengine/cellstore"
	"github.com/vogtb/calcengine/interp"
	"github.com/vogtb/calcengine/scheduler"
	"github.com/vogtb/calcengine/token"
)

// Store resolves a scheduled address to the formula cell that owns
// it, satisfied by *cellstore.Store.
type Store interface {
	FormulaCellAt(addr address.Address) (*cellstore.FormulaCell, bool)
}

// Evaluator computes a formula cell's result and interns any string
// values that result needs a pool id for, satisfied by *engine.Engine
// over interp.EvalArg and its token.Pool.
type Evaluator interface {
	// Evaluate runs fc's token stream with origin as the relative-
	// reference resolution point (the cell's own position for a
	// standalone formula, the group's anchor for a grouped one).
	Evaluate(fc *cellstore.FormulaCell, origin address.Address) builtin.Arg
	InternString(s string) uint32
}

// RunResult identifies one calculate_sorted_cells batch and reports
// whether it ended early due to cancellation.
type RunResult struct {
	RunID     uuid.UUID
	Cancelled bool
}

// Cancel is a cooperative cancellation flag shared between a caller
// and an in-flight Run: workers observe it between cells, not mid-
// evaluation, matching spec 4.7's "in-flight interpretations complete
// but no further cells are dispatched."
type Cancel struct {
	flag atomic.Bool
}

// NewCancel returns a fresh, unset Cancel.
func NewCancel() *Cancel { return &Cancel{} }

// Request flags the cancellation.
func (c *Cancel) Request() { c.flag.Store(true) }

// Requested reports whether Request has been called.
func (c *Cancel) Requested() bool { return c.flag.Load() }

// Pool is a fixed worker pool. N == 0 runs synchronously on the
// caller's goroutine, matching spec 4.7's "N = 0 means synchronous
// execution on the caller's thread."
type Pool struct {
	n      int
	logger *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger attaches a structured logger for cycle-detection (Info)
// and per-cell evaluation (Debug) events. Optional; a nil Pool.logger logs nothing.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// New creates a pool with n workers (0 for synchronous).
func New(n int, opts ...Option) *Pool {
	p := &Pool{n: n}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type node struct {
	pending    int
	dependents []address.Address
}

// plan is the precomputed ready/blocked partition for one Run: every
// non-cyclic dirty-set member's remaining in-set precedent count and
// its dependents, plus the initial ready queue.
type plan struct {
	nodes    map[address.Address]*node
	total    int
	initial  []address.Address
}

func buildPlan(result scheduler.Result, precedents scheduler.PrecedentsProvider, store Store, runID uuid.UUID, logger *slog.Logger) plan {
	dirty := make(map[address.Address]struct{}, len(result.Order))
	for _, a := range result.Order {
		dirty[a] = struct{}{}
	}

	nodes := make(map[address.Address]*node, len(result.Order))
	for _, addr := range result.Order {
		if result.Cyclic[addr] {
			if fc, ok := store.FormulaCellAt(addr); ok {
				fc.PublishError(token.ErrCircular)
			}
			if logger != nil {
				logger.Info("cycle detected, assigned #CIRCULAR! without evaluating", "run", runID, "cell", addr.String())
			}
			continue
		}
		if fc, ok := store.FormulaCellAt(addr); ok {
			// Every address in the dirty set is here because it needs a
			// fresh result this run, including one already resolved from
			// a prior run — reset its slot so BeginResolving can claim it
			// again instead of silently skipping re-evaluation.
			fc.MarkDirty()
		}
		nodes[addr] = &node{}
	}

	var initial []address.Address
	for addr, n := range nodes {
		cells, ranges := precedents.Precedents(addr)
		seen := map[address.Address]struct{}{}
		link := func(pre address.Address) {
			if _, inSet := dirty[pre]; !inSet {
				return
			}
			if result.Cyclic[pre] {
				return // resolved with an error before dispatch began, never blocks
			}
			if _, dup := seen[pre]; dup {
				return
			}
			seen[pre] = struct{}{}
			n.pending++
			if pn, ok := nodes[pre]; ok {
				pn.dependents = append(pn.dependents, addr)
			}
		}
		for _, c := range cells {
			link(c)
		}
		for d := range dirty {
			for _, rng := range ranges {
				if rng.Contains(d) {
					link(d)
					break
				}
			}
		}
		if n.pending == 0 {
			initial = append(initial, addr)
		}
	}

	return plan{nodes: nodes, total: len(nodes), initial: initial}
}

// Run executes result's dirty set to completion (or until cancel is
// requested) against store, using eval to compute each cell's result
// and precedents to discover in-set scheduling edges. It blocks until
// every cell has been resolved or recorded an error, or cancellation
// stops further dispatch — the barrier spec 4.7 requires.
func (p *Pool) Run(ctx context.Context, result scheduler.Result, precedents scheduler.PrecedentsProvider, store Store, eval Evaluator, cancel *Cancel) RunResult {
	runID := uuid.New()
	if cancel == nil {
		cancel = NewCancel()
	}

	pl := buildPlan(result, precedents, store, runID, p.logger)
	if pl.total == 0 {
		return RunResult{RunID: runID, Cancelled: cancel.Requested()}
	}

	if p.n <= 0 {
		p.runSynchronous(runID, pl, store, eval, cancel)
		return RunResult{RunID: runID, Cancelled: cancel.Requested()}
	}

	p.runPooled(ctx, runID, pl, store, eval, cancel)
	return RunResult{RunID: runID, Cancelled: cancel.Requested()}
}

// runSynchronous drains the plan on the caller's goroutine with a
// plain slice queue — no channels or goroutines needed when N == 0.
func (p *Pool) runSynchronous(runID uuid.UUID, pl plan, store Store, eval Evaluator, cancel *Cancel) {
	queue := append([]address.Address(nil), pl.initial...)
	for len(queue) > 0 {
		addr := queue[0]
		queue = queue[1:]
		if cancel.Requested() {
			return
		}
		p.dispatch(runID, addr, store, eval, cancel)
		for _, dep := range pl.nodes[addr].dependents {
			dn := pl.nodes[dep]
			dn.pending--
			if dn.pending == 0 {
				queue = append(queue, dep)
			}
		}
	}
}

// runPooled fans the plan out across p.n workers via errgroup, each
// pulling from a shared ready channel sized to the whole batch so no
// worker ever blocks a producer from posting a newly-ready cell.
func (p *Pool) runPooled(ctx context.Context, runID uuid.UUID, pl plan, store Store, eval Evaluator, cancel *Cancel) {
	readyCh := make(chan address.Address, pl.total)
	for _, a := range pl.initial {
		readyCh <- a
	}

	var mu sync.Mutex
	completed := 0
	drain := make(chan struct{})
	var closeOnce sync.Once
	closeDrain := func() { closeOnce.Do(func() { close(drain) }) }

	runOne := func(addr address.Address) {
		p.dispatch(runID, addr, store, eval, cancel)

		mu.Lock()
		completed++
		finished := completed >= pl.total
		var unblocked []address.Address
		for _, dep := range pl.nodes[addr].dependents {
			dn := pl.nodes[dep]
			dn.pending--
			if dn.pending == 0 {
				unblocked = append(unblocked, dep)
			}
		}
		mu.Unlock()

		for _, u := range unblocked {
			readyCh <- u
		}
		if finished {
			closeDrain()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.n; i++ {
		g.Go(func() error {
			for {
				select {
				case <-drain:
					return nil
				case <-gctx.Done():
					cancel.Request()
					return nil
				case addr, ok := <-readyCh:
					if !ok {
						return nil
					}
					if cancel.Requested() {
						// Release the other workers, which may be waiting on
						// a cell that will now never be posted.
						closeDrain()
						return nil
					}
					runOne(addr)
				}
			}
		})
	}
	_ = g.Wait()
}

func (p *Pool) dispatch(runID uuid.UUID, addr address.Address, store Store, eval Evaluator, cancel *Cancel) {
	fc, ok := store.FormulaCellAt(addr)
	if !ok {
		return
	}
	if cancel.Requested() {
		return
	}
	if !fc.BeginResolving() {
		// Either a grouped sibling already claimed this result slot, or
		// another path resolved it first; nothing left to do here.
		return
	}

	origin := fc.Position
	if fc.Grouped {
		origin = fc.GroupAnchor
	}

	arg := eval.Evaluate(fc, origin)

	if p.logger != nil {
		p.logger.Debug("evaluated cell", "run", runID, "cell", addr.String())
	}

	if fc.Grouped {
		publishGroup(fc, arg, eval)
		return
	}
	publishScalar(fc, interp.Scalarize(arg), eval)
}

func publishScalar(fc *cellstore.FormulaCell, v builtin.Value, eval Evaluator) {
	switch v.Kind {
	case builtin.VError:
		fc.PublishError(v.Err)
	case builtin.VNumber:
		fc.PublishValue(cellstore.KindNumber, v.Num, false, 0)
	case builtin.VBool:
		fc.PublishValue(cellstore.KindBoolean, 0, v.Bool, 0)
	case builtin.VString:
		fc.PublishValue(cellstore.KindString, 0, false, eval.InternString(v.Str))
	default:
		fc.PublishValue(cellstore.KindNumber, 0, false, 0)
	}
}

func publishGroup(fc *cellstore.FormulaCell, arg builtin.Arg, eval Evaluator) {
	rows := int(fc.GroupBounds.Rows())
	cols := int(fc.GroupBounds.Cols())
	matrix := make([][]cellstore.Cell, rows)

	if arg.IsRange && len(arg.Values) == rows*cols {
		for r := 0; r < rows; r++ {
			row := make([]cellstore.Cell, cols)
			for c := 0; c < cols; c++ {
				row[c] = valueToCell(arg.Values[r*cols+c], eval)
			}
			matrix[r] = row
		}
	} else {
		// The formula's result doesn't match the group's shape (a
		// scalar, or a range of the wrong size): broadcast the single
		// value across every member, the common spreadsheet fallback
		// for an array formula whose result doesn't fill its range.
		cell := valueToCell(interp.Scalarize(arg), eval)
		for r := 0; r < rows; r++ {
			row := make([]cellstore.Cell, cols)
			for c := 0; c < cols; c++ {
				row[c] = cell
			}
			matrix[r] = row
		}
	}
	fc.PublishMatrix(matrix)
}

func valueToCell(v builtin.Value, eval Evaluator) cellstore.Cell {
	switch v.Kind {
	case builtin.VNumber:
		return cellstore.Cell{Kind: cellstore.KindNumber, Num: v.Num}
	case builtin.VBool:
		return cellstore.Cell{Kind: cellstore.KindBoolean, Bool: v.Bool}
	case builtin.VString:
		return cellstore.Cell{Kind: cellstore.KindString, StrID: eval.InternString(v.Str)}
	case builtin.VError:
		return cellstore.Cell{Kind: cellstore.KindError, Err: v.Err}
	default:
		return cellstore.Cell{Kind: cellstore.KindEmpty}
	}
}
