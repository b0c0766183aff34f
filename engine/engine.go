// Package engine is the public façade gluing the address, token,
// cellstore, depgraph, scheduler, interp, executor, formula, and
// builtin packages into the operations a caller actually drives: add
// a sheet, write a cell, register/unregister a formula's references,
// turn a batch of writes into a sorted recalculation order, run it,
// and read results back out.
package engine

import (
	"log/slog"
	"regexp"
	"sync"

	"github.com/vogtb/calcengine/address"
	"github.com/vogtb/calcengine/builtin"
	"github.com/vogtb/calcengine/cellstore"
	"github.com/vogtb/calcengine/depgraph"
	"github.com/vogtb/calcengine/token"
)

var namedExprPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Engine is one model instance: its own cell store, dependency graph,
// string pool, function registry, sheet-name table, and named
// expressions. Nothing here is global — a worker pool is created
// fresh on each CalculateSortedCells call with thread_count > 0 and
// never outlives that one run, per Design Note 9's "pool owned by the
// model instance."
type Engine struct {
	mu sync.RWMutex

	store    *cellstore.Store
	graph    *depgraph.Graph
	pool     *token.Pool
	registry *builtin.Registry
	volatile *depgraph.VolatileSet

	sheetIDs   map[string]int32
	sheetNames map[int32]string
	nextSheet  int32

	globalNamed map[string]namedExpr
	sheetNamed  map[int32]map[string]namedExpr

	logger *slog.Logger
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger attaches a structured logger, forwarded to every worker
// pool CalculateSortedCells creates.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an empty model with its own string pool, cell store,
// dependency graph, and default function registry.
func New(opts ...Option) *Engine {
	pool := token.NewPool()
	e := &Engine{
		store:       cellstore.New(pool),
		graph:       depgraph.New(),
		pool:        pool,
		registry:    builtin.New(),
		volatile:    depgraph.NewVolatileSet(),
		sheetIDs:    map[string]int32{},
		sheetNames:  map[int32]string{},
		globalNamed: map[string]namedExpr{},
		sheetNamed:  map[int32]map[string]namedExpr{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AppendSheet adds a sheet with a unique name and returns its index.
func (e *Engine) AppendSheet(name string) (int32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.sheetIDs[name]; exists {
		return 0, newModelError(SheetNameConflict, "engine: sheet %q already exists", name)
	}

	id := e.nextSheet
	e.nextSheet++
	e.sheetIDs[name] = id
	e.sheetNames[id] = name
	e.store.EnsureSheet(id)
	return id, nil
}

// resolveSheetLocked looks up a sheet's index by name with e.mu
// already held; compileCtx.ResolveSheet uses it to satisfy
// formula.CompileContext.
func (e *Engine) resolveSheetLocked(name string) (int32, bool) {
	id, ok := e.sheetIDs[name]
	return id, ok
}

// SheetName returns the name registered for a sheet index, if any.
func (e *Engine) SheetName(id int32) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	name, ok := e.sheetNames[id]
	return name, ok
}

func (e *Engine) sheetExistsLocked(id int32) bool {
	_, ok := e.sheetNames[id]
	return ok
}

// compileCtx adapts one Engine plus a fixed origin into
// formula.CompileContext, satisfying Compile's need for an origin
// address that varies per formula being parsed.
type compileCtx struct {
	e      *Engine
	origin address.Address
}

func (c compileCtx) Origin() address.Address { return c.origin }

func (c compileCtx) ResolveSheet(name string) (int32, bool) {
	c.e.mu.RLock()
	defer c.e.mu.RUnlock()
	return c.e.resolveSheetLocked(name)
}

func (c compileCtx) InternString(s string) uint32 { return c.e.pool.Intern(s) }

func (c compileCtx) LookupFunction(name string) (token.FuncID, bool) {
	return c.e.registry.LookupFunction(name)
}

func (c compileCtx) IsVolatile(id token.FuncID) bool { return c.e.registry.IsVolatile(id) }

// scopedView is the interp.Context for one formula cell's evaluation:
// plain cell/range reads go straight to the store, and named-
// expression resolution checks the cell's own sheet before falling
// back to the global scope, the same shadowing a per-sheet named
// range gets over a workbook-global one.
type scopedView struct {
	e     *Engine
	sheet int32
}

func (v scopedView) CellValue(addr address.Address) builtin.Value {
	return cellAccessToValue(v.e.store.GetCellAccess(addr))
}

func (v scopedView) RangeValues(rng address.Range) []builtin.Value {
	out := make([]builtin.Value, 0, int(rng.Rows())*int(rng.Cols()))
	for row := rng.First.Row; row <= rng.Last.Row; row++ {
		for col := rng.First.Col; col <= rng.Last.Col; col++ {
			out = append(out, v.CellValue(address.Address{Sheet: rng.First.Sheet, Row: row, Col: col}))
		}
	}
	return out
}

func (v scopedView) String(id uint32) (string, bool) { return v.e.pool.String(id) }

func (v scopedView) ResolveName(name string) (address.Range, bool) {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	if sheetScope, ok := v.e.sheetNamed[v.sheet]; ok {
		if ne, ok := sheetScope[name]; ok {
			return ne.rng, true
		}
	}
	if ne, ok := v.e.globalNamed[name]; ok {
		return ne.rng, true
	}
	return address.Range{}, false
}

func cellAccessToValue(ca cellstore.CellAccess) builtin.Value {
	switch ca.Type {
	case cellstore.ValueNumber:
		return builtin.Number(ca.Num)
	case cellstore.ValueBoolean:
		return builtin.Boolean(ca.Bool)
	case cellstore.ValueString:
		return builtin.String(ca.Str)
	case cellstore.ValueError:
		return builtin.Error(ca.ErrCode)
	default:
		return builtin.Empty()
	}
}
