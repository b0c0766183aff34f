package engine

import (
	"github.com/vogtb/calcengine/cellstore"
	"github.com/vogtb/calcengine/executor"
	"github.com/vogtb/calcengine/formula"
	"github.com/vogtb/calcengine/interp"
)

var (
	_ formula.CompileContext = compileCtx{}
	_ interp.Context         = scopedView{}
	_ executor.Store         = (*cellstore.Store)(nil)
	_ executor.Evaluator     = (*Engine)(nil)
)
