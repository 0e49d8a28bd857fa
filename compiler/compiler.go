// Package compiler turns logical plans into educated QScript trees that
// backend planners consume.  The compiler is a pure transformation: it
// performs no I/O and holds no state beyond one compilation.
package compiler

import (
	"go.uber.org/zap"

	"github.com/romanowski/quasar/compiler/lp"
	"github.com/romanowski/quasar/compiler/lptoqs"
	"github.com/romanowski/quasar/compiler/qscript"
)

// Compile lowers plan to its educated tree.
func Compile(plan lp.Plan) (qscript.Node, error) {
	return CompileWithTracer(plan, nil)
}

// CompileWithTracer is Compile with the intermediate graph of every pass
// rendered to log at debug level.
func CompileWithTracer(plan lp.Plan, log *zap.Logger) (qscript.Node, error) {
	ctx := lptoqs.NewContext(lptoqs.NewTracer(log))
	return lptoqs.Run(ctx, plan)
}
