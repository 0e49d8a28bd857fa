package lptoqs

import (
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/qsu"
)

// ExtractFreeMap hoists a shift's struct function into its own map node
// when the struct does more than address into the row.  The shift then
// unnests its bare input, which keeps the multi-shift coalescing and
// expansion rules free of embedded computation.
func ExtractFreeMap(ctx *Context, g *qsu.Graph) error {
	return g.RewriteM(func(sym names.Symbol, v qsu.Vertex) (qsu.Vertex, error) {
		ls, ok := v.(*qsu.LeftShiftV)
		if !ok || tightAccess(ls.Struct) {
			return nil, nil
		}
		hoisted := g.Install(ctx.Names, &qsu.MapV{Src: ls.Src, Fn: ls.Struct})
		return &qsu.LeftShiftV{
			Src:      hoisted,
			Struct:   &mapfunc.Hole{},
			IDStatus: ls.IDStatus,
			Rot:      ls.Rot,
			Repair:   ls.Repair,
		}, nil
	})
}

// tightAccess reports whether e merely addresses into the row: the row
// itself or a chain of constant projections over it.
func tightAccess(e mapfunc.Expr) bool {
	switch e := e.(type) {
	case *mapfunc.Hole:
		return true
	case *mapfunc.ProjectKey:
		if _, ok := e.Key.(*mapfunc.Literal); ok {
			return tightAccess(e.Src)
		}
	case *mapfunc.ProjectIndex:
		if _, ok := e.Index.(*mapfunc.Literal); ok {
			return tightAccess(e.Src)
		}
	}
	return false
}
