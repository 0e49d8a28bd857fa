package lptoqs

import (
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/qsu"
)

// RewriteGroupByArrays normalizes grouping on an array constructor into
// grouping on the array's elements, so `group_by(s, [a, b])` buckets the
// same way as `group_by(s, a, b)`.
func RewriteGroupByArrays(ctx *Context, g *qsu.Graph) error {
	return g.RewriteM(func(sym names.Symbol, v qsu.Vertex) (qsu.Vertex, error) {
		gb, ok := v.(*qsu.GroupByV)
		if !ok || len(gb.Keys) != 1 {
			return nil, nil
		}
		elems, ok := arrayElems(gb.Keys[0])
		if !ok {
			return nil, nil
		}
		return &qsu.GroupByV{Src: gb.Src, Keys: elems}, nil
	})
}

func arrayElems(e mapfunc.Expr) ([]mapfunc.Expr, bool) {
	switch e := e.(type) {
	case *mapfunc.MakeArray:
		return []mapfunc.Expr{e.Value}, true
	case *mapfunc.ConcatArrays:
		left, lok := arrayElems(e.LHS)
		right, rok := arrayElems(e.RHS)
		if !lok || !rok {
			return nil, false
		}
		return append(left, right...), true
	}
	return nil, false
}
