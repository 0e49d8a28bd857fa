package lptoqs

import (
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/qsu"
)

// EliminateUnary folds the provisional unary applications the translator
// emits: every UnaryV becomes a MapV, adjacent single-use MapV pairs fuse
// by composition, and identity maps are aliased away.
func EliminateUnary(ctx *Context, g *qsu.Graph) error {
	refs := g.ReverseIndex()
	return g.RewriteM(func(sym names.Symbol, v qsu.Vertex) (qsu.Vertex, error) {
		var m *qsu.MapV
		switch v := v.(type) {
		case *qsu.UnaryV:
			m = &qsu.MapV{Src: v.Src, Fn: v.Fn}
		case *qsu.MapV:
			m = v
		default:
			return nil, nil
		}
		if mapfunc.IsHole(m.Fn) {
			// Identity map: alias the source's vertex.
			src, err := g.Vertex(m.Src)
			if err != nil {
				return nil, err
			}
			return src, nil
		}
		if inner, ok := g.Vertices[m.Src].(*qsu.MapV); ok && len(refs[m.Src]) == 1 {
			return &qsu.MapV{Src: inner.Src, Fn: mapfunc.Compose(m.Fn, inner.Fn)}, nil
		}
		return m, nil
	})
}
