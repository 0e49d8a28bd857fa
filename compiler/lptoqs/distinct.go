package lptoqs

import (
	"reflect"

	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/qsu"
)

// RecognizeDistinct pattern-matches the grouped-arbitrary idiom the
// front end emits for DISTINCT - an arbitrary reducer over a group on
// the same expression - into the dedicated Distinct form, which the
// bucket pass later lowers back to a canonical reduce.
func RecognizeDistinct(ctx *Context, g *qsu.Graph) error {
	return g.RewriteM(func(sym names.Symbol, v qsu.Vertex) (qsu.Vertex, error) {
		red, ok := v.(*qsu.ReduceV)
		if !ok || len(red.Buckets) != 0 || len(red.Reducers) != 1 {
			return nil, nil
		}
		reducer := red.Reducers[0]
		if reducer.Op != "arbitrary" {
			return nil, nil
		}
		if _, ok := red.Repair.(*mapfunc.ReducerRef); !ok {
			return nil, nil
		}
		gb, ok := g.Vertices[red.Src].(*qsu.GroupByV)
		if !ok || len(gb.Keys) != 1 {
			return nil, nil
		}
		key := gb.Keys[0]
		if !mapfunc.IsHole(reducer.Expr) && !reflect.DeepEqual(reducer.Expr, key) {
			return nil, nil
		}
		return &qsu.DistinctV{Src: gb.Src, Expr: key}, nil
	})
}
