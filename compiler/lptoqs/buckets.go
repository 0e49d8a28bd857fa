package lptoqs

import (
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/compiler/qsu"
)

// ReifyBuckets makes grouping explicit: each bucketless reduce or sort
// claims the keys of the GroupByV below it, rebasing its row functions
// through any intervening maps, and Distinct lowers to its canonical
// grouped-arbitrary reduce.  GroupByV markers left unclaimed carry no
// aggregation and degrade to pass-throughs.
func ReifyBuckets(ctx *Context, g *qsu.Graph) error {
	order, err := g.Postorder()
	if err != nil {
		return err
	}
	for _, sym := range order {
		switch v := g.Vertices[sym].(type) {
		case *qsu.ReduceV:
			if len(v.Buckets) > 0 {
				continue
			}
			keys, base, chain, ok := findGroup(g, v.Src)
			if !ok {
				continue
			}
			reducers := make([]qscript.ReduceFunc, 0, len(v.Reducers))
			for _, r := range v.Reducers {
				reducers = append(reducers, qscript.ReduceFunc{
					Op:   r.Op,
					Expr: mapfunc.Compose(r.Expr, chain),
				})
			}
			g.Vertices[sym] = &qsu.ReduceV{
				Src:      base,
				Buckets:  keys,
				Reducers: reducers,
				Repair:   v.Repair,
			}
		case *qsu.SortV:
			if len(v.Buckets) > 0 {
				continue
			}
			buckets, base, chain, ok := findGroup(g, v.Src)
			if !ok {
				continue
			}
			keys := make([]qscript.SortKey, 0, len(v.Keys))
			for _, key := range v.Keys {
				keys = append(keys, qscript.SortKey{
					Expr:  mapfunc.Compose(key.Expr, chain),
					Order: key.Order,
				})
			}
			g.Vertices[sym] = &qsu.SortV{Src: base, Buckets: buckets, Keys: keys}
		case *qsu.DistinctV:
			g.Vertices[sym] = &qsu.ReduceV{
				Src:      v.Src,
				Buckets:  []mapfunc.Expr{v.Expr},
				Reducers: []qscript.ReduceFunc{{Op: "arbitrary", Expr: v.Expr}},
				Repair:   &mapfunc.ReducerRef{Index: 0},
			}
		}
	}
	// Unclaimed group markers have no aggregation to bucket.
	for sym, v := range g.Vertices {
		if gb, ok := v.(*qsu.GroupByV); ok {
			g.Vertices[sym] = &qsu.MapV{Src: gb.Src, Fn: &mapfunc.Hole{}}
		}
	}
	return nil
}

// findGroup walks the map chain below src looking for a group marker.
// chain composes the intervening row functions, so a function of rows at
// src rebases onto group rows as Compose(fn, chain).
func findGroup(g *qsu.Graph, src names.Symbol) (keys []mapfunc.Expr, base names.Symbol, chain mapfunc.Expr, ok bool) {
	chain = &mapfunc.Hole{}
	for {
		switch v := g.Vertices[src].(type) {
		case *qsu.GroupByV:
			return v.Keys, v.Src, chain, true
		case *qsu.MapV:
			chain = mapfunc.Compose(chain, v.Fn)
			src = v.Src
		default:
			return nil, "", nil, false
		}
	}
}
