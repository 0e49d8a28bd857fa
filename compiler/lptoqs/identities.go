package lptoqs

import (
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/planerr"
	"github.com/romanowski/quasar/compiler/provenance"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/compiler/qsu"
)

// ResolveOwnIdentities settles each shift's references to its own
// identity.  A shift that needs its own identity asks the backend for
// [identity, value] pairs and indexes into the pair inside its repair;
// shifts that never mention their own identity are untouched.
func ResolveOwnIdentities(ctx *Context, g *qsu.Graph) error {
	return g.RewriteM(func(sym names.Symbol, v qsu.Vertex) (qsu.Vertex, error) {
		ls, ok := v.(*qsu.LeftShiftV)
		if !ok || !accessesIdentity(ls.Repair, sym) {
			return nil, nil
		}
		if ls.IDStatus == qscript.IDOnly {
			// The shifted value already is the identity.
			repair := mapfunc.Rewrite(ls.Repair, func(e mapfunc.Expr) mapfunc.Expr {
				if a, ok := e.(*mapfunc.Access); ok && a.Of == sym && a.Kind == mapfunc.AccessIdentity {
					return &mapfunc.RightTarget{}
				}
				return e
			})
			return &qsu.LeftShiftV{Src: ls.Src, Struct: ls.Struct, IDStatus: ls.IDStatus, Rot: ls.Rot, Repair: repair}, nil
		}
		repair := mapfunc.Rewrite(ls.Repair, func(e mapfunc.Expr) mapfunc.Expr {
			switch e := e.(type) {
			case *mapfunc.Access:
				if e.Of == sym && e.Kind == mapfunc.AccessIdentity {
					return mapfunc.ProjectIndexI(&mapfunc.RightTarget{}, 0)
				}
			case *mapfunc.RightTarget:
				return mapfunc.ProjectIndexI(&mapfunc.RightTarget{}, 1)
			}
			return e
		})
		return &qsu.LeftShiftV{Src: ls.Src, Struct: ls.Struct, IDStatus: qscript.IncludeID, Rot: ls.Rot, Repair: repair}, nil
	})
}

// ReifyIdentities materializes the identities that downstream vertices
// still access as first-class data.  A materialized shift tags each row
// as {"identity": ..., "value": ...}; its consumers unwrap the value and
// read the identity structurally.  The remaining source-value accesses
// lower to plain left-target references, so no Access leaf survives this
// pass.
func ReifyIdentities(ctx *Context, g *qsu.Graph) (*Researched, error) {
	order, err := g.Postorder()
	if err != nil {
		return nil, err
	}
	// Which vertices have their identity read by someone else?
	needed := make(map[names.Symbol]bool)
	for _, sym := range order {
		for _, expr := range qsu.Exprs(g.Vertices[sym]) {
			mapfunc.Walk(expr, func(e mapfunc.Expr) bool {
				if a, ok := e.(*mapfunc.Access); ok && a.Kind == mapfunc.AccessIdentity && a.Of != sym {
					needed[a.Of] = true
				}
				return true
			})
		}
	}
	refs := g.ReverseIndex()
	var materialized []names.Symbol
	for _, m := range order {
		if !needed[m] {
			continue
		}
		if err := materialize(ctx, g, m); err != nil {
			return nil, err
		}
		if err := rewriteConsumers(ctx, g, m, refs[m]); err != nil {
			return nil, err
		}
		materialized = append(materialized, m)
	}
	// Lower the surviving source-value accesses of unmaterialized rows.
	if err := lowerValueAccesses(g); err != nil {
		return nil, err
	}
	if err := computeProvenance(ctx, g); err != nil {
		return nil, err
	}
	return &Researched{
		Authenticated: Authenticated{Graph: g, Auth: ctx.Auth},
		Materialized:  materialized,
	}, nil
}

// materialize turns m's output into {"identity", "value"} pairs.
func materialize(ctx *Context, g *qsu.Graph, m names.Symbol) error {
	switch v := g.Vertices[m].(type) {
	case *qsu.LeftShiftV:
		repair := v.Repair
		status := v.IDStatus
		var identity, value mapfunc.Expr
		switch status {
		case qscript.IDOnly:
			// The shifted value already is the identity, so the repair
			// output stays meaningful as the value slot.
			identity = &mapfunc.RightTarget{}
			value = repair
		case qscript.ExcludeID:
			status = qscript.IncludeID
			repair = mapfunc.Rewrite(repair, func(e mapfunc.Expr) mapfunc.Expr {
				if _, ok := e.(*mapfunc.RightTarget); ok {
					return mapfunc.ProjectIndexI(&mapfunc.RightTarget{}, 1)
				}
				return e
			})
			fallthrough
		default:
			identity = mapfunc.ProjectIndexI(&mapfunc.RightTarget{}, 0)
			value = repair
		}
		g.Vertices[m] = &qsu.LeftShiftV{
			Src:      v.Src,
			Struct:   v.Struct,
			IDStatus: status,
			Rot:      v.Rot,
			Repair: &mapfunc.ConcatMaps{
				LHS: mapfunc.MakeMapS("identity", identity),
				RHS: mapfunc.MakeMapS("value", value),
			},
		}
		return nil
	case *qsu.ShiftedReadV:
		inner := g.Install(ctx.Names, &qsu.ShiftedReadV{Path: v.Path, IDStatus: qscript.IncludeID})
		ctx.Auth[inner] = provenance.Dims{&provenance.ID{Of: inner}}
		g.Vertices[m] = &qsu.MapV{
			Src: inner,
			Fn: &mapfunc.ConcatMaps{
				LHS: mapfunc.MakeMapS("identity", mapfunc.ProjectIndexI(&mapfunc.Hole{}, 0)),
				RHS: mapfunc.MakeMapS("value", mapfunc.ProjectIndexI(&mapfunc.Hole{}, 1)),
			},
		}
		return nil
	default:
		return planerr.E(planerr.NonRepresentable, m, "identity of %s", qsu.CanonVertex(g.Vertices[m]))
	}
}

// rewriteConsumers points every consumer of m at the wrapped rows:
// consumers that read m's identity unwrap inline, the rest read through
// a shared unwrapping map.
func rewriteConsumers(ctx *Context, g *qsu.Graph, m names.Symbol, consumers []names.Symbol) error {
	var unwrap names.Symbol
	for _, c := range consumers {
		v := g.Vertices[c]
		if !consumerUsesIdentity(v, m) {
			if unwrap == "" {
				unwrap = g.Install(ctx.Names, &qsu.MapV{
					Src: m,
					Fn:  mapfunc.ProjectKeyS(&mapfunc.Hole{}, "value"),
				})
				dims, err := ctx.Auth.Lookup(m)
				if err != nil {
					return err
				}
				ctx.Auth[unwrap] = dims.Copy()
			}
			g.Vertices[c] = repointConsumer(v, m, unwrap)
			continue
		}
		// Identity reads are local: the consumer must draw its rows
		// directly from m for the structural rewrite to be sound.
		nonLocal := planerr.E(planerr.NonRepresentable, c, "identity access from %s", qsu.CanonVertex(v))
		switch v := v.(type) {
		case *qsu.MapV:
			if v.Src != m {
				return nonLocal
			}
			g.Vertices[c] = &qsu.MapV{Src: v.Src, Fn: unwrapRowFn(v.Fn, m)}
		case *qsu.FilterV:
			if v.Src != m {
				return nonLocal
			}
			g.Vertices[c] = &qsu.FilterV{Src: v.Src, Predicate: unwrapRowFn(v.Predicate, m)}
		case *qsu.LeftShiftV:
			if v.Src != m {
				return nonLocal
			}
			g.Vertices[c] = &qsu.LeftShiftV{
				Src:      v.Src,
				Struct:   unwrapRowFn(v.Struct, m),
				IDStatus: v.IDStatus,
				Rot:      v.Rot,
				Repair:   unwrapRepair(v.Repair, m),
			}
		default:
			return nonLocal
		}
	}
	return nil
}

// repointConsumer redirects c's edge on m to the unwrapping map and
// lowers any value accesses of m it carried.
func repointConsumer(v qsu.Vertex, m, unwrap names.Symbol) qsu.Vertex {
	out := qsu.MapSources(v, func(s names.Symbol) names.Symbol {
		if s == m {
			return unwrap
		}
		return s
	})
	if ls, ok := out.(*qsu.LeftShiftV); ok {
		ls.Repair = mapfunc.Rewrite(ls.Repair, func(e mapfunc.Expr) mapfunc.Expr {
			if a, ok := e.(*mapfunc.Access); ok && a.Of == m && a.Kind == mapfunc.AccessValue {
				return &mapfunc.LeftTarget{}
			}
			return e
		})
	}
	return out
}

// unwrapRowFn rewrites a row function of wrapped rows: the row is the
// "value" slot and identity accesses read the "identity" slot.
func unwrapRowFn(fn mapfunc.Expr, m names.Symbol) mapfunc.Expr {
	return mapfunc.Rewrite(fn, func(e mapfunc.Expr) mapfunc.Expr {
		switch e := e.(type) {
		case *mapfunc.Hole:
			return mapfunc.ProjectKeyS(&mapfunc.Hole{}, "value")
		case *mapfunc.Access:
			if e.Of == m && e.Kind == mapfunc.AccessIdentity {
				return mapfunc.ProjectKeyS(&mapfunc.Hole{}, "identity")
			}
			if e.Of == m && e.Kind == mapfunc.AccessValue {
				return mapfunc.ProjectKeyS(&mapfunc.Hole{}, "value")
			}
		}
		return e
	})
}

// unwrapRepair is unwrapRowFn for shift repairs, whose left rows arrive
// through LeftTarget and Access leaves rather than Hole.
func unwrapRepair(repair mapfunc.Expr, m names.Symbol) mapfunc.Expr {
	return mapfunc.Rewrite(repair, func(e mapfunc.Expr) mapfunc.Expr {
		switch e := e.(type) {
		case *mapfunc.LeftTarget:
			return mapfunc.ProjectKeyS(&mapfunc.LeftTarget{}, "value")
		case *mapfunc.Access:
			if e.Of == m && e.Kind == mapfunc.AccessIdentity {
				return mapfunc.ProjectKeyS(&mapfunc.LeftTarget{}, "identity")
			}
			if e.Of == m && e.Kind == mapfunc.AccessValue {
				return mapfunc.ProjectKeyS(&mapfunc.LeftTarget{}, "value")
			}
		}
		return e
	})
}

// lowerValueAccesses rewrites each shift's remaining accesses to its
// source's value into plain left-target references.
func lowerValueAccesses(g *qsu.Graph) error {
	order, err := g.Postorder()
	if err != nil {
		return err
	}
	for _, sym := range order {
		ls, ok := g.Vertices[sym].(*qsu.LeftShiftV)
		if !ok {
			continue
		}
		src := ls.Src
		repair := mapfunc.Rewrite(ls.Repair, func(e mapfunc.Expr) mapfunc.Expr {
			if a, ok := e.(*mapfunc.Access); ok && a.Of == src && a.Kind == mapfunc.AccessValue {
				return &mapfunc.LeftTarget{}
			}
			return e
		})
		g.Vertices[sym] = &qsu.LeftShiftV{
			Src:      ls.Src,
			Struct:   ls.Struct,
			IDStatus: ls.IDStatus,
			Rot:      ls.Rot,
			Repair:   repair,
		}
	}
	return nil
}

func accessesIdentity(e mapfunc.Expr, of names.Symbol) bool {
	return mapfunc.Has(e, func(e mapfunc.Expr) bool {
		a, ok := e.(*mapfunc.Access)
		return ok && a.Of == of && a.Kind == mapfunc.AccessIdentity
	})
}

func consumerUsesIdentity(v qsu.Vertex, m names.Symbol) bool {
	for _, expr := range qsu.Exprs(v) {
		if accessesIdentity(expr, m) {
			return true
		}
	}
	return false
}
