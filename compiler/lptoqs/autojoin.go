package lptoqs

import (
	"strconv"

	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/compiler/qsu"
)

// MinimizeAutoJoins collapses auto-joins whose branches range over the
// same rows.  Branches that are row functions of one common carrier fuse
// into a single map over it; branches that shift the same carrier
// coalesce into one MultiLeftShiftV, whose repair stitches the branch
// functions back together over the original row and the shifted values.
func MinimizeAutoJoins(ctx *Context, g *qsu.Graph) error {
	order, err := g.Postorder()
	if err != nil {
		return err
	}
	for _, sym := range order {
		aj, ok := g.Vertices[sym].(*qsu.AutoJoinV)
		if !ok {
			continue
		}
		if v := minimize(g, aj); v != nil {
			g.Vertices[sym] = v
		}
	}
	return nil
}

type joinSide struct {
	base   names.Symbol
	fn     mapfunc.Expr
	closed bool
	shift  *qsu.LeftShiftV
}

// minimize returns the replacement vertex for aj, or nil when its
// branches genuinely range over distinct row sets.
func minimize(g *qsu.Graph, aj *qsu.AutoJoinV) qsu.Vertex {
	sides := make([]joinSide, 0, len(aj.Sources))
	for _, src := range aj.Sources {
		base, fn := resolveCarrier(g, src)
		side := joinSide{base: base, fn: fn, closed: !mapfunc.Has(fn, mapfunc.IsHole)}
		if ls, ok := g.Vertices[base].(*qsu.LeftShiftV); ok && !side.closed {
			if _, plain := ls.Repair.(*mapfunc.RightTarget); plain {
				side.shift = ls
			}
		}
		sides = append(sides, side)
	}
	// One common carrier: fuse into a map.
	if base, ok := commonBase(sides); ok {
		return &qsu.MapV{Src: base, Fn: sideCombine(aj.Combine, sides, nil)}
	}
	// Shifts of one common carrier: coalesce into a multi-shift.
	if carrier, ok := shiftCarrier(g, sides); ok {
		var shifts []qscript.Shift
		leaves := make([]mapfunc.Expr, len(sides))
		for k, side := range sides {
			switch {
			case side.closed:
				leaves[k] = side.fn
			case side.shift != nil && side.shift.Src == carrier:
				idx := len(shifts)
				shifts = append(shifts, qscript.Shift{
					Struct:   side.shift.Struct,
					IDStatus: side.shift.IDStatus,
					Rot:      side.shift.Rot,
				})
				leaves[k] = mapfunc.Compose(side.fn, &mapfunc.ShiftValue{Index: idx})
			default:
				leaves[k] = mapfunc.Compose(side.fn, &mapfunc.ShiftSource{})
			}
		}
		return &qsu.MultiLeftShiftV{
			Src:    carrier,
			Shifts: shifts,
			Repair: sideCombine(aj.Combine, sides, leaves),
		}
	}
	return nil
}

// resolveCarrier follows the map chain below sym, returning the first
// non-map vertex and the composed row function from its rows.
func resolveCarrier(g *qsu.Graph, sym names.Symbol) (names.Symbol, mapfunc.Expr) {
	fn := mapfunc.Expr(&mapfunc.Hole{})
	for {
		m, ok := g.Vertices[sym].(*qsu.MapV)
		if !ok {
			return sym, fn
		}
		fn = mapfunc.Compose(fn, m.Fn)
		sym = m.Src
	}
}

// commonBase reports the single base symbol shared by every open side,
// if there is one.
func commonBase(sides []joinSide) (names.Symbol, bool) {
	var base names.Symbol
	for _, side := range sides {
		if side.closed {
			continue
		}
		if base == "" {
			base = side.base
			continue
		}
		if side.base != base {
			return "", false
		}
	}
	if base == "" {
		// Every side is constant; any base will do.
		base = sides[0].base
	}
	return base, true
}

// shiftCarrier reports the carrier under a coalescable side mix: at
// least one side shifts it, and every open side either shifts it or is a
// row function of it.
func shiftCarrier(g *qsu.Graph, sides []joinSide) (names.Symbol, bool) {
	var carrier names.Symbol
	for _, side := range sides {
		if side.shift == nil {
			continue
		}
		if carrier == "" {
			carrier = side.shift.Src
		} else if side.shift.Src != carrier {
			return "", false
		}
	}
	if carrier == "" {
		return "", false
	}
	for _, side := range sides {
		if side.closed || side.shift != nil && side.shift.Src == carrier {
			continue
		}
		if side.base != carrier {
			return "", false
		}
	}
	return carrier, true
}

// sideCombine substitutes each SideRef leaf of combine with its side's
// function, or with the prepared leaf when leaves is non-nil.
func sideCombine(combine mapfunc.Expr, sides []joinSide, leaves []mapfunc.Expr) mapfunc.Expr {
	return mapfunc.Rewrite(combine, func(e mapfunc.Expr) mapfunc.Expr {
		ref, ok := e.(*mapfunc.SideRef)
		if !ok {
			return e
		}
		if leaves != nil {
			return mapfunc.Copy(leaves[ref.Index])
		}
		return mapfunc.Copy(sides[ref.Index].fn)
	})
}

// ReifyAutoJoins converts the auto-joins that minimization could not
// collapse into explicit joins.  Branches with disjoint provenance share
// no identities, so the reified join is an unconditioned inner join and
// the original combiner runs over the joined tuple.
func ReifyAutoJoins(ctx *Context, g *qsu.Graph) error {
	order, err := g.Postorder()
	if err != nil {
		return err
	}
	for _, sym := range order {
		aj, ok := g.Vertices[sym].(*qsu.AutoJoinV)
		if !ok {
			continue
		}
		if err := reify(ctx, g, sym, aj); err != nil {
			return err
		}
	}
	return nil
}

func reify(ctx *Context, g *qsu.Graph, sym names.Symbol, aj *qsu.AutoJoinV) error {
	unref := g.Install(ctx.Names, &qsu.UnreferencedV{})
	acc := aj.Sources[0]
	for k := 1; k < len(aj.Sources); k++ {
		left, err := g.Tree(acc)
		if err != nil {
			return err
		}
		right, err := g.Tree(aj.Sources[k])
		if err != nil {
			return err
		}
		var combine mapfunc.Expr
		if k == 1 {
			combine = &mapfunc.ConcatMaps{
				LHS: mapfunc.MakeMapS("0", &mapfunc.LeftSide{}),
				RHS: mapfunc.MakeMapS("1", &mapfunc.RightSide{}),
			}
		} else {
			combine = &mapfunc.ConcatMaps{
				LHS: &mapfunc.LeftSide{},
				RHS: mapfunc.MakeMapS(strconv.Itoa(k), &mapfunc.RightSide{}),
			}
		}
		acc = g.Install(ctx.Names, &qsu.ThetaJoinV{
			Src:     unref,
			Left:    left,
			Right:   right,
			On:      mapfunc.Bool(true),
			Join:    qscript.Inner,
			Combine: combine,
		})
	}
	mapper := mapfunc.Rewrite(aj.Combine, func(e mapfunc.Expr) mapfunc.Expr {
		if ref, ok := e.(*mapfunc.SideRef); ok {
			return mapfunc.ProjectKeyS(&mapfunc.Hole{}, strconv.Itoa(ref.Index))
		}
		return e
	})
	g.Vertices[sym] = &qsu.MapV{Src: acc, Fn: mapper}
	return nil
}
