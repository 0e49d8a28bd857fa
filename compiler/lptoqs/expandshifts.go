package lptoqs

import (
	"slices"
	"strconv"

	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/planerr"
	"github.com/romanowski/quasar/compiler/provenance"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/compiler/qsu"
)

// ExpandShifts lowers every MultiLeftShiftV into a chain of single left
// shifts topped by a map that projects the synthesized scaffold away.
//
// Each link of the chain carries the original row under the "original"
// key and the values shifted so far under "0".."k" keys, so every link
// can still address the row the whole multi-shift ranges over.  When two
// adjacent links rotate over the same axis, the second link's repair is
// guarded by an identity equation, which suppresses the cross-product
// rows a pair of independent shifts over one axis would produce.
//
// Entries are stably sorted by rotation so equal rotations become
// adjacent; the reindex permutation is kept and the final mapper
// translates each original shift index to the sorted key it landed on.
func ExpandShifts(ctx *Context, g *qsu.Graph) error {
	order, err := g.Postorder()
	if err != nil {
		return err
	}
	for _, sym := range order {
		mls, ok := g.Vertices[sym].(*qsu.MultiLeftShiftV)
		if !ok {
			continue
		}
		if err := expand(ctx, g, sym, mls); err != nil {
			return err
		}
	}
	return nil
}

func expand(ctx *Context, g *qsu.Graph, sym names.Symbol, mls *qsu.MultiLeftShiftV) error {
	if len(mls.Shifts) == 0 {
		// Nothing was shifted, so there is no scaffold: the repair's
		// source leaf is the row itself and no value leaf is legal.
		var badIndex bool
		mapper := mapfunc.Rewrite(mls.Repair, func(e mapfunc.Expr) mapfunc.Expr {
			switch e.(type) {
			case *mapfunc.ShiftSource:
				return &mapfunc.Hole{}
			case *mapfunc.ShiftValue:
				badIndex = true
			}
			return e
		})
		if badIndex {
			return planerr.E(planerr.MalformedInput, sym, "repair references a shift but there are none")
		}
		g.Vertices[sym] = &qsu.MapV{Src: mls.Src, Fn: mapper}
		return nil
	}
	type entry struct {
		shift qscript.Shift
		orig  int
	}
	entries := make([]entry, 0, len(mls.Shifts))
	for i, s := range mls.Shifts {
		entries = append(entries, entry{shift: s, orig: i})
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		return a.shift.Rot.Compare(b.shift.Rot)
	})
	// sortedPos[i] is the chain position of the caller's i-th shift.
	sortedPos := make([]int, len(entries))
	for pos, e := range entries {
		sortedPos[e.orig] = pos
	}

	srcDims, err := ctx.Auth.Lookup(mls.Src)
	if err != nil {
		return err
	}
	s0 := entries[0].shift
	repair0 := &mapfunc.ConcatMaps{
		LHS: mapfunc.MakeMapS("original", mapfunc.NewAccess(mls.Src, mapfunc.AccessValue)),
		RHS: mapfunc.MakeMapS("0", &mapfunc.RightTarget{}),
	}
	prev := g.Install(ctx.Names, &qsu.LeftShiftV{
		Src:      mls.Src,
		Struct:   s0.Struct,
		IDStatus: s0.IDStatus,
		Rot:      s0.Rot,
		Repair:   repair0,
	})
	ctx.Auth[prev] = provenance.Shift(prev, srcDims)
	prevRot := s0.Rot

	for k := 1; k < len(entries); k++ {
		sk := entries[k].shift
		leftValue := func() mapfunc.Expr {
			return mapfunc.NewAccess(prev, mapfunc.AccessValue)
		}
		fields := []mapfunc.Expr{
			mapfunc.MakeMapS("original", mapfunc.ProjectKeyS(leftValue(), "original")),
		}
		for j := 0; j < k; j++ {
			key := strconv.Itoa(j)
			fields = append(fields, mapfunc.MakeMapS(key, mapfunc.ProjectKeyS(leftValue(), key)))
		}
		repair := mapfunc.Expr(&mapfunc.ConcatMaps{
			LHS: mapfunc.ConcatMapsAll(fields...),
			RHS: mapfunc.MakeMapS(strconv.Itoa(k), &mapfunc.RightTarget{}),
		})
		link := &qsu.LeftShiftV{
			Src:      prev,
			Struct:   mapfunc.Compose(sk.Struct, mapfunc.ProjectKeyS(&mapfunc.Hole{}, "original")),
			IDStatus: sk.IDStatus,
			Rot:      sk.Rot,
			Repair:   repair,
		}
		cur := g.Install(ctx.Names, link)
		if prevRot.Compatible(sk.Rot) {
			link.Repair = mapfunc.NewCond(
				mapfunc.NewBinaryExpr("==",
					mapfunc.NewAccess(prev, mapfunc.AccessIdentity),
					mapfunc.NewAccess(cur, mapfunc.AccessIdentity)),
				repair,
				&mapfunc.Undefined{},
			)
		}
		prevDims, err := ctx.Auth.Lookup(prev)
		if err != nil {
			return err
		}
		ctx.Auth[cur] = provenance.Shift(cur, prevDims)
		prev = cur
		prevRot = sk.Rot
	}

	mapper, err := scaffoldMapper(sym, mls.Repair, sortedPos)
	if err != nil {
		return err
	}
	g.Vertices[sym] = &qsu.MapV{Src: prev, Fn: mapper}
	prevDims, err := ctx.Auth.Lookup(prev)
	if err != nil {
		return err
	}
	ctx.Auth[sym] = prevDims.Copy()
	return nil
}

// scaffoldMapper rewrites a multi-shift repair into the final projection
// out of the chain scaffold: the original row lives under "original" and
// the i-th shifted value under the key of its chain position.
func scaffoldMapper(sym names.Symbol, repair mapfunc.Expr, sortedPos []int) (mapfunc.Expr, error) {
	var badIndex *int
	mapper := mapfunc.Rewrite(repair, func(e mapfunc.Expr) mapfunc.Expr {
		switch e := e.(type) {
		case *mapfunc.ShiftSource:
			return mapfunc.ProjectKeyS(&mapfunc.Hole{}, "original")
		case *mapfunc.ShiftValue:
			if e.Index < 0 || e.Index >= len(sortedPos) {
				idx := e.Index
				badIndex = &idx
				return e
			}
			return mapfunc.ProjectKeyS(&mapfunc.Hole{}, strconv.Itoa(sortedPos[e.Index]))
		}
		return e
	})
	if badIndex != nil {
		return nil, planerr.E(planerr.MalformedInput, sym, "repair references shift %d of %d", *badIndex, len(sortedPos))
	}
	return mapper, nil
}
