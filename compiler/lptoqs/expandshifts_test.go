package lptoqs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/names"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/compiler/qsu"
	"github.com/romanowski/quasar/pkg/field"
)

// multiShiftGraph builds a graph holding one MultiLeftShiftV over a
// shifted read and authenticates it.
func multiShiftGraph(t *testing.T, shifts []qscript.Shift, repair mapfunc.Expr) (*Context, *qsu.Graph, names.Symbol, names.Symbol) {
	t.Helper()
	ctx := NewContext(nil)
	g := qsu.New()
	src := g.Install(ctx.Names, &qsu.ShiftedReadV{Path: field.Slashed("/db/zips"), IDStatus: qscript.ExcludeID})
	root := g.Install(ctx.Names, &qsu.MultiLeftShiftV{Src: src, Shifts: shifts, Repair: repair})
	g.Root = root
	require.NoError(t, ApplyProvenance(ctx, g))
	return ctx, g, src, root
}

func holeShift(rot qscript.Rotation) qscript.Shift {
	return qscript.Shift{Struct: &mapfunc.Hole{}, IDStatus: qscript.ExcludeID, Rot: rot}
}

// assertNoMultiShifts checks the elimination property: ExpandShifts
// leaves no multi-shift behind.
func assertNoMultiShifts(t *testing.T, g *qsu.Graph) {
	t.Helper()
	for sym, v := range g.Vertices {
		_, ok := v.(*qsu.MultiLeftShiftV)
		assert.False(t, ok, "multi-shift survived at %s", sym)
	}
}

func TestExpandShiftsEmpty(t *testing.T) {
	ctx, g, src, root := multiShiftGraph(t, nil, &mapfunc.ShiftSource{})
	require.NoError(t, ExpandShifts(ctx, g))
	assertNoMultiShifts(t, g)
	assert.Equal(t, &qsu.MapV{Src: src, Fn: &mapfunc.Hole{}}, g.Vertices[root])
	for _, v := range g.Vertices {
		_, ok := v.(*qsu.LeftShiftV)
		assert.False(t, ok, "no shift should be emitted for an empty multi-shift")
	}
}

func TestExpandShiftsSingle(t *testing.T) {
	ctx, g, src, root := multiShiftGraph(t,
		[]qscript.Shift{holeShift(qscript.ShiftArray)},
		&mapfunc.ShiftValue{Index: 0})
	require.NoError(t, ExpandShifts(ctx, g))
	assertNoMultiShifts(t, g)

	mv, ok := g.Vertices[root].(*qsu.MapV)
	require.True(t, ok, "root must become a map")
	assert.Equal(t, mapfunc.Expr(mapfunc.ProjectKeyS(&mapfunc.Hole{}, "0")), mv.Fn)

	ls, ok := g.Vertices[mv.Src].(*qsu.LeftShiftV)
	require.True(t, ok, "map source must be the base shift")
	assert.Equal(t, src, ls.Src)
	assert.Equal(t, mapfunc.Expr(&mapfunc.Hole{}), ls.Struct)
	assert.Equal(t, qscript.ExcludeID, ls.IDStatus)
	assert.Equal(t, qscript.ShiftArray, ls.Rot)
	assert.Equal(t, mapfunc.Expr(&mapfunc.ConcatMaps{
		LHS: mapfunc.MakeMapS("original", mapfunc.NewAccess(src, mapfunc.AccessValue)),
		RHS: mapfunc.MakeMapS("0", &mapfunc.RightTarget{}),
	}), ls.Repair)

	// Every emitted node has provenance recorded.
	_, err := ctx.Auth.Lookup(mv.Src)
	assert.NoError(t, err)
	require.NoError(t, ctx.Auth.Verify(g))
}

func TestExpandShiftsCompatiblePairIsGuarded(t *testing.T) {
	ctx, g, _, root := multiShiftGraph(t,
		[]qscript.Shift{holeShift(qscript.ShiftArray), holeShift(qscript.ShiftArray)},
		mapfunc.NewBinaryExpr("+", &mapfunc.ShiftValue{Index: 0}, &mapfunc.ShiftValue{Index: 1}))
	require.NoError(t, ExpandShifts(ctx, g))
	assertNoMultiShifts(t, g)

	mv := g.Vertices[root].(*qsu.MapV)
	assert.Equal(t, mapfunc.Expr(mapfunc.NewBinaryExpr("+",
		mapfunc.ProjectKeyS(&mapfunc.Hole{}, "0"),
		mapfunc.ProjectKeyS(&mapfunc.Hole{}, "1"))), mv.Fn)

	top := g.Vertices[mv.Src].(*qsu.LeftShiftV)
	cond, ok := top.Repair.(*mapfunc.Cond)
	require.True(t, ok, "compatible rotations must guard the repair")
	eq, ok := cond.If.(*mapfunc.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "==", eq.Op)
	assert.Equal(t, mapfunc.Expr(mapfunc.NewAccess(top.Src, mapfunc.AccessIdentity)), eq.LHS)
	assert.Equal(t, mapfunc.Expr(mapfunc.NewAccess(mv.Src, mapfunc.AccessIdentity)), eq.RHS)
	assert.Equal(t, mapfunc.Expr(&mapfunc.Undefined{}), cond.Else)

	base := g.Vertices[top.Src].(*qsu.LeftShiftV)
	then := cond.Then.(*mapfunc.ConcatMaps)
	assert.Equal(t, mapfunc.Expr(&mapfunc.ConcatMaps{
		LHS: mapfunc.MakeMapS("original", mapfunc.ProjectKeyS(mapfunc.NewAccess(top.Src, mapfunc.AccessValue), "original")),
		RHS: mapfunc.MakeMapS("0", mapfunc.ProjectKeyS(mapfunc.NewAccess(top.Src, mapfunc.AccessValue), "0")),
	}), then.LHS)
	assert.Equal(t, mapfunc.Expr(mapfunc.MakeMapS("1", &mapfunc.RightTarget{})), then.RHS)
	// The second link addresses the preserved original row.
	assert.Equal(t, mapfunc.Expr(mapfunc.ProjectKeyS(&mapfunc.Hole{}, "original")), top.Struct)
	assert.Equal(t, base.Src, baseSrcOf(t, g, root))
}

func baseSrcOf(t *testing.T, g *qsu.Graph, root names.Symbol) names.Symbol {
	t.Helper()
	sym := g.Vertices[root].(*qsu.MapV).Src
	for {
		ls, ok := g.Vertices[sym].(*qsu.LeftShiftV)
		if !ok {
			return sym
		}
		sym = ls.Src
	}
}

func TestExpandShiftsIncompatiblePairIsUnguarded(t *testing.T) {
	ctx, g, _, root := multiShiftGraph(t,
		[]qscript.Shift{holeShift(qscript.ShiftArray), holeShift(qscript.ShiftMap)},
		mapfunc.NewBinaryExpr("+", &mapfunc.ShiftValue{Index: 0}, &mapfunc.ShiftValue{Index: 1}))
	require.NoError(t, ExpandShifts(ctx, g))
	assertNoMultiShifts(t, g)

	top := g.Vertices[g.Vertices[root].(*qsu.MapV).Src].(*qsu.LeftShiftV)
	_, guarded := top.Repair.(*mapfunc.Cond)
	assert.False(t, guarded, "incompatible rotations must not be guarded")
	_, ok := top.Repair.(*mapfunc.ConcatMaps)
	assert.True(t, ok)
	assert.Equal(t, qscript.ShiftMap, top.Rot)
}

func TestExpandShiftsStableSortAndReindex(t *testing.T) {
	repair := &mapfunc.ConcatArrays{
		LHS: &mapfunc.ConcatArrays{
			LHS: &mapfunc.MakeArray{Value: &mapfunc.ShiftValue{Index: 0}},
			RHS: &mapfunc.MakeArray{Value: &mapfunc.ShiftValue{Index: 1}},
		},
		RHS: &mapfunc.MakeArray{Value: &mapfunc.ShiftValue{Index: 2}},
	}
	ctx, g, _, root := multiShiftGraph(t,
		[]qscript.Shift{
			holeShift(qscript.ShiftMap),
			holeShift(qscript.ShiftArray),
			holeShift(qscript.ShiftMap),
		},
		repair)
	require.NoError(t, ExpandShifts(ctx, g))
	assertNoMultiShifts(t, g)

	// Chain rotations follow the total order: array before the two maps,
	// with the equal rotations kept in their original relative order.
	var rotations []qscript.Rotation
	sym := g.Vertices[root].(*qsu.MapV).Src
	for {
		ls, ok := g.Vertices[sym].(*qsu.LeftShiftV)
		if !ok {
			break
		}
		rotations = append(rotations, ls.Rot)
		sym = ls.Src
	}
	assert.Equal(t, []qscript.Rotation{qscript.ShiftMap, qscript.ShiftMap, qscript.ShiftArray}, rotations)

	// The final mapper recovers the caller's indices 0, 1, 2 from the
	// chain positions they landed on.
	want := &mapfunc.ConcatArrays{
		LHS: &mapfunc.ConcatArrays{
			LHS: &mapfunc.MakeArray{Value: mapfunc.ProjectKeyS(&mapfunc.Hole{}, "1")},
			RHS: &mapfunc.MakeArray{Value: mapfunc.ProjectKeyS(&mapfunc.Hole{}, "0")},
		},
		RHS: &mapfunc.MakeArray{Value: mapfunc.ProjectKeyS(&mapfunc.Hole{}, "2")},
	}
	assert.Equal(t, mapfunc.Expr(want), g.Vertices[root].(*qsu.MapV).Fn)

	// Only the adjacent compatible pair is guarded.
	chain := shiftChain(g, root)
	require.Len(t, chain, 3)
	_, topGuarded := chain[0].Repair.(*mapfunc.Cond)
	_, midGuarded := chain[1].Repair.(*mapfunc.Cond)
	_, baseGuarded := chain[2].Repair.(*mapfunc.Cond)
	assert.True(t, topGuarded)
	assert.False(t, midGuarded)
	assert.False(t, baseGuarded)
}

// shiftChain returns the shift links under root's map, top first.
func shiftChain(g *qsu.Graph, root names.Symbol) []*qsu.LeftShiftV {
	var chain []*qsu.LeftShiftV
	sym := g.Vertices[root].(*qsu.MapV).Src
	for {
		ls, ok := g.Vertices[sym].(*qsu.LeftShiftV)
		if !ok {
			return chain
		}
		chain = append(chain, ls)
		sym = ls.Src
	}
}

func TestExpandShiftsRejectsDanglingValueRef(t *testing.T) {
	ctx, g, _, _ := multiShiftGraph(t, nil, &mapfunc.ShiftValue{Index: 0})
	err := ExpandShifts(ctx, g)
	require.Error(t, err)
}
