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

func TestMinimizeFusesCommonCarrier(t *testing.T) {
	ctx := NewContext(nil)
	g := qsu.New()
	read := g.Install(ctx.Names, &qsu.ShiftedReadV{Path: field.Slashed("/db/zips"), IDStatus: qscript.ExcludeID})
	a := g.Install(ctx.Names, &qsu.MapV{Src: read, Fn: mapfunc.ProjectKeyS(&mapfunc.Hole{}, "a")})
	b := g.Install(ctx.Names, &qsu.MapV{Src: read, Fn: mapfunc.ProjectKeyS(&mapfunc.Hole{}, "b")})
	aj := g.Install(ctx.Names, &qsu.AutoJoinV{
		Sources: []names.Symbol{a, b},
		Combine: mapfunc.NewBinaryExpr("+", &mapfunc.SideRef{Index: 0}, &mapfunc.SideRef{Index: 1}),
	})
	g.Root = aj
	require.NoError(t, ApplyProvenance(ctx, g))

	require.NoError(t, MinimizeAutoJoins(ctx, g))
	want := &qsu.MapV{
		Src: read,
		Fn: mapfunc.NewBinaryExpr("+",
			mapfunc.ProjectKeyS(&mapfunc.Hole{}, "a"),
			mapfunc.ProjectKeyS(&mapfunc.Hole{}, "b")),
	}
	assert.Equal(t, qsu.Vertex(want), g.Vertices[aj])
}

func TestMinimizeCoalescesShiftsIntoMultiShift(t *testing.T) {
	ctx := NewContext(nil)
	g := qsu.New()
	read := g.Install(ctx.Names, &qsu.ShiftedReadV{Path: field.Slashed("/db/zips"), IDStatus: qscript.ExcludeID})
	s1 := g.Install(ctx.Names, &qsu.LeftShiftV{
		Src: read, Struct: &mapfunc.Hole{}, IDStatus: qscript.ExcludeID,
		Rot: qscript.ShiftArray, Repair: &mapfunc.RightTarget{},
	})
	s2 := g.Install(ctx.Names, &qsu.LeftShiftV{
		Src: read, Struct: mapfunc.ProjectKeyS(&mapfunc.Hole{}, "tags"), IDStatus: qscript.ExcludeID,
		Rot: qscript.ShiftMap, Repair: &mapfunc.RightTarget{},
	})
	aj := g.Install(ctx.Names, &qsu.AutoJoinV{
		Sources: []names.Symbol{s1, s2},
		Combine: mapfunc.NewBinaryExpr("+", &mapfunc.SideRef{Index: 0}, &mapfunc.SideRef{Index: 1}),
	})
	g.Root = aj
	require.NoError(t, ApplyProvenance(ctx, g))

	require.NoError(t, MinimizeAutoJoins(ctx, g))
	mls, ok := g.Vertices[aj].(*qsu.MultiLeftShiftV)
	require.True(t, ok, "shift branches over one carrier must coalesce")
	assert.Equal(t, read, mls.Src)
	require.Len(t, mls.Shifts, 2)
	assert.Equal(t, qscript.ShiftArray, mls.Shifts[0].Rot)
	assert.Equal(t, qscript.ShiftMap, mls.Shifts[1].Rot)
	assert.Equal(t, mapfunc.Expr(mapfunc.ProjectKeyS(&mapfunc.Hole{}, "tags")), mls.Shifts[1].Struct)
	assert.Equal(t, mapfunc.Expr(mapfunc.NewBinaryExpr("+",
		&mapfunc.ShiftValue{Index: 0},
		&mapfunc.ShiftValue{Index: 1})), mls.Repair)
}

func TestMinimizeMixesShiftAndSourceBranches(t *testing.T) {
	ctx := NewContext(nil)
	g := qsu.New()
	read := g.Install(ctx.Names, &qsu.ShiftedReadV{Path: field.Slashed("/db/zips"), IDStatus: qscript.ExcludeID})
	s := g.Install(ctx.Names, &qsu.LeftShiftV{
		Src: read, Struct: &mapfunc.Hole{}, IDStatus: qscript.ExcludeID,
		Rot: qscript.ShiftArray, Repair: &mapfunc.RightTarget{},
	})
	plain := g.Install(ctx.Names, &qsu.MapV{Src: read, Fn: mapfunc.ProjectKeyS(&mapfunc.Hole{}, "name")})
	aj := g.Install(ctx.Names, &qsu.AutoJoinV{
		Sources: []names.Symbol{s, plain},
		Combine: &mapfunc.ConcatMaps{
			LHS: mapfunc.MakeMapS("v", &mapfunc.SideRef{Index: 0}),
			RHS: mapfunc.MakeMapS("n", &mapfunc.SideRef{Index: 1}),
		},
	})
	g.Root = aj
	require.NoError(t, ApplyProvenance(ctx, g))

	require.NoError(t, MinimizeAutoJoins(ctx, g))
	mls, ok := g.Vertices[aj].(*qsu.MultiLeftShiftV)
	require.True(t, ok)
	require.Len(t, mls.Shifts, 1)
	assert.Equal(t, mapfunc.Expr(&mapfunc.ConcatMaps{
		LHS: mapfunc.MakeMapS("v", &mapfunc.ShiftValue{Index: 0}),
		RHS: mapfunc.MakeMapS("n", mapfunc.ProjectKeyS(&mapfunc.ShiftSource{}, "name")),
	}), mls.Repair)
}

func TestReifyLeftoverAutoJoinBecomesCrossJoin(t *testing.T) {
	ctx := NewContext(nil)
	g := qsu.New()
	r1 := g.Install(ctx.Names, &qsu.ShiftedReadV{Path: field.Slashed("/db/a"), IDStatus: qscript.ExcludeID})
	r2 := g.Install(ctx.Names, &qsu.ShiftedReadV{Path: field.Slashed("/db/b"), IDStatus: qscript.ExcludeID})
	aj := g.Install(ctx.Names, &qsu.AutoJoinV{
		Sources: []names.Symbol{r1, r2},
		Combine: mapfunc.NewBinaryExpr("+", &mapfunc.SideRef{Index: 0}, &mapfunc.SideRef{Index: 1}),
	})
	g.Root = aj
	require.NoError(t, ApplyProvenance(ctx, g))

	require.NoError(t, MinimizeAutoJoins(ctx, g))
	_, still := g.Vertices[aj].(*qsu.AutoJoinV)
	require.True(t, still, "distinct carriers must not be fused")

	require.NoError(t, ReifyAutoJoins(ctx, g))
	mv, ok := g.Vertices[aj].(*qsu.MapV)
	require.True(t, ok)
	assert.Equal(t, mapfunc.Expr(mapfunc.NewBinaryExpr("+",
		mapfunc.ProjectKeyS(&mapfunc.Hole{}, "0"),
		mapfunc.ProjectKeyS(&mapfunc.Hole{}, "1"))), mv.Fn)

	join, ok := g.Vertices[mv.Src].(*qsu.ThetaJoinV)
	require.True(t, ok)
	assert.Equal(t, mapfunc.Expr(mapfunc.Bool(true)), join.On)
	assert.Equal(t, qscript.Inner, join.Join)
	assert.Equal(t, qscript.Node(&qscript.ShiftedRead{Path: field.Slashed("/db/a"), IDStatus: qscript.ExcludeID}), join.Left)
	assert.Equal(t, qscript.Node(&qscript.ShiftedRead{Path: field.Slashed("/db/b"), IDStatus: qscript.ExcludeID}), join.Right)
	require.NoError(t, g.Verify())
}
