package lptoqs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romanowski/quasar/compiler/lp"
	"github.com/romanowski/quasar/compiler/mapfunc"
	"github.com/romanowski/quasar/compiler/planerr"
	"github.com/romanowski/quasar/compiler/qscript"
	"github.com/romanowski/quasar/compiler/qsu"
	"github.com/romanowski/quasar/pkg/field"
)

func letOver(path string, in func(t lp.Plan) lp.Plan) lp.Plan {
	return &lp.Let{
		Name: "t",
		Form: lp.NewRead(path),
		In:   in(lp.NewFree("t")),
	}
}

func TestReadLPProjection(t *testing.T) {
	ctx := NewContext(nil)
	g, err := ReadLP(ctx, letOver("/db/cities", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("project_key", row, lp.NewConstant("city"))
	}))
	require.NoError(t, err)
	require.NoError(t, g.Verify())

	u, ok := g.Vertices[g.Root].(*qsu.UnaryV)
	require.True(t, ok)
	assert.Equal(t, mapfunc.Expr(mapfunc.ProjectKeyS(&mapfunc.Hole{}, "city")), u.Fn)
	read, ok := g.Vertices[u.Src].(*qsu.ShiftedReadV)
	require.True(t, ok)
	assert.Equal(t, field.Slashed("/db/cities"), read.Path)
	assert.Equal(t, qscript.ExcludeID, read.IDStatus)
}

func TestReadLPFilter(t *testing.T) {
	ctx := NewContext(nil)
	g, err := ReadLP(ctx, letOver("/db/zips", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("where", row,
			lp.NewInvoke("gt",
				lp.NewInvoke("project_key", row, lp.NewConstant("pop")),
				lp.NewConstant(1000)))
	}))
	require.NoError(t, err)

	f, ok := g.Vertices[g.Root].(*qsu.FilterV)
	require.True(t, ok)
	assert.Equal(t, mapfunc.Expr(mapfunc.NewBinaryExpr(">",
		mapfunc.ProjectKeyS(&mapfunc.Hole{}, "pop"),
		mapfunc.Int(1000))), f.Predicate)
}

func TestReadLPSharedReadsAutoJoin(t *testing.T) {
	ctx := NewContext(nil)
	g, err := ReadLP(ctx, letOver("/db/zips", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("add",
			lp.NewInvoke("project_key", row, lp.NewConstant("a")),
			lp.NewInvoke("project_key", row, lp.NewConstant("b")))
	}))
	require.NoError(t, err)

	aj, ok := g.Vertices[g.Root].(*qsu.AutoJoinV)
	require.True(t, ok)
	require.Len(t, aj.Sources, 2)
	assert.Equal(t, mapfunc.Expr(mapfunc.NewBinaryExpr("+",
		&mapfunc.SideRef{Index: 0},
		&mapfunc.SideRef{Index: 1})), aj.Combine)
	// Both branches hang off the one shared read.
	left := g.Vertices[aj.Sources[0]].(*qsu.UnaryV)
	right := g.Vertices[aj.Sources[1]].(*qsu.UnaryV)
	assert.Equal(t, left.Src, right.Src)
}

func TestReadLPGroupByAndReduce(t *testing.T) {
	ctx := NewContext(nil)
	g, err := ReadLP(ctx, letOver("/db/zips", func(row lp.Plan) lp.Plan {
		grouped := lp.NewInvoke("group_by", row,
			lp.NewInvoke("project_key", row, lp.NewConstant("state")))
		return lp.NewInvoke("sum", lp.NewInvoke("project_key", grouped, lp.NewConstant("pop")))
	}))
	require.NoError(t, err)

	red, ok := g.Vertices[g.Root].(*qsu.ReduceV)
	require.True(t, ok)
	assert.Empty(t, red.Buckets)
	require.Len(t, red.Reducers, 1)
	assert.Equal(t, "sum", red.Reducers[0].Op)
	assert.Equal(t, mapfunc.Expr(&mapfunc.ReducerRef{Index: 0}), red.Repair)

	u := g.Vertices[red.Src].(*qsu.UnaryV)
	gb, ok := g.Vertices[u.Src].(*qsu.GroupByV)
	require.True(t, ok)
	assert.Equal(t, []mapfunc.Expr{mapfunc.ProjectKeyS(&mapfunc.Hole{}, "state")}, gb.Keys)
}

func TestReadLPShift(t *testing.T) {
	ctx := NewContext(nil)
	g, err := ReadLP(ctx, letOver("/db/zips", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("shift_array", row)
	}))
	require.NoError(t, err)

	ls, ok := g.Vertices[g.Root].(*qsu.LeftShiftV)
	require.True(t, ok)
	assert.Equal(t, qscript.ShiftArray, ls.Rot)
	assert.Equal(t, mapfunc.Expr(&mapfunc.Hole{}), ls.Struct)
	assert.Equal(t, mapfunc.Expr(&mapfunc.RightTarget{}), ls.Repair)
}

func TestReadLPUnboundVariable(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ReadLP(ctx, lp.NewFree("nope"))
	require.Error(t, err)
	assert.True(t, planerr.IsKind(err, planerr.UnboundVariable))
}

func TestReadLPUnion(t *testing.T) {
	ctx := NewContext(nil)
	g, err := ReadLP(ctx, &lp.Union{Left: lp.NewRead("/db/a"), Right: lp.NewRead("/db/b")})
	require.NoError(t, err)

	u, ok := g.Vertices[g.Root].(*qsu.UnionV)
	require.True(t, ok)
	assert.Equal(t, qscript.Node(&qscript.ShiftedRead{Path: field.Slashed("/db/a"), IDStatus: qscript.ExcludeID}), u.Left)
	assert.Equal(t, qscript.Node(&qscript.ShiftedRead{Path: field.Slashed("/db/b"), IDStatus: qscript.ExcludeID}), u.Right)
	_, ok = g.Vertices[u.Src].(*qsu.UnreferencedV)
	assert.True(t, ok)
}

func TestReadLPSubset(t *testing.T) {
	ctx := NewContext(nil)
	g, err := ReadLP(ctx, &lp.Subset{Src: lp.NewRead("/db/a"), Op: qscript.Take, Count: 10})
	require.NoError(t, err)

	s, ok := g.Vertices[g.Root].(*qsu.SubsetV)
	require.True(t, ok)
	assert.Equal(t, qscript.Take, s.Op)
	assert.Equal(t, qscript.Node(&qscript.Hole{}), s.From)
	assert.Equal(t, qscript.Node(&qscript.Map{Src: &qscript.Hole{}, Fn: mapfunc.Int(10)}), s.Count)
}

func TestReadLPJoin(t *testing.T) {
	ctx := NewContext(nil)
	g, err := ReadLP(ctx, &lp.Join{
		Left:      lp.NewRead("/db/a"),
		Right:     lp.NewRead("/db/b"),
		Type:      qscript.LeftOuter,
		LeftName:  "l",
		RightName: "r",
		Cond: lp.NewInvoke("eq",
			lp.NewInvoke("project_key", lp.NewFree("l"), lp.NewConstant("id")),
			lp.NewInvoke("project_key", lp.NewFree("r"), lp.NewConstant("id"))),
	})
	require.NoError(t, err)

	j, ok := g.Vertices[g.Root].(*qsu.ThetaJoinV)
	require.True(t, ok)
	assert.Equal(t, qscript.LeftOuter, j.Join)
	assert.Equal(t, mapfunc.Expr(mapfunc.NewBinaryExpr("==",
		mapfunc.ProjectKeyS(&mapfunc.LeftSide{}, "id"),
		mapfunc.ProjectKeyS(&mapfunc.RightSide{}, "id"))), j.On)
}

func TestReadLPRejectsRootRead(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ReadLP(ctx, lp.NewRead("/"))
	require.Error(t, err)
	assert.True(t, planerr.IsKind(err, planerr.NoFilePathFound))
}

func TestScalarRejectsShiftInExpressionPosition(t *testing.T) {
	ctx := NewContext(nil)
	_, err := ReadLP(ctx, letOver("/db/zips", func(row lp.Plan) lp.Plan {
		return lp.NewInvoke("where", row, lp.NewInvoke("shift_array", row))
	}))
	require.Error(t, err)
	assert.True(t, planerr.IsKind(err, planerr.NonRepresentable))
}
